package connlog

import (
	"maps"
	"slices"

	"github.com/dyluth/segmaker/pkg/observation"
)

// TileActivity is what one tile instance does in one design.
type TileActivity struct {
	pips map[string]struct{} // active pip names
	dsts map[string]struct{} // wires being driven
}

func newTileActivity() *TileActivity {
	return &TileActivity{
		pips: make(map[string]struct{}),
		dsts: make(map[string]struct{}),
	}
}

// HasPip reports whether the pip is placed on this tile.
func (a *TileActivity) HasPip(name string) bool {
	_, ok := a.pips[name]
	return ok
}

// Drives reports whether any active pip drives wire on this tile.
func (a *TileActivity) Drives(wire string) bool {
	_, ok := a.dsts[wire]
	return ok
}

// Pips returns the active pip names, sorted.
func (a *TileActivity) Pips() []string {
	return slices.Sorted(maps.Keys(a.pips))
}

// Design is the per-tile activity of one design, read from its connectivity log.
type Design struct {
	Name  string
	tiles map[string]*TileActivity
}

// NewDesign creates an empty design.
func NewDesign(name string) *Design {
	return &Design{Name: name, tiles: make(map[string]*TileActivity)}
}

// Tile returns the activity of a tile instance, or nil if it has no active pip.
func (d *Design) Tile(name string) *TileActivity {
	return d.tiles[name]
}

// Tiles returns the tile instances with at least one active pip, sorted.
func (d *Design) Tiles() []string {
	return slices.Sorted(maps.Keys(d.tiles))
}

// activate marks fact as placed on tile.
func (d *Design) activate(tile string, fact observation.PipFact) {
	a, ok := d.tiles[tile]
	if !ok {
		a = newTileActivity()
		d.tiles[tile] = a
	}

	a.pips[fact.Name] = struct{}{}
	a.dsts[fact.Dst] = struct{}{}

	// A bidirectional pip may drive either end.
	if !fact.Directional {
		a.dsts[fact.Src] = struct{}{}
	}
}
