package policy

import (
	"maps"
	"slices"

	"github.com/dyluth/segmaker/internal/connlog"
	"github.com/dyluth/segmaker/pkg/observation"
)

// FactSource is the global pip fact table.
type FactSource interface {
	Fact(name string) (observation.PipFact, bool)
	IsSuppressed(name string) bool
}

// Selector turns per-tile connectivity into (tag, label) observations.
//
// A pip is a candidate for a tile type once it has been seen active on any
// instance of that type anywhere in the corpus.
type Selector struct {
	byType map[string][]observation.PipFact // tile type → unsuppressed candidates, sorted by name
	tags   map[string]map[string]struct{}   // tile type → candidate tags
}

// NewSelector indexes the candidate pips of every tile type found in designs.
// typeOf resolves a tile instance to its tile type; unknown tiles are skipped.
func NewSelector(facts FactSource, designs []*connlog.Design, typeOf func(tile string) (string, bool)) *Selector {
	seen := make(map[string]map[string]struct{})
	for _, d := range designs {
		for _, tile := range d.Tiles() {
			tileType, ok := typeOf(tile)
			if !ok {
				continue
			}
			names, ok := seen[tileType]
			if !ok {
				names = make(map[string]struct{})
				seen[tileType] = names
			}
			for _, pip := range d.Tile(tile).Pips() {
				if !facts.IsSuppressed(pip) {
					names[pip] = struct{}{}
				}
			}
		}
	}

	byType := make(map[string][]observation.PipFact, len(seen))
	tags := make(map[string]map[string]struct{}, len(seen))
	for tileType, names := range seen {
		candidates := make([]observation.PipFact, 0, len(names))
		typeTags := make(map[string]struct{}, len(names))
		for _, name := range slices.Sorted(maps.Keys(names)) {
			if f, ok := facts.Fact(name); ok {
				candidates = append(candidates, f)
				typeTags[f.Tag()] = struct{}{}
			}
		}
		tags[tileType] = typeTags
		byType[tileType] = candidates
	}

	return &Selector{byType: byType, tags: tags}
}

// Candidates returns the unsuppressed pips considered for a tile type.
func (s *Selector) Candidates(tileType string) []observation.PipFact {
	return slices.Clone(s.byType[tileType])
}

// HasTag reports whether tag belongs to a candidate pip of tileType.
func (s *Selector) HasTag(tileType, tag string) bool {
	_, ok := s.tags[tileType][tag]
	return ok
}

// TileTypes returns the tile types with at least one candidate pip, sorted.
func (s *Selector) TileTypes() []string {
	return slices.Sorted(maps.Keys(s.byType))
}

// Select derives the observations of one tile instance in one design.
//
//   - the pip is placed on the tile: label 1
//   - nothing at all drives the pip's destination on the tile: label 0
//   - the destination is driven by some other source: nothing, it is ambiguous
//
// activity may be nil for a tile with no placed pips, which yields label 0
// for every candidate.
func (s *Selector) Select(design, tile, tileType string, activity *connlog.TileActivity) []observation.Observation {
	candidates := s.byType[tileType]
	labels := make(map[string]bool, len(candidates))
	for _, f := range candidates {
		switch {
		case activity != nil && activity.HasPip(f.Name):
			labels[f.Tag()] = true
		case activity == nil || !activity.Drives(f.Dst):
			if _, ok := labels[f.Tag()]; !ok {
				labels[f.Tag()] = false
			}
		}
	}

	out := make([]observation.Observation, 0, len(labels))
	for _, tag := range slices.Sorted(maps.Keys(labels)) {
		out = append(out, observation.Observation{
			Design:   design,
			Tile:     tile,
			TileType: tileType,
			Tag:      tag,
			Active:   labels[tag],
		})
	}
	return out
}
