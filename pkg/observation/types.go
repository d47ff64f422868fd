package observation

import (
	"fmt"
	"strings"
)

// PipFact is a statically known potential connection within a tile type.
// A pip name maps to exactly one (Src, Dst) pair across the whole corpus.
type PipFact struct {
	Name         string `json:"name"`         // Pip name with the tile prefix stripped
	Src          string `json:"src"`          // Source wire, trailing name component only
	Dst          string `json:"dst"`          // Destination wire, trailing name component only
	Multiplicity int    `json:"multiplicity"` // Number of distinct pips able to drive Dst
	Directional  bool   `json:"directional"`  // False for bidirectional pips
}

// Tag returns the canonical tag name for this pip ("<dst>.<src>").
func (f PipFact) Tag() string {
	return TagName(f.Dst, f.Src)
}

// SameEndpoints reports whether two facts describe the same (src, dst) pair.
func (f PipFact) SameEndpoints(other PipFact) bool {
	return f.Src == other.Src && f.Dst == other.Dst
}

// Validate checks if the PipFact has valid field values.
func (f PipFact) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("pip name is required")
	}
	if f.Src == "" || f.Dst == "" {
		return fmt.Errorf("pip '%s': source and destination are required", f.Name)
	}
	if f.Multiplicity < 0 {
		return fmt.Errorf("pip '%s': multiplicity must be >= 0, got %d", f.Name, f.Multiplicity)
	}
	return nil
}

// TagName builds the canonical tag name for a connection driving dst from src.
func TagName(dst, src string) string {
	return dst + "." + src
}

// Key identifies one group of observations: a tag scoped to a tile type.
type Key struct {
	TileType string `json:"tile_type"`
	Tag      string `json:"tag"`
}

func (k Key) String() string {
	return k.TileType + "," + k.Tag
}

// CompareKeys orders keys by tile type, then tag.
func CompareKeys(a, b Key) int {
	if c := strings.Compare(a.TileType, b.TileType); c != 0 {
		return c
	}
	return strings.Compare(a.Tag, b.Tag)
}

// Observation is a single (tile instance, tag, label) fact derived for one design.
// It is implicitly paired with the tile instance's BitVector for that design.
type Observation struct {
	Design   string `json:"design"`    // Design (specimen) the fact was taken from
	Tile     string `json:"tile"`      // Tile instance name
	TileType string `json:"tile_type"` // Tile type classification of Tile
	Tag      string `json:"tag"`       // Feature name, scoped to TileType
	Active   bool   `json:"active"`    // Label: true = feature present, false = provably absent
}

// Key returns the group this observation belongs to.
func (o Observation) Key() Key {
	return Key{TileType: o.TileType, Tag: o.Tag}
}

// Validate checks if the Observation has valid field values.
func (o Observation) Validate() error {
	if o.Design == "" {
		return fmt.Errorf("observation: design is required")
	}
	if o.Tile == "" {
		return fmt.Errorf("observation: tile is required")
	}
	if o.TileType == "" {
		return fmt.Errorf("observation for tile '%s': tile type is required", o.Tile)
	}
	if o.Tag == "" {
		return fmt.Errorf("observation for tile '%s': tag is required", o.Tile)
	}
	return nil
}

// TrialID identifies one experimental trial: a tile instance in one design.
type TrialID struct {
	Design string `json:"design"`
	Tile   string `json:"tile"`
}

func (id TrialID) String() string {
	return id.Design + "/" + id.Tile
}

// Trial is the bit evidence of one tile instance in one design.
type Trial struct {
	TrialID
	Bits BitVector `json:"bits"`
}

// Polarity is the value a bit must hold for a tag to be active.
type Polarity uint8

const (
	// PolarityZero means the bit is cleared when the tag is active
	PolarityZero Polarity = 0

	// PolarityOne means the bit is set when the tag is active
	PolarityOne Polarity = 1
)

// Opposite reports whether two polarities disagree.
func (p Polarity) Opposite(other Polarity) bool {
	return p != other
}

func (p Polarity) String() string {
	if p == PolarityOne {
		return "1"
	}
	return "0"
}

// BitPolarity is one entry of a solution: a position and the value it must hold.
type BitPolarity struct {
	Pos      BitPos   `json:"pos"`
	Polarity Polarity `json:"polarity"`
}

func (b BitPolarity) String() string {
	return b.Pos.String() + ":" + b.Polarity.String()
}

// WithPolarity pairs every position of v with the given polarity.
func WithPolarity(v BitVector, p Polarity) []BitPolarity {
	if v.Len() == 0 {
		return nil
	}
	out := make([]BitPolarity, 0, v.Len())
	for _, pos := range v.bits {
		out = append(out, BitPolarity{Pos: pos, Polarity: p})
	}
	return out
}
