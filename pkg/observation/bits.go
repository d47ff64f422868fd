package observation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// BitPos addresses one configuration bit relative to its tile.
type BitPos struct {
	Frame int `json:"frame"` // Frame offset within the tile
	Bit   int `json:"bit"`   // Bit offset within the frame
}

func (p BitPos) String() string {
	return fmt.Sprintf("%02d_%02d", p.Frame, p.Bit)
}

// ComparePos orders positions by frame, then bit.
func ComparePos(a, b BitPos) int {
	if a.Frame != b.Frame {
		if a.Frame < b.Frame {
			return -1
		}
		return 1
	}
	switch {
	case a.Bit < b.Bit:
		return -1
	case a.Bit > b.Bit:
		return 1
	}
	return 0
}

// ParseBitPos parses the "FF_BB" form produced by BitPos.String.
func ParseBitPos(s string) (BitPos, error) {
	frame, bit, ok := strings.Cut(s, "_")
	if !ok {
		return BitPos{}, fmt.Errorf("invalid bit position %q (expected FF_BB)", s)
	}
	f, err := strconv.Atoi(frame)
	if err != nil || f < 0 {
		return BitPos{}, fmt.Errorf("invalid frame offset in bit position %q", s)
	}
	b, err := strconv.Atoi(bit)
	if err != nil || b < 0 {
		return BitPos{}, fmt.Errorf("invalid bit offset in bit position %q", s)
	}
	return BitPos{Frame: f, Bit: b}, nil
}

// BitVector is an immutable set of bit positions that read as 1.
// Positions not in the set read as 0. The zero value is the empty vector.
type BitVector struct {
	bits []BitPos // sorted by ComparePos, no duplicates
}

// NewBitVector builds a vector from positions in any order; duplicates collapse.
func NewBitVector(positions ...BitPos) BitVector {
	if len(positions) == 0 {
		return BitVector{}
	}
	bits := slices.Clone(positions)
	slices.SortFunc(bits, ComparePos)
	return fromSorted(slices.Compact(bits))
}

func fromSorted(bits []BitPos) BitVector {
	if len(bits) == 0 {
		return BitVector{}
	}
	return BitVector{bits: bits}
}

// Len returns the number of set bits.
func (v BitVector) Len() int {
	return len(v.bits)
}

// Has reports whether p is set.
func (v BitVector) Has(p BitPos) bool {
	_, found := slices.BinarySearchFunc(v.bits, p, ComparePos)
	return found
}

// Positions returns the set positions in ascending order.
func (v BitVector) Positions() []BitPos {
	return slices.Clone(v.bits)
}

// Equal reports whether both vectors hold the same positions.
func (v BitVector) Equal(other BitVector) bool {
	return slices.Equal(v.bits, other.bits)
}

// Intersect returns the positions set in both vectors.
func (v BitVector) Intersect(other BitVector) BitVector {
	out := make([]BitPos, 0, min(len(v.bits), len(other.bits)))
	i, j := 0, 0
	for i < len(v.bits) && j < len(other.bits) {
		switch c := ComparePos(v.bits[i], other.bits[j]); {
		case c < 0:
			i++
		case c > 0:
			j++
		default:
			out = append(out, v.bits[i])
			i++
			j++
		}
	}
	return fromSorted(out)
}

// Union returns the positions set in either vector.
func (v BitVector) Union(other BitVector) BitVector {
	out := make([]BitPos, 0, len(v.bits)+len(other.bits))
	i, j := 0, 0
	for i < len(v.bits) && j < len(other.bits) {
		switch c := ComparePos(v.bits[i], other.bits[j]); {
		case c < 0:
			out = append(out, v.bits[i])
			i++
		case c > 0:
			out = append(out, other.bits[j])
			j++
		default:
			out = append(out, v.bits[i])
			i++
			j++
		}
	}
	out = append(out, v.bits[i:]...)
	out = append(out, other.bits[j:]...)
	return fromSorted(out)
}

// Difference returns the positions set in v but not in other.
func (v BitVector) Difference(other BitVector) BitVector {
	out := make([]BitPos, 0, len(v.bits))
	i, j := 0, 0
	for i < len(v.bits) {
		if j >= len(other.bits) {
			out = append(out, v.bits[i:]...)
			break
		}
		switch c := ComparePos(v.bits[i], other.bits[j]); {
		case c < 0:
			out = append(out, v.bits[i])
			i++
		case c > 0:
			j++
		default:
			i++
			j++
		}
	}
	return fromSorted(out)
}

// Filter returns the positions for which keep returns true.
func (v BitVector) Filter(keep func(BitPos) bool) BitVector {
	out := make([]BitPos, 0, len(v.bits))
	for _, p := range v.bits {
		if keep(p) {
			out = append(out, p)
		}
	}
	return fromSorted(out)
}

func (v BitVector) String() string {
	parts := make([]string, len(v.bits))
	for i, p := range v.bits {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}
