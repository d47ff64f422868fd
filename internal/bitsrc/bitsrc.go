// Package bitsrc reads the per-design tile bit vectors produced by the
// bitstream-differencing step.
//
// Each line names one tile instance, its tile type, and the tile-relative
// positions of every bit that is set:
//
//	INT_L_X2Y100 INT_L 05_12 07_03 27_40
//
// Tiles with no set bit still get a line. Blank lines and lines starting with
// '#' are ignored.
package bitsrc

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/dyluth/segmaker/pkg/observation"
)

// TileBits is the bit evidence of one tile instance in one design.
type TileBits struct {
	Tile     string
	TileType string
	Bits     observation.BitVector
}

// Design maps tile instance names to their bits for one design.
type Design map[string]TileBits

// Tiles returns the tile instance names, sorted.
func (d Design) Tiles() []string {
	return slices.Sorted(maps.Keys(d))
}

// Read parses one design's bit file. source is used in error messages only.
func Read(r io.Reader, source string) (Design, error) {
	d := make(Design)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		malformed := func(reason string) error {
			return &observation.MalformedInputError{Source: source, Line: lineNo, Text: text, Reason: reason}
		}

		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			return nil, malformed("expected tile instance and tile type")
		}
		tile, tileType := fields[0], fields[1]
		if _, dup := d[tile]; dup {
			return nil, malformed(fmt.Sprintf("tile '%s' listed twice", tile))
		}

		positions := make([]observation.BitPos, 0, len(fields)-2)
		for _, f := range fields[2:] {
			p, err := observation.ParseBitPos(f)
			if err != nil {
				return nil, malformed(err.Error())
			}
			positions = append(positions, p)
		}

		d[tile] = TileBits{
			Tile:     tile,
			TileType: tileType,
			Bits:     observation.NewBitVector(positions...),
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	return d, nil
}

// TypeIndex records the tile type of every tile instance across a corpus and
// rejects a tile reported with two different types.
type TypeIndex struct {
	types   map[string]string
	sources map[string]string
}

// NewTypeIndex creates an empty index.
func NewTypeIndex() *TypeIndex {
	return &TypeIndex{types: make(map[string]string), sources: make(map[string]string)}
}

// Add merges one design's tiles into the index.
func (x *TypeIndex) Add(d Design, source string) error {
	for _, tile := range d.Tiles() {
		tb := d[tile]
		have, ok := x.types[tile]
		if !ok {
			x.types[tile] = tb.TileType
			x.sources[tile] = source
			continue
		}
		if have != tb.TileType {
			return &observation.InconsistentFactError{
				Subject: "tile",
				Name:    tile,
				Have:    fmt.Sprintf("type %s in %s", have, x.sources[tile]),
				Got:     "type " + tb.TileType,
				Source:  source,
			}
		}
	}
	return nil
}

// TypeOf returns the tile type of a tile instance.
func (x *TypeIndex) TypeOf(tile string) (string, bool) {
	t, ok := x.types[tile]
	return t, ok
}
