// Package observation provides the typed records shared by every stage of the
// segmaker pipeline.
//
// # Overview
//
// segmaker recovers the bit-level encoding of an FPGA configuration bitstream by
// correlating symbolic features ("tags") against the raw configuration bits of
// many randomized designs. Everything that flows between stages is defined here:
//
//   - PipFact: a potential connection inside a tile, fixed for the whole corpus
//   - Observation: one (tile instance, tag, label) fact for one design
//   - BitVector: the set bits of one tile instance in one design
//   - Trial: a BitVector together with the design and tile it was taken from
//   - Key: the interned (tile type, tag) identifier observations are grouped by
//
// # Tile Types
//
// Bit solutions are computed per tile type. Every instance of a type, in every
// design, is an independent trial for the type's tags.
//
// # Bit Positions
//
// A BitPos names one configuration bit relative to its tile: a frame offset and
// a bit offset inside that frame. Positions render as "FF_BB" (for example
// "05_12") and sort by frame, then bit.
//
// # Errors
//
// Two failure classes abort a run:
//
//   - ErrMalformedInput: an input line does not have the expected shape
//   - ErrInconsistentFact: a fact that must be fixed across the corpus (a pip's
//     endpoint pair, a tile's type) was reported two different ways
//
// Both are carried by typed errors (MalformedInputError, InconsistentFactError)
// that wrap the sentinel, so callers can use errors.Is and errors.As.
//
// # Usage Example
//
//	ones := observation.NewBitVector(observation.BitPos{Frame: 5, Bit: 12})
//	obs := observation.Observation{
//		Design:   "specimen_001",
//		Tile:     "INT_L_X2Y100",
//		TileType: "INT_L",
//		Tag:      observation.TagName("EE2BEG0", "LOGIC_OUTS_L0"),
//		Active:   true,
//	}
//	if err := obs.Validate(); err != nil {
//		log.Fatal(err)
//	}
package observation
