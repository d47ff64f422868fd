package observation

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipFact_Tag(t *testing.T) {
	f := PipFact{Name: "LOGIC_OUTS_L0->>EE2BEG0", Src: "LOGIC_OUTS_L0", Dst: "EE2BEG0", Multiplicity: 4, Directional: true}
	assert.Equal(t, "EE2BEG0.LOGIC_OUTS_L0", f.Tag())
}

func TestPipFact_Validate(t *testing.T) {
	tests := []struct {
		name    string
		fact    PipFact
		wantErr string
	}{
		{name: "valid", fact: PipFact{Name: "p", Src: "a", Dst: "b", Multiplicity: 2}},
		{name: "missing name", fact: PipFact{Src: "a", Dst: "b"}, wantErr: "pip name is required"},
		{name: "missing src", fact: PipFact{Name: "p", Dst: "b"}, wantErr: "source and destination are required"},
		{name: "negative multiplicity", fact: PipFact{Name: "p", Src: "a", Dst: "b", Multiplicity: -1}, wantErr: "multiplicity must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fact.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestObservation_Validate(t *testing.T) {
	valid := Observation{Design: "d", Tile: "INT_L_X0Y0", TileType: "INT_L", Tag: "A.B", Active: true}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, Key{TileType: "INT_L", Tag: "A.B"}, valid.Key())

	missingType := valid
	missingType.TileType = ""
	assert.ErrorContains(t, missingType.Validate(), "tile type is required")

	missingTag := valid
	missingTag.Tag = ""
	assert.ErrorContains(t, missingTag.Validate(), "tag is required")
}

func TestCompareKeys(t *testing.T) {
	keys := []Key{
		{TileType: "INT_R", Tag: "A.B"},
		{TileType: "INT_L", Tag: "Z.Y"},
		{TileType: "INT_L", Tag: "A.C"},
	}
	slices.SortFunc(keys, CompareKeys)

	assert.Equal(t, []Key{
		{TileType: "INT_L", Tag: "A.C"},
		{TileType: "INT_L", Tag: "Z.Y"},
		{TileType: "INT_R", Tag: "A.B"},
	}, keys)
}

func TestWithPolarity(t *testing.T) {
	v := NewBitVector(BitPos{Frame: 1, Bit: 2}, BitPos{Frame: 0, Bit: 3})

	got := WithPolarity(v, PolarityZero)
	require.Len(t, got, 2)
	assert.Equal(t, "00_03:0", got[0].String())
	assert.Equal(t, "01_02:0", got[1].String())
	assert.Nil(t, WithPolarity(BitVector{}, PolarityOne))
	assert.True(t, PolarityOne.Opposite(PolarityZero))
}

func TestErrors_WrapSentinels(t *testing.T) {
	var err error = &MalformedInputError{Source: "design.txt", Line: 3, Text: "x y", Reason: "expected 6 fields"}
	wrapped := fmt.Errorf("loading specimen: %w", err)

	assert.True(t, errors.Is(wrapped, ErrMalformedInput))
	assert.False(t, errors.Is(wrapped, ErrInconsistentFact))
	assert.Contains(t, err.Error(), "design.txt:3")

	var malformed *MalformedInputError
	require.True(t, errors.As(wrapped, &malformed))
	assert.Equal(t, 3, malformed.Line)

	inconsistent := &InconsistentFactError{Subject: "pip", Name: "A->>B", Have: "(A, B)", Got: "(A, C)", Source: "design.txt", Line: 9}
	assert.True(t, errors.Is(fmt.Errorf("wrap: %w", inconsistent), ErrInconsistentFact))
	assert.Contains(t, inconsistent.Error(), "pip 'A->>B' already recorded as (A, B), now (A, C)")
}
