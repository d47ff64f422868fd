package writer

import (
	"bytes"
	"testing"

	"github.com/dyluth/segmaker/internal/connlog"
	"github.com/dyluth/segmaker/internal/solver"
	"github.com/dyluth/segmaker/pkg/observation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bp(frame, bit int, polarity observation.Polarity) observation.BitPolarity {
	return observation.BitPolarity{Pos: observation.BitPos{Frame: frame, Bit: bit}, Polarity: polarity}
}

func TestWriteDatabase_SortedAndStable(t *testing.T) {
	solved := []solver.Solution{
		{Key: observation.Key{TileType: "INT_R", Tag: "A.B"}, Bits: []observation.BitPolarity{bp(1, 1, 1)}},
		{Key: observation.Key{TileType: "INT_L", Tag: "Z.Y"}, Bits: []observation.BitPolarity{bp(7, 3, 1), bp(5, 12, 1)}},
		{Key: observation.Key{TileType: "INT_L", Tag: "C.D"}, Bits: []observation.BitPolarity{bp(0, 2, 0)}},
		{Key: observation.Key{TileType: "INT_L", Tag: "M.N"}, Bits: []observation.BitPolarity{bp(0, 2, 1)}, Conflicted: true},
	}

	var first, second bytes.Buffer
	n, err := WriteDatabase(&first, solved)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	expected := "INT_L,C.D,00_02:0\nINT_L,Z.Y,05_12:1 07_03:1\nINT_R,A.B,01_01:1\n"
	assert.Equal(t, expected, first.String())

	// Reordered input, identical bytes.
	reversed := []solver.Solution{solved[3], solved[2], solved[1], solved[0]}
	_, err = WriteDatabase(&second, reversed)
	require.NoError(t, err)
	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, "INT_R", solved[0].Key.TileType, "input must not be reordered")
}

func TestWriteUnsolved(t *testing.T) {
	unsolved := []solver.Unsolved{
		{
			Key:       observation.Key{TileType: "INT_L", Tag: "B.A"},
			Reason:    solver.ReasonDefaultUnconstrained,
			Candidate: []observation.BitPolarity{bp(3, 1, 1), bp(0, 9, 1)},
			Ones:      make([]observation.Trial, 4),
		},
		{
			Key:    observation.Key{TileType: "INT_L", Tag: "A.A"},
			Reason: solver.ReasonNeverActive,
			Zeros:  make([]observation.Trial, 2),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteUnsolved(&buf, unsolved))

	expected := UnsolvedHeader + "\n" +
		"INT_L,A.A,never-active,0,2,\n" +
		"INT_L,B.A,default-unconstrained,4,0,00_09:1 03_01:1\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteConflicts(t *testing.T) {
	conflicts := []solver.Conflict{
		{
			TileType: "INT_L",
			Pos:      observation.BitPos{Frame: 2, Bit: 0},
			A:        solver.TagPolarity{Tag: "A.A", Polarity: observation.PolarityOne},
			B:        solver.TagPolarity{Tag: "B.B", Polarity: observation.PolarityZero},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteConflicts(&buf, conflicts))
	assert.Equal(t, ConflictsHeader+"\nINT_L,02_00,A.A,1,B.B,0\n", buf.String())
}

func TestWriteSuppressed(t *testing.T) {
	facts := []connlog.SuppressedFact{
		{PipFact: observation.PipFact{Name: "Z->>Y", Src: "Z", Dst: "Y"}, Reasons: []string{"bidirectional", "multiplicity-one"}},
		{PipFact: observation.PipFact{Name: "GCLK0->>A", Src: "GCLK0", Dst: "A"}, Reasons: []string{"long-line-clock-src"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSuppressed(&buf, facts))
	expected := SuppressedHeader + "\n" +
		"GCLK0->>A,GCLK0,A,long-line-clock-src\n" +
		"Z->>Y,Z,Y,bidirectional multiplicity-one\n"
	assert.Equal(t, expected, buf.String())
}
