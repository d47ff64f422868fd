package accumulator

import (
	"testing"

	"github.com/dyluth/segmaker/pkg/observation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bits(ps ...int) observation.BitVector {
	positions := make([]observation.BitPos, 0, len(ps))
	for _, p := range ps {
		positions = append(positions, observation.BitPos{Frame: 0, Bit: p})
	}
	return observation.NewBitVector(positions...)
}

func obs(design, tile, tag string, active bool) observation.Observation {
	return observation.Observation{Design: design, Tile: tile, TileType: "INT", Tag: tag, Active: active}
}

func TestAddTrial_GroupsByKey(t *testing.T) {
	acc := New()

	require.NoError(t, acc.AddTrial(bits(1, 2), []observation.Observation{
		obs("d1", "T0", "B.A", true),
		obs("d1", "T0", "D.C", false),
	}))
	require.NoError(t, acc.AddTrial(bits(3), []observation.Observation{
		obs("d1", "T1", "B.A", false),
	}))

	assert.Equal(t, 2, acc.Len())
	assert.Equal(t, 3, acc.Observations())
	assert.Equal(t, 2, acc.Trials())

	g, ok := acc.Group(observation.Key{TileType: "INT", Tag: "B.A"})
	require.True(t, ok)
	require.Len(t, g.Ones, 1)
	require.Len(t, g.Zeros, 1)
	assert.Equal(t, observation.TrialID{Design: "d1", Tile: "T0"}, g.Ones[0].TrialID)
	assert.True(t, g.Ones[0].Bits.Equal(bits(1, 2)))
	assert.Equal(t, observation.TrialID{Design: "d1", Tile: "T1"}, g.Zeros[0].TrialID)
}

func TestAddTrial_KeepsIdenticalEvidence(t *testing.T) {
	acc := New()
	for _, tile := range []string{"T0", "T1", "T2"} {
		require.NoError(t, acc.AddTrial(bits(7), []observation.Observation{obs("d1", tile, "B.A", true)}))
	}

	g, ok := acc.Group(observation.Key{TileType: "INT", Tag: "B.A"})
	require.True(t, ok)
	assert.Len(t, g.Ones, 3, "identical vectors from different tiles are separate trials")
}

func TestAddTrial_RejectsMixedTrial(t *testing.T) {
	acc := New()
	err := acc.AddTrial(bits(), []observation.Observation{
		obs("d1", "T0", "B.A", true),
		obs("d1", "T1", "B.A", true),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixed into trial")
	assert.Equal(t, 0, acc.Len())
}

func TestAddTrial_RejectsInvalidObservation(t *testing.T) {
	acc := New()
	err := acc.AddTrial(bits(), []observation.Observation{{Design: "d1", Tile: "T0", TileType: "INT"}})
	assert.ErrorContains(t, err, "tag is required")
}

func TestGroups_SortedAndIndependent(t *testing.T) {
	acc := New()
	require.NoError(t, acc.AddTrial(bits(1), []observation.Observation{
		{Design: "d", Tile: "R0", TileType: "INT_R", Tag: "A.B", Active: true},
	}))
	require.NoError(t, acc.AddTrial(bits(1), []observation.Observation{
		{Design: "d", Tile: "L0", TileType: "INT_L", Tag: "Z.Y", Active: true},
		{Design: "d", Tile: "L0", TileType: "INT_L", Tag: "A.B", Active: false},
	}))

	groups := acc.Groups()
	var keys []string
	for _, g := range groups {
		keys = append(keys, g.Key.String())
	}
	assert.Equal(t, []string{"INT_L,A.B", "INT_L,Z.Y", "INT_R,A.B"}, keys)

	groups[0].Zeros = nil
	again, _ := acc.Group(observation.Key{TileType: "INT_L", Tag: "A.B"})
	assert.Len(t, again.Zeros, 1)
}

func TestAddTrial_EmptyIsNoop(t *testing.T) {
	acc := New()
	require.NoError(t, acc.AddTrial(bits(1), nil))
	assert.Equal(t, 0, acc.Trials())
}
