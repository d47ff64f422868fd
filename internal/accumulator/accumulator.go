// Package accumulator groups observations from the whole corpus by
// (tile type, tag), keeping every trial's exact bit vector.
package accumulator

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dyluth/segmaker/pkg/observation"
)

// Group is every trial of one (tile type, tag), split by label.
type Group struct {
	Key   observation.Key
	Ones  []observation.Trial // trials where the tag was active
	Zeros []observation.Trial // trials where the tag was provably absent
}

// Accumulator owns the observation groups until they are handed to the solver.
// It is not safe for concurrent use; ingestion is sequential.
type Accumulator struct {
	groups       map[observation.Key]*Group
	observations int
	trials       int
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{groups: make(map[observation.Key]*Group)}
}

// AddTrial records every observation of one tile instance in one design,
// paired with that tile's bits. Redundant evidence is kept as is.
func (a *Accumulator) AddTrial(bits observation.BitVector, obs []observation.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	id := observation.TrialID{Design: obs[0].Design, Tile: obs[0].Tile}
	tileType := obs[0].TileType
	for _, o := range obs {
		if err := o.Validate(); err != nil {
			return err
		}
		if o.Design != id.Design || o.Tile != id.Tile || o.TileType != tileType {
			return fmt.Errorf("observation for %s/%s (%s) mixed into trial %s (%s)", o.Design, o.Tile, o.TileType, id, tileType)
		}
	}

	trial := observation.Trial{TrialID: id, Bits: bits}
	for _, o := range obs {
		key := o.Key()
		g, ok := a.groups[key]
		if !ok {
			g = &Group{Key: key}
			a.groups[key] = g
		}
		if o.Active {
			g.Ones = append(g.Ones, trial)
		} else {
			g.Zeros = append(g.Zeros, trial)
		}
	}
	a.observations += len(obs)
	a.trials++
	return nil
}

// Observations returns how many observations have been accumulated.
func (a *Accumulator) Observations() int {
	return a.observations
}

// Trials returns how many trials contributed at least one observation.
func (a *Accumulator) Trials() int {
	return a.trials
}

// Len returns the number of (tile type, tag) groups.
func (a *Accumulator) Len() int {
	return len(a.groups)
}

// Group returns the group for key.
func (a *Accumulator) Group(key observation.Key) (Group, bool) {
	g, ok := a.groups[key]
	if !ok {
		return Group{}, false
	}
	return *g, true
}

// Groups returns every group sorted by key. Trials within a group keep
// ingestion order; the solver does not depend on it.
func (a *Accumulator) Groups() []Group {
	keys := slices.SortedFunc(maps.Keys(a.groups), observation.CompareKeys)
	out := make([]Group, 0, len(keys))
	for _, k := range keys {
		g := a.groups[k]
		out = append(out, Group{
			Key:   g.Key,
			Ones:  slices.Clone(g.Ones),
			Zeros: slices.Clone(g.Zeros),
		})
	}
	return out
}
