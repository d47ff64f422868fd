// Package solver finds, for every (tile type, tag) group, the bits whose
// value explains the tag's label across every trial.
//
// For a group with trials Ones (tag active) and Zeros (tag provably absent):
//
//	candidate = ∩ Ones  \  ∪ Zeros
//
// A non-empty candidate is the tag's solution with polarity 1. Groups that
// cannot be explained, or whose absent side was never observed, are reported
// as unsolved rather than guessed. Groups are independent, so they are solved
// in parallel; results come back in input order.
package solver

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dyluth/segmaker/internal/accumulator"
	"github.com/dyluth/segmaker/pkg/observation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reason explains why a tag is unsolved.
type Reason string

const (
	// ReasonNeverActive means no trial ever had the tag active
	ReasonNeverActive Reason = "never-active"

	// ReasonNoCandidate means no bit is consistent with every trial
	ReasonNoCandidate Reason = "no-candidate"

	// ReasonDefaultUnconstrained means the tag was never observed absent
	ReasonDefaultUnconstrained Reason = "default-unconstrained"
)

// Options tunes a solve.
type Options struct {
	Workers       int   // Parallel groups; <= 0 means GOMAXPROCS
	AllowInverted bool  // Fall back to polarity-0 bits when no polarity-1 bit explains a tag
	IgnoreFrames  []int // Frames excluded from every vector before solving
	Logger        *zap.Logger
}

// Solution is the confident bit mapping of one tag.
type Solution struct {
	Key        observation.Key
	Bits       []observation.BitPolarity // sorted by position
	Ones       int                       // supporting active trials
	Zeros      int                       // supporting absent trials
	Conflicted bool                      // set when a polarity conflict involves this tag
}

// Unsolved is a tag with no confident mapping, with its evidence retained.
type Unsolved struct {
	Key       observation.Key
	Reason    Reason
	Candidate []observation.BitPolarity // default-unconstrained only
	Ones      []observation.Trial
	Zeros     []observation.Trial
}

// Result is the outcome of solving a corpus.
type Result struct {
	Solved    []Solution
	Unsolved  []Unsolved
	Conflicts []Conflict
}

type outcome struct {
	solved   *Solution
	unsolved *Unsolved
}

// Solve solves every group. The same groups always give the same Result.
func Solve(ctx context.Context, groups []accumulator.Group, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	keep := frameFilter(opts.IgnoreFrames)

	outcomes := make([]outcome, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range groups {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = solveGroup(groups[i], keep, opts.AllowInverted)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("solve interrupted: %w", err)
	}

	result := &Result{}
	for _, o := range outcomes {
		switch {
		case o.solved != nil:
			result.Solved = append(result.Solved, *o.solved)
		case o.unsolved != nil:
			result.Unsolved = append(result.Unsolved, *o.unsolved)
		}
	}

	result.Conflicts = findConflicts(result.Solved)
	markConflicted(result)

	logger.Debug("Solved corpus",
		zap.Int("groups", len(groups)),
		zap.Int("solved", len(result.Solved)),
		zap.Int("unsolved", len(result.Unsolved)),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Int("workers", workers))

	return result, nil
}

func frameFilter(frames []int) func(observation.BitPos) bool {
	if len(frames) == 0 {
		return nil
	}
	ignored := make(map[int]struct{}, len(frames))
	for _, f := range frames {
		ignored[f] = struct{}{}
	}
	return func(p observation.BitPos) bool {
		_, skip := ignored[p.Frame]
		return !skip
	}
}

// SolveGroup solves a single group with default options.
func SolveGroup(g accumulator.Group) (*Solution, *Unsolved) {
	o := solveGroup(g, nil, false)
	return o.solved, o.unsolved
}

func solveGroup(g accumulator.Group, keep func(observation.BitPos) bool, allowInverted bool) outcome {
	if len(g.Ones) == 0 {
		return outcome{unsolved: &Unsolved{Key: g.Key, Reason: ReasonNeverActive, Zeros: g.Zeros}}
	}

	vec := func(t observation.Trial) observation.BitVector {
		if keep == nil {
			return t.Bits
		}
		return t.Bits.Filter(keep)
	}

	// Step 1: bits set in every active trial.
	alwaysOne := vec(g.Ones[0])
	for _, t := range g.Ones[1:] {
		alwaysOne = alwaysOne.Intersect(vec(t))
	}

	if len(g.Zeros) == 0 {
		return outcome{unsolved: &Unsolved{
			Key:       g.Key,
			Reason:    ReasonDefaultUnconstrained,
			Candidate: observation.WithPolarity(alwaysOne, observation.PolarityOne),
			Ones:      g.Ones,
		}}
	}

	// Step 2: bits set in any absent trial can not be the explanation.
	anyZero := observation.BitVector{}
	for _, t := range g.Zeros {
		anyZero = anyZero.Union(vec(t))
	}

	solved := func(bits []observation.BitPolarity) outcome {
		return outcome{solved: &Solution{Key: g.Key, Bits: bits, Ones: len(g.Ones), Zeros: len(g.Zeros)}}
	}

	// Step 3.
	if candidate := alwaysOne.Difference(anyZero); candidate.Len() > 0 {
		return solved(observation.WithPolarity(candidate, observation.PolarityOne))
	}

	if allowInverted {
		alwaysZero := vec(g.Zeros[0])
		for _, t := range g.Zeros[1:] {
			alwaysZero = alwaysZero.Intersect(vec(t))
		}
		anyOne := observation.BitVector{}
		for _, t := range g.Ones {
			anyOne = anyOne.Union(vec(t))
		}
		if inverted := alwaysZero.Difference(anyOne); inverted.Len() > 0 {
			return solved(observation.WithPolarity(inverted, observation.PolarityZero))
		}
	}

	return outcome{unsolved: &Unsolved{Key: g.Key, Reason: ReasonNoCandidate, Ones: g.Ones, Zeros: g.Zeros}}
}
