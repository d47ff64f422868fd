// Package writer serializes solver results into stable, sorted, line-oriented
// text. Identical results always produce identical bytes, so outputs can be
// diffed between runs.
package writer

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dyluth/segmaker/internal/connlog"
	"github.com/dyluth/segmaker/internal/solver"
	"github.com/dyluth/segmaker/pkg/observation"
)

// Header rows of the diagnostics tables.
const (
	UnsolvedHeader   = "tile_type,tag,reason,ones,zeros,candidate"
	ConflictsHeader  = "tile_type,bit,tag_a,polarity_a,tag_b,polarity_b"
	SuppressedHeader = "pip,src,dst,reasons"
)

// WriteDatabase writes one line per confident solution:
//
//	INT_L,EE2BEG0.LOGIC_OUTS_L0,05_12:1 07_03:1
//
// Conflicted solutions are left out; they appear in the conflicts table.
// Returns the number of records written.
func WriteDatabase(w io.Writer, solved []solver.Solution) (int, error) {
	sorted := slices.Clone(solved)
	slices.SortFunc(sorted, func(a, b solver.Solution) int { return observation.CompareKeys(a.Key, b.Key) })

	n := 0
	for _, s := range sorted {
		if s.Conflicted {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s,%s,%s\n", s.Key.TileType, s.Key.Tag, formatBits(s.Bits)); err != nil {
			return n, fmt.Errorf("failed to write database record %s: %w", s.Key, err)
		}
		n++
	}
	return n, nil
}

// WriteUnsolved writes the diagnostics side-channel for unsolved tags.
func WriteUnsolved(w io.Writer, unsolved []solver.Unsolved) error {
	sorted := slices.Clone(unsolved)
	slices.SortFunc(sorted, func(a, b solver.Unsolved) int { return observation.CompareKeys(a.Key, b.Key) })

	if _, err := fmt.Fprintln(w, UnsolvedHeader); err != nil {
		return fmt.Errorf("failed to write unsolved header: %w", err)
	}
	for _, u := range sorted {
		_, err := fmt.Fprintf(w, "%s,%s,%s,%d,%d,%s\n",
			u.Key.TileType, u.Key.Tag, u.Reason, len(u.Ones), len(u.Zeros), formatBits(u.Candidate))
		if err != nil {
			return fmt.Errorf("failed to write unsolved record %s: %w", u.Key, err)
		}
	}
	return nil
}

// WriteConflicts writes every polarity conflict.
func WriteConflicts(w io.Writer, conflicts []solver.Conflict) error {
	sorted := slices.Clone(conflicts)
	slices.SortFunc(sorted, func(a, b solver.Conflict) int {
		return cmp.Or(
			strings.Compare(a.TileType, b.TileType),
			observation.ComparePos(a.Pos, b.Pos),
			strings.Compare(a.A.Tag, b.A.Tag),
			strings.Compare(a.B.Tag, b.B.Tag),
		)
	})

	if _, err := fmt.Fprintln(w, ConflictsHeader); err != nil {
		return fmt.Errorf("failed to write conflicts header: %w", err)
	}
	for _, c := range sorted {
		_, err := fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s\n",
			c.TileType, c.Pos, c.A.Tag, c.A.Polarity, c.B.Tag, c.B.Polarity)
		if err != nil {
			return fmt.Errorf("failed to write conflict at %s %s: %w", c.TileType, c.Pos, err)
		}
	}
	return nil
}

// WriteSuppressed writes every suppressed pip with the rules that suppressed it.
func WriteSuppressed(w io.Writer, facts []connlog.SuppressedFact) error {
	sorted := slices.Clone(facts)
	slices.SortFunc(sorted, func(a, b connlog.SuppressedFact) int { return strings.Compare(a.Name, b.Name) })

	if _, err := fmt.Fprintln(w, SuppressedHeader); err != nil {
		return fmt.Errorf("failed to write suppressed header: %w", err)
	}
	for _, f := range sorted {
		if _, err := fmt.Fprintf(w, "%s,%s,%s,%s\n", f.Name, f.Src, f.Dst, strings.Join(f.Reasons, " ")); err != nil {
			return fmt.Errorf("failed to write suppressed pip %s: %w", f.Name, err)
		}
	}
	return nil
}

// formatBits renders bits sorted by position, space separated.
func formatBits(bits []observation.BitPolarity) string {
	sorted := slices.Clone(bits)
	slices.SortFunc(sorted, func(a, b observation.BitPolarity) int { return observation.ComparePos(a.Pos, b.Pos) })

	parts := make([]string, len(sorted))
	for i, b := range sorted {
		parts[i] = b.String()
	}
	return strings.Join(parts, " ")
}
