// Package connlog ingests the connectivity log: one line per pip that is
// physically active in a design, together with the static facts of that pip.
//
// A FactTable is shared by every design of a run. It enforces the corpus-wide
// invariant that a pip name always names the same (source, destination) pair,
// and it records which pips are suppressed and why.
package connlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/dyluth/segmaker/pkg/observation"
)

// Suppressor decides whether a pip may ever produce observations.
// It returns the names of every rule that suppresses the fact, or nil.
type Suppressor interface {
	Suppress(fact observation.PipFact) []string
}

// SuppressedFact is a pip excluded from observation together with the reasons.
type SuppressedFact struct {
	observation.PipFact
	Reasons []string
}

type factEntry struct {
	fact    observation.PipFact
	source  string
	line    int
	reasons map[string]struct{}
}

// FactTable is the global pip fact table of a run.
type FactTable struct {
	suppressor Suppressor
	facts      map[string]*factEntry
}

// NewFactTable creates an empty table. A nil suppressor suppresses nothing.
func NewFactTable(s Suppressor) *FactTable {
	return &FactTable{
		suppressor: s,
		facts:      make(map[string]*factEntry),
	}
}

// Len returns the number of distinct pips seen so far.
func (t *FactTable) Len() int {
	return len(t.facts)
}

// Fact returns the fact recorded for a pip name.
func (t *FactTable) Fact(name string) (observation.PipFact, bool) {
	e, ok := t.facts[name]
	if !ok {
		return observation.PipFact{}, false
	}
	return e.fact, true
}

// IsSuppressed reports whether a pip must never produce observations.
func (t *FactTable) IsSuppressed(name string) bool {
	e, ok := t.facts[name]
	return ok && len(e.reasons) > 0
}

// Facts returns every recorded fact sorted by pip name.
func (t *FactTable) Facts() []observation.PipFact {
	out := make([]observation.PipFact, 0, len(t.facts))
	for _, name := range slices.Sorted(maps.Keys(t.facts)) {
		out = append(out, t.facts[name].fact)
	}
	return out
}

// Suppressed returns every suppressed fact sorted by pip name, reasons sorted.
func (t *FactTable) Suppressed() []SuppressedFact {
	var out []SuppressedFact
	for _, name := range slices.Sorted(maps.Keys(t.facts)) {
		e := t.facts[name]
		if len(e.reasons) == 0 {
			continue
		}
		out = append(out, SuppressedFact{
			PipFact: e.fact,
			Reasons: slices.Sorted(maps.Keys(e.reasons)),
		})
	}
	return out
}

// record adds one line's fact, enforcing the one-pip-one-endpoint-pair invariant.
func (t *FactTable) record(fact observation.PipFact, source string, line int) error {
	e, ok := t.facts[fact.Name]
	if !ok {
		e = &factEntry{
			fact:    fact,
			source:  source,
			line:    line,
			reasons: make(map[string]struct{}),
		}
		t.facts[fact.Name] = e
	} else if !e.fact.SameEndpoints(fact) {
		return &observation.InconsistentFactError{
			Subject: "pip",
			Name:    fact.Name,
			Have:    fmt.Sprintf("(%s, %s) at %s:%d", e.fact.Src, e.fact.Dst, e.source, e.line),
			Got:     fmt.Sprintf("(%s, %s)", fact.Src, fact.Dst),
			Source:  source,
			Line:    line,
		}
	}

	// Suppression is judged per line: one suppressing line is enough.
	if t.suppressor != nil {
		for _, reason := range t.suppressor.Suppress(fact) {
			e.reasons[reason] = struct{}{}
		}
	}
	return nil
}

// Read streams one design's connectivity log into the table and returns the
// design's per-tile activity. Any malformed line or inconsistent fact aborts.
func (t *FactTable) Read(r io.Reader, source, design string) (*Design, error) {
	d := NewDesign(design)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		tile, fact, err := parseLine(text, source, lineNo)
		if err != nil {
			return nil, err
		}
		if err := t.record(fact, source, lineNo); err != nil {
			return nil, err
		}
		d.activate(tile, fact)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	return d, nil
}

func parseLine(text, source string, lineNo int) (string, observation.PipFact, error) {
	malformed := func(reason string) error {
		return &observation.MalformedInputError{Source: source, Line: lineNo, Text: text, Reason: reason}
	}

	rec, err := lineParser.ParseString("", text)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return "", observation.PipFact{}, malformed(fmt.Sprintf("column %d: %s", perr.Position().Column, perr.Message()))
		}
		return "", observation.PipFact{}, malformed(err.Error())
	}

	multiplicity, err := count(rec.Multiplicity)
	if err != nil {
		return "", observation.PipFact{}, malformed(fmt.Sprintf("multiplicity %q is not a non-negative integer", rec.Multiplicity))
	}
	directional, err := count(rec.Directional)
	if err != nil {
		return "", observation.PipFact{}, malformed(fmt.Sprintf("directional flag %q is not a non-negative integer", rec.Directional))
	}

	pip, ok := trailing(rec.Pip, ".")
	if !ok {
		return "", observation.PipFact{}, malformed(fmt.Sprintf("pip %q is not of the form <tile>.<pip>", rec.Pip))
	}
	src, ok := trailing(rec.Src, "/")
	if !ok {
		return "", observation.PipFact{}, malformed(fmt.Sprintf("source %q is not of the form <tile>/<wire>", rec.Src))
	}
	dst, ok := trailing(rec.Dst, "/")
	if !ok {
		return "", observation.PipFact{}, malformed(fmt.Sprintf("destination %q is not of the form <tile>/<wire>", rec.Dst))
	}

	fact := observation.PipFact{
		Name:         pip,
		Src:          src,
		Dst:          dst,
		Multiplicity: multiplicity,
		Directional:  directional != 0,
	}
	return rec.Tile, fact, nil
}

// count parses an unsigned decimal column. Signs are rejected.
func count(s string) (int, error) {
	n, err := strconv.ParseUint(s, 10, 31)
	return int(n), err
}

// trailing returns the component after the single namespace separator sep.
func trailing(qualified, sep string) (string, bool) {
	prefix, name, ok := strings.Cut(qualified, sep)
	if !ok || prefix == "" || name == "" || strings.Contains(name, sep) {
		return "", false
	}
	return name, true
}
