// Package params handles the experiment parameter table: which value a
// parameterized site was built with in one design.
//
//	tile,val,site
//	CMT_TOP_L_UPPER_T_X106Y44,3,PLLE2_ADV_X1Y0
//
// The table is written sorted by tile with a fixed header, and configured
// parameter rules turn it into observations.
package params

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dyluth/segmaker/pkg/observation"
)

// Header is the fixed header row of a parameter table.
var Header = []string{"tile", "val", "site"}

// Row is one tile instance participating in an experiment.
type Row struct {
	Tile string `json:"tile"`
	Val  string `json:"val"`
	Site string `json:"site"`
}

// Read parses a parameter table. Tiles must be unique.
func Read(r io.Reader, source string) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &observation.MalformedInputError{Source: source, Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, malformedCSV(source, err)
	}
	if !slices.Equal(header, Header) {
		return nil, &observation.MalformedInputError{
			Source: source,
			Line:   1,
			Text:   strings.Join(header, ","),
			Reason: fmt.Sprintf("expected header %q", strings.Join(Header, ",")),
		}
	}

	var rows []Row
	seen := make(map[string]struct{})
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformedCSV(source, err)
		}
		line, _ := cr.FieldPos(0)
		if rec[0] == "" {
			return nil, &observation.MalformedInputError{Source: source, Line: line, Text: strings.Join(rec, ","), Reason: "tile is required"}
		}
		if _, dup := seen[rec[0]]; dup {
			return nil, &observation.MalformedInputError{Source: source, Line: line, Text: strings.Join(rec, ","), Reason: fmt.Sprintf("tile '%s' listed twice", rec[0])}
		}
		seen[rec[0]] = struct{}{}
		rows = append(rows, Row{Tile: rec[0], Val: rec[1], Site: rec[2]})
	}

	return rows, nil
}

func malformedCSV(source string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &observation.MalformedInputError{Source: source, Line: perr.Line, Reason: perr.Err.Error()}
	}
	return fmt.Errorf("failed to read %s: %w", source, err)
}

// Write emits the header and rows sorted by tile.
func Write(w io.Writer, rows []Row) error {
	sorted := slices.Clone(rows)
	slices.SortFunc(sorted, func(a, b Row) int { return strings.Compare(a.Tile, b.Tile) })

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write parameter header: %w", err)
	}
	for _, r := range sorted {
		if err := cw.Write([]string{r.Tile, r.Val, r.Site}); err != nil {
			return fmt.Errorf("failed to write parameter row for %s: %w", r.Tile, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Rule turns a parameter value into a tag: the tag is active when val equals Equals.
type Rule struct {
	Tag    string `yaml:"tag"`
	Equals string `yaml:"equals"`
}

// Validate checks if the Rule has valid field values.
func (r Rule) Validate() error {
	if r.Tag == "" {
		return fmt.Errorf("param tag: tag is required")
	}
	if r.Equals == "" {
		return fmt.Errorf("param tag '%s': equals is required", r.Tag)
	}
	return nil
}

// Labels returns, per tile, the (tag, label) pairs every rule derives from rows.
func Labels(rows []Row, rules []Rule) map[string]map[string]bool {
	if len(rules) == 0 {
		return nil
	}
	out := make(map[string]map[string]bool, len(rows))
	for _, row := range rows {
		labels := make(map[string]bool, len(rules))
		for _, rule := range rules {
			labels[rule.Tag] = labels[rule.Tag] || row.Val == rule.Equals
		}
		out[row.Tile] = labels
	}
	return out
}
