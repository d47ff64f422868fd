package connlog

import (
	"errors"
	"strings"
	"testing"

	"github.com/dyluth/segmaker/pkg/observation"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nameSuppressor suppresses by multiplicity only, enough to exercise the table.
type nameSuppressor struct{}

func (nameSuppressor) Suppress(f observation.PipFact) []string {
	if f.Multiplicity == 1 {
		return []string{"multiplicity-one"}
	}
	return nil
}

const sampleLog = `INT_L_X0Y0 INT_L_X0Y0/INT_L.LOGIC_OUTS_L0->>EE2BEG0 INT_L_X0Y0/LOGIC_OUTS_L0 INT_L_X0Y0/EE2BEG0 4 1
INT_L_X0Y0 INT_L_X0Y0/INT_L.GFAN0->>IMUX_L1 INT_L_X0Y0/GFAN0 INT_L_X0Y0/IMUX_L1 1 1

INT_L_X0Y1 INT_L_X0Y1/INT_L.LOGIC_OUTS_L0->>EE2BEG0 INT_L_X0Y1/LOGIC_OUTS_L0 INT_L_X0Y1/EE2BEG0 4 1
INT_L_X0Y1 INT_L_X0Y1/INT_L.WW2END0<->EE2END0 INT_L_X0Y1/WW2END0 INT_L_X0Y1/EE2END0 3 0
`

func TestRead_BuildsFactsAndActivity(t *testing.T) {
	table := NewFactTable(nameSuppressor{})

	d, err := table.Read(strings.NewReader(sampleLog), "design.txt", "specimen_001")
	require.NoError(t, err)

	assert.Equal(t, "specimen_001", d.Name)
	assert.Equal(t, []string{"INT_L_X0Y0", "INT_L_X0Y1"}, d.Tiles())
	assert.Equal(t, 3, table.Len())

	fact, ok := table.Fact("LOGIC_OUTS_L0->>EE2BEG0")
	require.True(t, ok)
	want := observation.PipFact{Name: "LOGIC_OUTS_L0->>EE2BEG0", Src: "LOGIC_OUTS_L0", Dst: "EE2BEG0", Multiplicity: 4, Directional: true}
	if diff := cmp.Diff(want, fact); diff != "" {
		t.Errorf("fact mismatch (-want +got):\n%s", diff)
	}

	tile := d.Tile("INT_L_X0Y0")
	require.NotNil(t, tile)
	assert.True(t, tile.HasPip("LOGIC_OUTS_L0->>EE2BEG0"))
	assert.True(t, tile.Drives("EE2BEG0"))
	assert.False(t, tile.Drives("LOGIC_OUTS_L0"))
	assert.Nil(t, d.Tile("INT_L_X9Y9"))
}

func TestRead_BidirectionalPipDrivesBothEnds(t *testing.T) {
	d, err := NewFactTable(nil).Read(strings.NewReader(sampleLog), "design.txt", "d")
	require.NoError(t, err)

	tile := d.Tile("INT_L_X0Y1")
	require.NotNil(t, tile)
	assert.True(t, tile.Drives("EE2END0"))
	assert.True(t, tile.Drives("WW2END0"))
}

func TestRead_RecordsSuppressionReasons(t *testing.T) {
	table := NewFactTable(nameSuppressor{})
	_, err := table.Read(strings.NewReader(sampleLog), "design.txt", "d")
	require.NoError(t, err)

	assert.True(t, table.IsSuppressed("GFAN0->>IMUX_L1"))
	assert.False(t, table.IsSuppressed("LOGIC_OUTS_L0->>EE2BEG0"))
	assert.False(t, table.IsSuppressed("unknown"))

	suppressed := table.Suppressed()
	require.Len(t, suppressed, 1)
	assert.Equal(t, "GFAN0->>IMUX_L1", suppressed[0].Name)
	assert.Equal(t, []string{"multiplicity-one"}, suppressed[0].Reasons)
}

func TestRead_InconsistentFactAcrossDesigns(t *testing.T) {
	table := NewFactTable(nil)
	_, err := table.Read(strings.NewReader(sampleLog), "a/design.txt", "a")
	require.NoError(t, err)

	conflicting := "INT_L_X1Y0 INT_L_X1Y0/INT_L.LOGIC_OUTS_L0->>EE2BEG0 INT_L_X1Y0/LOGIC_OUTS_L1 INT_L_X1Y0/EE2BEG0 4 1\n"
	_, err = table.Read(strings.NewReader(conflicting), "b/design.txt", "b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, observation.ErrInconsistentFact))

	var inconsistent *observation.InconsistentFactError
	require.True(t, errors.As(err, &inconsistent))
	assert.Equal(t, "LOGIC_OUTS_L0->>EE2BEG0", inconsistent.Name)
	assert.Equal(t, "b/design.txt", inconsistent.Source)
	assert.Equal(t, 1, inconsistent.Line)
	assert.Contains(t, inconsistent.Have, "a/design.txt:1")
}

func TestRead_MalformedLines(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		reason string
	}{
		{name: "too few fields", line: "T T/X.P T/A T/B 2", reason: "column"},
		{name: "too many fields", line: "T T/X.P T/A T/B 2 1 extra", reason: "column"},
		{name: "negative multiplicity", line: "T T/X.P T/A T/B -2 1", reason: "multiplicity"},
		{name: "signed multiplicity", line: "T T/X.P T/A T/B +2 1", reason: "multiplicity"},
		{name: "non-numeric flag", line: "T T/X.P T/A T/B 2 yes", reason: "directional flag"},
		{name: "pip without separator", line: "T PIP T/A T/B 2 1", reason: "<tile>.<pip>"},
		{name: "pip with two separators", line: "T X.Y.Z T/A T/B 2 1", reason: "<tile>.<pip>"},
		{name: "source without separator", line: "T T/X.P A T/B 2 1", reason: "<tile>/<wire>"},
		{name: "destination with empty name", line: "T T/X.P T/A T/ 2 1", reason: "<tile>/<wire>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "INT_L_X0Y0 INT_L_X0Y0/INT_L.A->>B INT_L_X0Y0/A INT_L_X0Y0/B 2 1\n" + tt.line + "\n"
			_, err := NewFactTable(nil).Read(strings.NewReader(input), "design.txt", "d")
			require.Error(t, err)

			var malformed *observation.MalformedInputError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, 2, malformed.Line)
			assert.Equal(t, tt.line, malformed.Text)
			assert.Contains(t, malformed.Reason, tt.reason)
		})
	}
}

func TestRead_DigitLeadingNames(t *testing.T) {
	const line = "0X1 0X1/9INT.4A->>2B 0X1/4A 0X1/2B 2 1\n"
	table := NewFactTable(nil)
	d, err := table.Read(strings.NewReader(line), "design.txt", "d")
	require.NoError(t, err)

	assert.Equal(t, []string{"0X1"}, d.Tiles())
	activity := d.Tile("0X1")
	require.NotNil(t, activity)
	assert.True(t, activity.HasPip("4A->>2B"))
	assert.True(t, activity.Drives("2B"))

	fact, ok := table.Fact("4A->>2B")
	require.True(t, ok)
	assert.Equal(t, observation.PipFact{Name: "4A->>2B", Src: "4A", Dst: "2B", Multiplicity: 2, Directional: true}, fact)
}

func TestFacts_SortedByName(t *testing.T) {
	table := NewFactTable(nil)
	_, err := table.Read(strings.NewReader(sampleLog), "design.txt", "d")
	require.NoError(t, err)

	var names []string
	for _, f := range table.Facts() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"GFAN0->>IMUX_L1", "LOGIC_OUTS_L0->>EE2BEG0", "WW2END0<->EE2END0"}, names)
}
