package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects printer output into buffers for the duration of a test.
func capture(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	origOut, origErr, origNoColor := Stdout, Stderr, color.NoColor
	Stdout, Stderr, color.NoColor = stdout, stderr, true
	t.Cleanup(func() {
		Stdout, Stderr, color.NoColor = origOut, origErr, origNoColor
	})
	return stdout, stderr
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		_, stderr := capture(t)
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		assert.Equal(t, "Test Error\n\nThis is a test error\n", stderr.String())
	})

	t.Run("single suggestion printed plainly", func(t *testing.T) {
		_, stderr := capture(t)
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, stderr.String(), "\nTry this fix\n")
		assert.NotContains(t, stderr.String(), "Either:")
	})

	t.Run("multiple suggestions numbered", func(t *testing.T) {
		_, stderr := capture(t)
		err := Error("Test Error", "Explanation", []string{"First option", "Second option"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, stderr.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext_SortedKeys(t *testing.T) {
	_, stderr := capture(t)
	context := map[string]string{
		"Line":   "12",
		"Source": "specimen_003/design.txt",
		"Design": "specimen_003",
	}
	err := ErrorWithContext("Malformed input", "", context, nil)
	require.Equal(t, "Malformed input", err.Error())
	assert.Equal(t, "Malformed input\n\n\n  Design: specimen_003\n  Line: 12\n  Source: specimen_003/design.txt\n", stderr.String())
}

func TestTable(t *testing.T) {
	stdout, _ := capture(t)
	Table([]string{"NAME", "ENDPOINT"}, [][]string{{"long-line-clock-src", "src"}, {"ctrl", "dst"}})
	assert.Equal(t, "NAME                 ENDPOINT\nlong-line-clock-src  src\nctrl                 dst\n", stdout.String())
}

func TestPrintSummary(t *testing.T) {
	stdout, _ := capture(t)
	PrintSummary(Summary{
		RunID:      "run-1",
		Designs:    2,
		Trials:     40,
		Suppressed: 3,
		Solved:     7,
		Unsolved:   map[string]int{"never-active": 1, "default-unconstrained": 2},
		Files:      []string{"out/segbits.csv"},
	})

	out := stdout.String()
	assert.Contains(t, out, "Run run-1\n")
	assert.Contains(t, out, "  solved:      7 tags\n")
	assert.Contains(t, out, "  unsolved:    3 tags\n")
	assert.Less(t, bytes.Index(stdout.Bytes(), []byte("default-unconstrained")), bytes.Index(stdout.Bytes(), []byte("never-active")))
	assert.Contains(t, out, "  conflicts:   0\n")
	assert.Contains(t, out, "✓ Wrote out/segbits.csv\n")
}
