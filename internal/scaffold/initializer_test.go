package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/segmaker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		force     bool
		setupFunc func(string)
	}{
		{
			name:      "fresh initialization",
			setupFunc: func(dir string) {},
		},
		{
			name:  "force initialization replaces existing config",
			force: true,
			setupFunc: func(dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("old content"), 0644))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setupFunc(dir)

			require.NoError(t, Initialize(dir, tt.force))

			cfg, err := config.Load(filepath.Join(dir, config.FileName))
			require.NoError(t, err)
			assert.Equal(t, []string{"build/specimen_*"}, cfg.Inputs)
			assert.Equal(t, "build", cfg.Output.Dir)
			assert.Equal(t, "segbits.csv", cfg.Output.Database)

			table, err := cfg.RuleTable()
			require.NoError(t, err)
			assert.Len(t, table.Rules(), 3, "the generated config keeps every built-in rule")

			info, err := os.Stat(filepath.Join(dir, SpecimensDir, "README.md"))
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
		})
	}
}

func TestInitialize_OverwritesWithoutForce(t *testing.T) {
	// CheckExisting guards the command; Initialize itself always writes
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("old content"), 0644))

	require.NoError(t, Initialize(dir, false))
	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `version: "1.0"`)
}

func TestGetTemplateFiles(t *testing.T) {
	files, err := getTemplateFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, config.FileName, files[0].Path)
	assert.NotEmpty(t, files[0].Content)
	assert.Equal(t, filepath.Join(SpecimensDir, "README.md"), files[1].Path)
}
