package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/segmaker/internal/params"
	"github.com/dyluth/segmaker/internal/pipeline"
	"github.com/dyluth/segmaker/internal/printer"
	"github.com/spf13/cobra"
)

var paramsInPlace bool

var paramsCmd = &cobra.Command{
	Use:   "params FILE",
	Short: "Validate and normalize an experiment parameter table",
	Long: `Validate a params.csv (header tile,val,site) and print it sorted by tile.

With --in-place the file is rewritten in its normalized form, so tables
produced by different fuzzer scripts diff cleanly.`,
	Args: cobra.ExactArgs(1),
	RunE: runParams,
}

func init() {
	paramsCmd.Flags().BoolVar(&paramsInPlace, "in-place", false, "Rewrite FILE instead of printing")
	rootCmd.AddCommand(paramsCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	rows, err := params.Read(f, path)
	f.Close()
	if err != nil {
		return printer.ErrorWithContext("Invalid parameter table", err.Error(), map[string]string{"File": path}, nil)
	}

	var buf bytes.Buffer
	if err := params.Write(&buf, rows); err != nil {
		return err
	}

	if !paramsInPlace {
		printer.Printf("%s", buf.String())
		return nil
	}

	file := pipeline.File{Name: filepath.Base(path), Data: buf.Bytes()}
	if _, err := pipeline.WriteFiles(filepath.Dir(path), []pipeline.File{file}); err != nil {
		return err
	}
	printer.Success("Normalized %s (%d rows)\n", path, len(rows))
	return nil
}
