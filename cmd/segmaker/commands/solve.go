package commands

import (
	"fmt"
	"path/filepath"

	"github.com/dyluth/segmaker/internal/metrics"
	"github.com/dyluth/segmaker/internal/pipeline"
	"github.com/dyluth/segmaker/internal/printer"
	"github.com/dyluth/segmaker/internal/specimen"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	solveOutDir        string
	solveWorkers       int
	solveAllowInverted bool
	solveMetricsFile   string
)

var solveCmd = &cobra.Command{
	Use:   "solve [PATTERN...]",
	Short: "Solve the bit database from a set of specimens",
	Long: `Solve the tag → bit database from the specimens of a fuzzer run.

Each PATTERN is a glob (doublestar syntax, '**' allowed) matching specimen
directories. Every specimen directory holds:
  design.txt   connectivity log of the design
  design.bits  per-tile set bits extracted from the bitstream
  params.csv   optional experiment parameters (tile,val,site)

Without patterns, the 'inputs' of segmaker.yml are used.

Outputs (names configurable in segmaker.yml):
  segbits.csv     tile_type,tag,FF_BB:P ... for every confidently solved tag
  unsolved.csv    tags without a confident mapping, with the reason
  conflicts.csv   solved tags claiming opposite polarity on one bit
  suppressed.csv  pips excluded by the suppression rule table

Nothing is written when any input is malformed or inconsistent.

Examples:
  # Solve every specimen of a run
  segmaker solve 'build/specimen_*'

  # Write into another directory and export metrics
  segmaker solve 'build/**/specimen_*' --out db --metrics-file segmaker.prom`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveOutDir, "out", "o", "", "Output directory (default: output.dir from config)")
	solveCmd.Flags().IntVarP(&solveWorkers, "workers", "j", 0, "Parallel solver workers (default: solver.workers from config)")
	solveCmd.Flags().BoolVar(&solveAllowInverted, "allow-inverted", false, "Accept polarity-0 solutions")
	solveCmd.Flags().StringVar(&solveMetricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return printer.ErrorWithContext(
			"Invalid configuration",
			err.Error(),
			map[string]string{"Config": configPath},
			[]string{"Run 'segmaker init' to create a default segmaker.yml"},
		)
	}

	// Flags override the config file
	if cmd.Flags().Changed("out") {
		cfg.Output.Dir = solveOutDir
	}
	if cmd.Flags().Changed("workers") {
		if solveWorkers < 0 {
			return fmt.Errorf("--workers must be >= 0, got %d", solveWorkers)
		}
		cfg.Solver.Workers = &solveWorkers
	}
	if cmd.Flags().Changed("allow-inverted") {
		cfg.Solver.AllowInverted = solveAllowInverted
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Inputs
	}
	if len(patterns) == 0 {
		return printer.Error(
			"No specimens given",
			"segmaker solve needs at least one specimen pattern.",
			[]string{
				"Pass patterns on the command line: segmaker solve 'build/specimen_*'",
				"Set 'inputs' in segmaker.yml",
			},
		)
	}

	specimens, err := specimen.Discover(patterns)
	if err != nil {
		return printer.ErrorWithContext("Specimen discovery failed", err.Error(), nil, nil)
	}

	runID := uuid.NewString()
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.RunID = runID
	opts.Logger = logger
	var recorder *metrics.Recorder
	if solveMetricsFile != "" {
		recorder = metrics.NewRecorder(runID)
		opts.Metrics = recorder
	}

	inputs := make([]pipeline.Input, len(specimens))
	for i, s := range specimens {
		inputs[i] = s
	}

	printer.Step("Solving %d specimens...\n", len(specimens))
	report, err := pipeline.NewEngine(opts).Run(cmd.Context(), inputs)
	if err != nil {
		if pipeline.IsInputError(err) {
			return printer.ErrorWithContext(
				"Solve aborted: bad input",
				err.Error(),
				map[string]string{"Run": runID, "Specimens": fmt.Sprintf("%d", len(specimens))},
				[]string{"No output was written. Fix or remove the offending specimen and rerun."},
			)
		}
		return fmt.Errorf("solve failed: %w", err)
	}

	files, err := report.Render(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to render outputs: %w", err)
	}
	paths, err := pipeline.WriteFiles(cfg.Output.Dir, files)
	if err != nil {
		return fmt.Errorf("failed to write outputs: %w", err)
	}

	if recorder != nil {
		if err := recorder.WriteTextfile(solveMetricsFile); err != nil {
			return err
		}
		paths = append(paths, filepath.Clean(solveMetricsFile))
	}

	logger.Info("Wrote outputs", zap.String("run_id", runID), zap.Strings("files", paths))

	printer.PrintSummary(printer.Summary{
		RunID:      runID,
		Designs:    report.Designs,
		Trials:     report.Trials,
		Suppressed: len(report.Suppressed),
		Solved:     report.DatabaseSize(),
		Unsolved:   report.UnsolvedByReason(),
		Conflicts:  len(report.Result.Conflicts),
		Files:      paths,
	})
	return nil
}
