package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/segmaker/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version string
	commit  string
	date    string

	configPath string
	verbose    bool

	// logger is built in PersistentPreRunE for every command
	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "segmaker",
	Short: "segmaker - correlate bitstream bits with design features",
	Long: `segmaker reverse-engineers the bit-level encoding of an FPGA configuration
bitstream. It reads the specimens of a fuzzer run (one randomized design each),
derives which routing features (tags) are active on every tile, and solves for
the configuration bits that explain each tag across the whole corpus.

The result is a sorted bit database plus diagnostics for every tag that could
not be explained.`,
	Version: version,
	// If no subcommand is specified, show help
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// newLogger builds the CLI logger: JSON to stderr, warnings only unless verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
	rootCmd.SetVersionTemplate("segmaker {{.Version}}\nFPGA bitstream tag/bit correlation solver\n")
}

// loadConfig loads the --config file. The default path may be absent, in
// which case built-in defaults apply; an explicitly given path must exist.
func loadConfig(cmd *cobra.Command) (*config.SegmakerConfig, error) {
	return config.LoadOrDefault(configPath, cmd.Flags().Changed("config"))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", config.FileName, "Path to segmaker.yml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
