package commands

import (
	"github.com/dyluth/segmaker/internal/policy"
	"github.com/dyluth/segmaker/internal/printer"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the active suppression rule table",
	Long: `Show every rule that can suppress a pip, in evaluation order.

A suppressed pip never produces an observation. The two built-in checks
(multiplicity-one, bidirectional) always apply; pattern rules come from the
built-in table plus the 'suppression' section of segmaker.yml.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return printer.ErrorWithContext("Invalid configuration", err.Error(), map[string]string{"Config": configPath}, nil)
	}
	table, err := cfg.RuleTable()
	if err != nil {
		return err
	}

	rows := [][]string{
		{policy.ReasonMultiplicityOne, "-", "multiplicity == 1", "destination has a single possible driver"},
		{policy.ReasonBidirectional, "-", "directional == 0", "pip can drive either end"},
	}
	for _, r := range table.Rules() {
		rows = append(rows, []string{r.Name, string(r.Endpoint), r.Pattern.String(), r.Description})
	}
	printer.Table([]string{"NAME", "ENDPOINT", "MATCH", "DESCRIPTION"}, rows)
	return nil
}
