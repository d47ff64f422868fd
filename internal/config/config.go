package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/segmaker/internal/params"
	"github.com/dyluth/segmaker/internal/policy"
	"gopkg.in/yaml.v3"
)

// FileName is the conventional config file name looked up in the working directory
const FileName = "segmaker.yml"

// SegmakerConfig represents the top-level segmaker.yml configuration
type SegmakerConfig struct {
	Version     string             `yaml:"version"`
	Inputs      []string           `yaml:"inputs,omitempty"` // Specimen directory patterns, used when none are given on the command line
	Suppression *SuppressionConfig `yaml:"suppression,omitempty"`
	Solver      *SolverConfig      `yaml:"solver,omitempty"`
	ParamTags   []params.Rule      `yaml:"param_tags,omitempty"`
	Output      *OutputConfig      `yaml:"output,omitempty"`
}

// SuppressionConfig extends or trims the built-in suppression rule table
type SuppressionConfig struct {
	Disable []string     `yaml:"disable,omitempty"` // Names of built-in pattern rules to turn off
	Rules   []RuleConfig `yaml:"rules,omitempty"`
}

// RuleConfig is one extra pattern rule
type RuleConfig struct {
	Name        string `yaml:"name"`
	Endpoint    string `yaml:"endpoint"` // "src" or "dst"
	Pattern     string `yaml:"pattern"`
	Description string `yaml:"description,omitempty"`
}

// SolverConfig tunes the correlation solver
type SolverConfig struct {
	Workers       *int  `yaml:"workers,omitempty"` // 0 = one per CPU (default)
	AllowInverted bool  `yaml:"allow_inverted,omitempty"`
	IgnoreFrames  []int `yaml:"ignore_frames,omitempty"`
}

// OutputConfig names the files written by a solve
type OutputConfig struct {
	Dir        string `yaml:"dir,omitempty"`
	Database   string `yaml:"database,omitempty"`
	Unsolved   string `yaml:"unsolved,omitempty"`
	Conflicts  string `yaml:"conflicts,omitempty"`
	Suppressed string `yaml:"suppressed,omitempty"`
}

// Default returns the configuration used when no segmaker.yml exists.
func Default() *SegmakerConfig {
	c := &SegmakerConfig{Version: "1.0"}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return c
}

// Validate performs strict validation on the configuration and fills in defaults
func (c *SegmakerConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	for _, pattern := range c.Inputs {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("inputs: empty pattern")
		}
	}

	if c.Suppression == nil {
		c.Suppression = &SuppressionConfig{}
	}
	if _, err := c.RuleTable(); err != nil {
		return fmt.Errorf("suppression: %w", err)
	}

	// Apply default solver config if missing
	if c.Solver == nil {
		c.Solver = &SolverConfig{}
	}
	if c.Solver.Workers == nil {
		defaultWorkers := 0
		c.Solver.Workers = &defaultWorkers
	}
	if *c.Solver.Workers < 0 {
		return fmt.Errorf("solver.workers must be >= 0 (0 = one per CPU), got %d", *c.Solver.Workers)
	}
	for _, frame := range c.Solver.IgnoreFrames {
		if frame < 0 {
			return fmt.Errorf("solver.ignore_frames: frame must be >= 0, got %d", frame)
		}
	}

	paramTagsSeen := make(map[string]bool)
	for _, rule := range c.ParamTags {
		if err := rule.Validate(); err != nil {
			return err
		}
		if strings.ContainsAny(rule.Tag, ", \t") {
			return fmt.Errorf("param tag '%s': tag must not contain commas or whitespace", rule.Tag)
		}
		if paramTagsSeen[rule.Tag] {
			return fmt.Errorf("duplicate param tag '%s'", rule.Tag)
		}
		paramTagsSeen[rule.Tag] = true
	}

	// Apply default output names
	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	if c.Output.Database == "" {
		c.Output.Database = "segbits.csv"
	}
	if c.Output.Unsolved == "" {
		c.Output.Unsolved = "unsolved.csv"
	}
	if c.Output.Conflicts == "" {
		c.Output.Conflicts = "conflicts.csv"
	}
	if c.Output.Suppressed == "" {
		c.Output.Suppressed = "suppressed.csv"
	}

	namesSeen := make(map[string]string) // file name → field
	for _, f := range []struct{ field, name string }{
		{"database", c.Output.Database},
		{"unsolved", c.Output.Unsolved},
		{"conflicts", c.Output.Conflicts},
		{"suppressed", c.Output.Suppressed},
	} {
		if filepath.Base(f.name) != f.name {
			return fmt.Errorf("output.%s must be a file name, not a path: %s", f.field, f.name)
		}
		if other, exists := namesSeen[f.name]; exists {
			return fmt.Errorf("output.%s and output.%s both write '%s'", other, f.field, f.name)
		}
		namesSeen[f.name] = f.field
	}

	return nil
}

// RuleTable builds the suppression rule table described by the configuration
func (c *SegmakerConfig) RuleTable() (*policy.RuleTable, error) {
	var extra []policy.Rule
	var disable []string
	if c.Suppression != nil {
		disable = c.Suppression.Disable
		for _, rc := range c.Suppression.Rules {
			rule, err := policy.NewRule(rc.Name, policy.Endpoint(rc.Endpoint), rc.Pattern, rc.Description)
			if err != nil {
				return nil, err
			}
			extra = append(extra, rule)
		}
	}

	table := policy.NewRuleTable(extra...)
	namesSeen := make(map[string]bool)
	for _, r := range table.Rules() {
		if namesSeen[r.Name] {
			return nil, fmt.Errorf("duplicate rule name '%s'", r.Name)
		}
		namesSeen[r.Name] = true
	}

	if len(disable) == 0 {
		return table, nil
	}
	return table.Without(disable...)
}

// Load reads and validates segmaker.yml from the specified path
func Load(path string) (*SegmakerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config SegmakerConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path when it exists. A missing file yields Default()
// unless required is set.
func LoadOrDefault(path string, required bool) (*SegmakerConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && !required {
		return Default(), nil
	}
	return Load(path)
}
