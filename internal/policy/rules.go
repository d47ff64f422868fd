// Package policy decides which tags a tile instance contributes to the corpus.
//
// Suppression is an explicit rule table: a pip that any rule matches never
// produces an observation. The built-in rules reproduce the known net classes
// that use shared, non one-hot encodings; more rules can be appended from
// configuration, and every rule has a name so suppression can be audited.
package policy

import (
	"fmt"
	"regexp"

	"github.com/dyluth/segmaker/pkg/observation"
)

// Endpoint selects which end of a pip a pattern rule is matched against.
type Endpoint string

const (
	// EndpointSrc matches the source wire
	EndpointSrc Endpoint = "src"

	// EndpointDst matches the destination wire
	EndpointDst Endpoint = "dst"
)

// Validate checks if the Endpoint is a valid enum value.
func (e Endpoint) Validate() error {
	if e != EndpointSrc && e != EndpointDst {
		return fmt.Errorf("invalid endpoint: %s (must be 'src' or 'dst')", e)
	}
	return nil
}

// Built-in reasons that are not pattern rules.
const (
	ReasonMultiplicityOne = "multiplicity-one"
	ReasonBidirectional   = "bidirectional"
)

// Rule suppresses pips whose endpoint wire matches Pattern.
type Rule struct {
	Name        string
	Endpoint    Endpoint
	Pattern     *regexp.Regexp
	Description string
}

// Matches reports whether the rule applies to fact.
func (r Rule) Matches(fact observation.PipFact) bool {
	wire := fact.Src
	if r.Endpoint == EndpointDst {
		wire = fact.Dst
	}
	return r.Pattern.MatchString(wire)
}

// NewRule compiles a pattern rule.
func NewRule(name string, endpoint Endpoint, pattern, description string) (Rule, error) {
	if name == "" {
		return Rule{}, fmt.Errorf("rule name is required")
	}
	if name == ReasonMultiplicityOne || name == ReasonBidirectional {
		return Rule{}, fmt.Errorf("rule name '%s' is reserved", name)
	}
	if err := endpoint.Validate(); err != nil {
		return Rule{}, fmt.Errorf("rule '%s': %w", name, err)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule '%s': invalid pattern: %w", name, err)
	}
	return Rule{Name: name, Endpoint: endpoint, Pattern: re, Description: description}, nil
}

// Long lines, global clocks and control fan nets share bits between pips.
const (
	longLineOrClock = `^(L[HV]B?|G?CLK)(_L)?(_B)?[0-9]`
	ctrlOrGfan      = `^(CTRL|GFAN)(_L)?[0-9]`
)

// DefaultRules returns the built-in pattern rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "long-line-clock-src",
			Endpoint:    EndpointSrc,
			Pattern:     regexp.MustCompile(longLineOrClock),
			Description: "source is a long line or clock net",
		},
		{
			Name:        "long-line-clock-dst",
			Endpoint:    EndpointDst,
			Pattern:     regexp.MustCompile(longLineOrClock),
			Description: "destination is a long line or clock net",
		},
		{
			Name:        "ctrl-gfan-dst",
			Endpoint:    EndpointDst,
			Pattern:     regexp.MustCompile(ctrlOrGfan),
			Description: "destination is a control or global fan net",
		},
	}
}

// RuleTable is the complete suppression policy of a run.
type RuleTable struct {
	rules []Rule
}

// NewRuleTable builds a table of the default rules followed by extra.
func NewRuleTable(extra ...Rule) *RuleTable {
	return &RuleTable{rules: append(DefaultRules(), extra...)}
}

// Rules returns the pattern rules in evaluation order.
func (t *RuleTable) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Suppress returns the name of every rule suppressing fact, or nil.
func (t *RuleTable) Suppress(fact observation.PipFact) []string {
	var reasons []string
	if fact.Multiplicity == 1 {
		reasons = append(reasons, ReasonMultiplicityOne)
	}
	if !fact.Directional {
		reasons = append(reasons, ReasonBidirectional)
	}
	for _, r := range t.rules {
		if r.Matches(fact) {
			reasons = append(reasons, r.Name)
		}
	}
	return reasons
}

// Without returns a copy of the table with the named pattern rules removed.
// The built-in multiplicity and direction checks can not be removed.
func (t *RuleTable) Without(names ...string) (*RuleTable, error) {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	kept := make([]Rule, 0, len(t.rules))
	for _, r := range t.rules {
		if drop[r.Name] {
			delete(drop, r.Name)
			continue
		}
		kept = append(kept, r)
	}
	for _, name := range names {
		if drop[name] {
			return nil, fmt.Errorf("cannot disable unknown rule '%s'", name)
		}
	}
	return &RuleTable{rules: kept}, nil
}
