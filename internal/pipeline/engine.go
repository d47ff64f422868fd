// Package pipeline drives one solve run: it loads every design, applies the
// tag selection policy, accumulates observations and solves them.
//
// Stages run strictly one after another and each consumes the complete output
// of the previous one. Any fatal input error aborts the run before the solver
// starts, so a failed run never produces partial output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dyluth/segmaker/internal/accumulator"
	"github.com/dyluth/segmaker/internal/bitsrc"
	"github.com/dyluth/segmaker/internal/config"
	"github.com/dyluth/segmaker/internal/connlog"
	"github.com/dyluth/segmaker/internal/metrics"
	"github.com/dyluth/segmaker/internal/params"
	"github.com/dyluth/segmaker/internal/policy"
	"github.com/dyluth/segmaker/internal/solver"
	"github.com/dyluth/segmaker/pkg/observation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Input is the raw evidence of one design.
type Input interface {
	Design() string
	OpenLog() (io.ReadCloser, error)
	OpenBits() (io.ReadCloser, error)
	// OpenParams returns nil, nil when the design has no parameter table.
	OpenParams() (io.ReadCloser, error)
}

// Options configures an Engine.
type Options struct {
	RunID     string // generated when empty
	Rules     *policy.RuleTable
	ParamTags []params.Rule
	Solver    solver.Options
	Logger    *zap.Logger
	Metrics   *metrics.Recorder // optional
}

// OptionsFromConfig derives engine options from a validated configuration.
func OptionsFromConfig(cfg *config.SegmakerConfig) (Options, error) {
	rules, err := cfg.RuleTable()
	if err != nil {
		return Options{}, fmt.Errorf("failed to build rule table: %w", err)
	}
	return Options{
		Rules:     rules,
		ParamTags: cfg.ParamTags,
		Solver: solver.Options{
			Workers:       *cfg.Solver.Workers,
			AllowInverted: cfg.Solver.AllowInverted,
			IgnoreFrames:  cfg.Solver.IgnoreFrames,
		},
	}, nil
}

// Report is the complete outcome of a run.
type Report struct {
	RunID        string
	Designs      int
	Trials       int
	Observations int
	Suppressed   []connlog.SuppressedFact
	Result       *solver.Result
	Duration     time.Duration
}

// Engine runs the policy → accumulator → solver stages over a corpus.
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// NewEngine creates an engine. Missing rules default to the built-in table.
func NewEngine(opts Options) *Engine {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Rules == nil {
		opts.Rules = policy.NewRuleTable()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", opts.RunID))
	opts.Solver.Logger = logger

	return &Engine{opts: opts, logger: logger}
}

// RunID returns the identity of the engine's run.
func (e *Engine) RunID() string {
	return e.opts.RunID
}

// loaded is one design after ingestion.
type loaded struct {
	name   string
	design *connlog.Design
	bits   bitsrc.Design
	params map[string]map[string]bool // tile → param tag → label
}

// Run solves the corpus made of inputs.
func (e *Engine) Run(ctx context.Context, inputs []Input) (*Report, error) {
	start := time.Now()

	ordered := slices.Clone(inputs)
	slices.SortFunc(ordered, func(a, b Input) int { return strings.Compare(a.Design(), b.Design()) })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Design() == ordered[i-1].Design() {
			return nil, fmt.Errorf("design '%s' given twice", ordered[i].Design())
		}
	}

	e.logger.Info("Starting run", zap.Int("designs", len(ordered)), zap.Int("rules", len(e.opts.Rules.Rules())))

	// Stage 1: ingest every design against the shared fact table and type index
	facts := connlog.NewFactTable(e.opts.Rules)
	types := bitsrc.NewTypeIndex()
	designs := make([]loaded, 0, len(ordered))
	for _, in := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run interrupted: %w", err)
		}
		l, err := e.load(in, facts, types)
		if err != nil {
			return nil, err
		}
		designs = append(designs, l)
		if e.opts.Metrics != nil {
			e.opts.Metrics.Designs.Inc()
		}
	}

	// Stage 2: selection policy into the accumulator
	connDesigns := make([]*connlog.Design, len(designs))
	for i, l := range designs {
		connDesigns[i] = l.design
	}
	selector := policy.NewSelector(facts, connDesigns, types.TypeOf)

	acc := accumulator.New()
	ones, zeros := 0, 0
	for _, l := range designs {
		for _, tile := range tilesOf(l) {
			obs, err := e.observe(selector, l, tile)
			if err != nil {
				return nil, err
			}
			for _, o := range obs {
				if o.Active {
					ones++
				} else {
					zeros++
				}
			}
			if err := acc.AddTrial(l.bits[tile].Bits, obs); err != nil {
				return nil, fmt.Errorf("failed to accumulate %s/%s: %w", l.name, tile, err)
			}
		}
	}

	suppressed := facts.Suppressed()
	e.logger.Info("Accumulated observations",
		zap.Int("pips", facts.Len()),
		zap.Int("suppressed", len(suppressed)),
		zap.Int("tile_types", len(selector.TileTypes())),
		zap.Int("groups", acc.Len()),
		zap.Int("trials", acc.Trials()),
		zap.Int("observations", acc.Observations()))

	// Stage 3: solve
	result, err := solver.Solve(ctx, acc.Groups(), e.opts.Solver)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:        e.opts.RunID,
		Designs:      len(designs),
		Trials:       acc.Trials(),
		Observations: acc.Observations(),
		Suppressed:   suppressed,
		Result:       result,
		Duration:     time.Since(start),
	}

	if m := e.opts.Metrics; m != nil {
		m.Observations.WithLabelValues("1").Add(float64(ones))
		m.Observations.WithLabelValues("0").Add(float64(zeros))
		m.Suppressed.Set(float64(len(suppressed)))
		m.Solved.Set(float64(report.DatabaseSize()))
		for reason, n := range report.UnsolvedByReason() {
			m.Unsolved.WithLabelValues(reason).Set(float64(n))
		}
		m.Conflicts.Set(float64(len(result.Conflicts)))
		m.Duration.Set(report.Duration.Seconds())
	}

	if len(result.Conflicts) > 0 {
		e.logger.Warn("Polarity conflicts found", zap.Int("conflicts", len(result.Conflicts)))
	}
	e.logger.Info("Run complete",
		zap.Int("solved", report.DatabaseSize()),
		zap.Int("unsolved", len(result.Unsolved)),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// load reads the connectivity log, bits and optional parameters of one design.
func (e *Engine) load(in Input, facts *connlog.FactTable, types *bitsrc.TypeIndex) (loaded, error) {
	name := in.Design()
	logSource := name + "/design.txt"
	bitsSource := name + "/design.bits"
	paramsSource := name + "/params.csv"

	design, err := readWith(in.OpenLog, logSource, func(r io.Reader) (*connlog.Design, error) {
		return facts.Read(r, logSource, name)
	})
	if err != nil {
		return loaded{}, err
	}

	bits, err := readWith(in.OpenBits, bitsSource, func(r io.Reader) (bitsrc.Design, error) {
		return bitsrc.Read(r, bitsSource)
	})
	if err != nil {
		return loaded{}, err
	}
	if err := types.Add(bits, bitsSource); err != nil {
		return loaded{}, err
	}

	for _, tile := range design.Tiles() {
		if _, ok := bits[tile]; !ok {
			return loaded{}, &observation.MalformedInputError{
				Source: logSource,
				Text:   tile,
				Reason: fmt.Sprintf("tile has no entry in %s", bitsSource),
			}
		}
	}

	l := loaded{name: name, design: design, bits: bits}
	e.logger.Debug("Loaded design",
		zap.String("design", name),
		zap.Int("tiles", len(bits)),
		zap.Int("active_tiles", len(design.Tiles())))

	if len(e.opts.ParamTags) == 0 {
		return l, nil
	}
	rc, err := in.OpenParams()
	if err != nil {
		return loaded{}, fmt.Errorf("failed to open %s: %w", paramsSource, err)
	}
	if rc == nil {
		return l, nil
	}
	rows, err := params.Read(rc, paramsSource)
	rc.Close()
	if err != nil {
		return loaded{}, err
	}
	for _, row := range rows {
		if _, ok := bits[row.Tile]; !ok {
			return loaded{}, &observation.MalformedInputError{
				Source: paramsSource,
				Text:   row.Tile,
				Reason: fmt.Sprintf("tile has no entry in %s", bitsSource),
			}
		}
	}
	l.params = params.Labels(rows, e.opts.ParamTags)
	e.logger.Debug("Loaded parameters", zap.String("design", name), zap.Int("rows", len(rows)))

	return l, nil
}

func readWith[T any](open func() (io.ReadCloser, error), source string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := open()
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", source, err)
	}
	if rc == nil {
		return zero, fmt.Errorf("failed to open %s: no data", source)
	}
	defer rc.Close()
	return read(rc)
}

// tilesOf returns every tile of a design that contributes a trial, sorted.
func tilesOf(l loaded) []string {
	tiles := l.design.Tiles()
	for tile := range l.params {
		if l.design.Tile(tile) == nil {
			tiles = append(tiles, tile)
		}
	}
	slices.Sort(tiles)
	return tiles
}

// observe combines the pip and parameter observations of one tile.
func (e *Engine) observe(selector *policy.Selector, l loaded, tile string) ([]observation.Observation, error) {
	tileType := l.bits[tile].TileType

	var obs []observation.Observation
	if activity := l.design.Tile(tile); activity != nil {
		obs = selector.Select(l.name, tile, tileType, activity)
	}

	labels := l.params[tile]
	if len(labels) == 0 {
		return obs, nil
	}
	paramTags := make([]string, 0, len(labels))
	for tag := range labels {
		if selector.HasTag(tileType, tag) {
			return nil, fmt.Errorf("param tag '%s' collides with a pip tag of %s on %s/%s: %w",
				tag, tileType, l.name, tile, observation.ErrInconsistentFact)
		}
		paramTags = append(paramTags, tag)
	}
	slices.Sort(paramTags)
	for _, tag := range paramTags {
		obs = append(obs, observation.Observation{
			Design:   l.name,
			Tile:     tile,
			TileType: tileType,
			Tag:      tag,
			Active:   labels[tag],
		})
	}
	return obs, nil
}

// DatabaseSize returns the number of tags written to the database.
func (r *Report) DatabaseSize() int {
	n := 0
	for _, s := range r.Result.Solved {
		if !s.Conflicted {
			n++
		}
	}
	return n
}

// UnsolvedByReason counts unsolved tags per reason.
func (r *Report) UnsolvedByReason() map[string]int {
	out := make(map[string]int)
	for _, u := range r.Result.Unsolved {
		out[string(u.Reason)]++
	}
	return out
}

// IsInputError reports whether err was caused by bad input rather than by
// the environment.
func IsInputError(err error) bool {
	return errors.Is(err, observation.ErrMalformedInput) || errors.Is(err, observation.ErrInconsistentFact)
}
