// Package pipeline runs inheritance-model analyses over an annotation table.
//
// An analysis matches genotype patterns, narrows the matches with the
// candidate filters and hands each named CandidateSet to a Sink as soon as
// it is derived. Sample and column lookups are all resolved before the
// first set is emitted, so configuration and schema errors never leave
// partial output behind.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-inherit/internal/filter"
	"github.com/inodb/vibe-inherit/internal/match"
	"github.com/inodb/vibe-inherit/internal/table"
)

// Analysis is one inheritance-model workflow.
type Analysis interface {
	// Name returns the analysis name, e.g. "trio".
	Name() string
	// Samples returns the samples the analysis reads for t.
	Samples(t *table.Table) []string
	// Validate checks the analysis arguments before any table is read.
	Validate() error

	run(s *session) error
}

// Engine runs analyses with one filter configuration.
type Engine struct {
	cfg    filter.Config
	logger *zap.Logger
}

// NewEngine creates an engine for cfg.
func NewEngine(cfg filter.Config) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for the engine and the matchers and filters it creates.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Run executes a on t, emitting every candidate set to sink.
func (e *Engine) Run(a Analysis, t *table.Table, sink Sink) error {
	p, err := e.Prepare(a, t)
	if err != nil {
		return err
	}
	return p.Emit(sink)
}

// Prepared is an analysis resolved against one table. Every sample and
// filter column has been looked up, so Emit fails only on sink errors.
type Prepared struct {
	analysis Analysis
	samples  []string
	table    *table.Table
	matcher  *match.Matcher
	filter   *filter.Filter
	logger   *zap.Logger
}

// Prepare validates a and resolves it against t without emitting anything.
func (e *Engine) Prepare(a Analysis, t *table.Table) (*Prepared, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, &ConfigError{Field: "profile " + e.cfg.Name, Message: err.Error()}
	}

	samples := a.Samples(t)
	if len(samples) == 0 {
		return nil, &ConfigError{Field: "samples", Message: "no samples selected"}
	}
	if _, err := t.Schema.SampleColumns(samples); err != nil {
		return nil, err
	}

	logger := e.logger.With(
		zap.String("analysis", a.Name()),
		zap.String("table", t.Name))

	var f *filter.Filter
	if _, ok := a.(genotypeOnly); !ok {
		var err error
		if f, err = filter.New(e.cfg, t); err != nil {
			return nil, err
		}
		f.SetLogger(logger)
	}

	m := match.NewMatcher(t, e.cfg.Dialect())
	m.SetLogger(logger)

	logger.Info("running analysis",
		zap.Strings("samples", samples),
		zap.String("profile", e.cfg.Name),
		zap.Int("rows", t.Len()))

	return &Prepared{
		analysis: a,
		samples:  samples,
		table:    t,
		matcher:  m,
		filter:   f,
		logger:   logger,
	}, nil
}

// Analysis returns the analysis name.
func (p *Prepared) Analysis() string { return p.analysis.Name() }

// Samples returns the samples the analysis reads.
func (p *Prepared) Samples() []string { return p.samples }

// Emit runs the analysis, handing each candidate set to sink.
func (p *Prepared) Emit(sink Sink) error {
	s := &session{
		analysis: p.analysis.Name(),
		samples:  p.samples,
		table:    p.table,
		matcher:  p.matcher,
		filter:   p.filter,
		sink:     sink,
		logger:   p.logger,
	}
	if err := p.analysis.run(s); err != nil {
		return fmt.Errorf("%s analysis of %s: %w", s.analysis, p.table.Name, err)
	}
	return nil
}

// genotypeOnly marks analyses that never consult the candidate filters,
// so the filter columns need not be present.
type genotypeOnly interface {
	genotypeOnly()
}

// session carries the per-table state of one Run.
type session struct {
	analysis string
	samples  []string
	table    *table.Table
	matcher  *match.Matcher
	filter   *filter.Filter
	sink     Sink
	logger   *zap.Logger
}

func (s *session) selectRows(e match.Expr) (table.RowSet, error) {
	rows, err := s.matcher.Select(e)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("genotype pattern matched",
		zap.Stringer("pattern", e),
		zap.Int("rows", rows.Len()))
	return rows, nil
}

func (s *session) emit(set *CandidateSet) error {
	set.Analysis = s.analysis
	set.Samples = s.samples
	if err := s.sink.WriteSet(s.table, set); err != nil {
		return fmt.Errorf("write %s%s: %w", set.Prefix, set.Label, err)
	}
	s.logger.Debug("candidate set emitted",
		zap.String("set", set.Prefix+set.Label),
		zap.Int("rows", set.Rows.Len()))
	return nil
}

// emitAll emits several sets sharing a prefix, in order.
func (s *session) emitAll(prefix string, sets ...labelled) error {
	for _, l := range sets {
		if err := s.emit(&CandidateSet{Prefix: prefix, Label: l.label, Rows: l.rows}); err != nil {
			return err
		}
	}
	return nil
}

type labelled struct {
	label string
	rows  table.RowSet
}

// ConfigError reports missing or invalid run arguments.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}
