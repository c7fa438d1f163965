// Package match selects table rows by per-sample genotype patterns.
//
// Inheritance models are expressed as predicate expressions over samples
// and evaluated with set algebra: All intersects, Any unions and Not takes
// the complement against the whole table.
package match

import (
	"go.uber.org/zap"

	"github.com/inodb/vibe-inherit/internal/genotype"
	"github.com/inodb/vibe-inherit/internal/table"
)

// Matcher evaluates genotype predicates against one loaded table.
// A Matcher is not safe for concurrent use.
type Matcher struct {
	table   *table.Table
	dialect genotype.Dialect
	logger  *zap.Logger
	calls   map[int][]genotype.Call
}

// NewMatcher creates a matcher reading calls in the given dialect.
func NewMatcher(t *table.Table, d genotype.Dialect) *Matcher {
	return &Matcher{
		table:   t,
		dialect: d,
		logger:  zap.NewNop(),
		calls:   make(map[int][]genotype.Call),
	}
}

// SetLogger sets the logger for unrecognized-genotype reports.
func (m *Matcher) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Table returns the table the matcher reads.
func (m *Matcher) Table() *table.Table {
	return m.table
}

// Calls returns the parsed call of every row for a sample.
// Calls are parsed once per sample and cached.
func (m *Matcher) Calls(sampleID string) ([]genotype.Call, error) {
	col, err := m.table.Schema.Sample(sampleID)
	if err != nil {
		return nil, err
	}
	if calls, ok := m.calls[col.Index]; ok {
		return calls, nil
	}

	calls := make([]genotype.Call, len(m.table.Rows))
	unrecognized := 0
	for i, r := range m.table.Rows {
		calls[i] = m.dialect.Parse(r.Get(col))
		if calls[i] == genotype.Unrecognized {
			unrecognized++
		}
	}
	if unrecognized > 0 {
		m.logger.Debug("unrecognized genotypes excluded from positive matches",
			zap.String("sample", sampleID),
			zap.Int("rows", unrecognized))
	}
	m.calls[col.Index] = calls
	return calls, nil
}

// MatchAll returns the rows whose call for sampleID falls in class.
func (m *Matcher) MatchAll(sampleID string, class genotype.Class) (table.RowSet, error) {
	calls, err := m.Calls(sampleID)
	if err != nil {
		return nil, err
	}
	var out table.RowSet
	for i, c := range calls {
		if c.Class() == class {
			out = append(out, i)
		}
	}
	return out, nil
}

// Select evaluates e over the whole table.
func (m *Matcher) Select(e Expr) (table.RowSet, error) {
	return e.eval(m)
}

// MatchAll classifies one sample column of t with DialectAny.
func MatchAll(t *table.Table, sampleID string, class genotype.Class) (table.RowSet, error) {
	return NewMatcher(t, genotype.DialectAny).MatchAll(sampleID, class)
}
