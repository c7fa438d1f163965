// Package filter narrows genotype-matched rows to plausible disease candidates.
//
// The shared BestGeneCandidates filter drops rows failing upstream quality
// filters, rows common in any population-frequency column, and rows whose
// functional consequence is uninteresting. Compound heterozygosity and
// ClinVar extraction are built on top of it.
package filter

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-inherit/internal/table"
)

type frequencyColumns struct {
	group   FrequencyGroup
	columns []table.Column
}

// Filter applies a Config to the rows of one table.
type Filter struct {
	cfg    Config
	table  *table.Table
	logger *zap.Logger

	filterCol  table.Column
	funcCol    table.Column
	geneCol    table.Column
	clinSigCol table.Column
	freqs      []frequencyColumns

	pass        map[string]bool
	consequence map[string]bool
	splice      map[string]bool
}

// New resolves cfg against the table's schema. Every column the
// configuration names must be present.
func New(cfg Config, t *table.Table) (*Filter, error) {
	f := &Filter{
		cfg:         cfg,
		table:       t,
		logger:      zap.NewNop(),
		pass:        toSet(cfg.PassValues),
		consequence: toSet(cfg.Consequence.Terms),
		splice:      toSet(cfg.SpliceTerms),
	}

	var err error
	s := t.Schema
	if f.filterCol, err = s.Column(cfg.FilterColumn); err != nil {
		return nil, err
	}
	if f.funcCol, err = s.FirstColumn(cfg.FuncColumns...); err != nil {
		return nil, err
	}
	if f.geneCol, err = s.FirstColumn(cfg.GeneColumns...); err != nil {
		return nil, err
	}
	if f.clinSigCol, err = s.Column(cfg.ClinSigColumn); err != nil {
		return nil, err
	}
	for _, g := range cfg.Frequencies {
		fc := frequencyColumns{group: g}
		for _, name := range g.Columns {
			c, err := s.Column(name)
			if err != nil {
				return nil, err
			}
			fc.columns = append(fc.columns, c)
		}
		f.freqs = append(f.freqs, fc)
	}

	return f, nil
}

// SetLogger sets the logger for filter diagnostics.
func (f *Filter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Config returns the configuration the filter was built from.
func (f *Filter) Config() Config {
	return f.cfg
}

// Gene returns the gene symbol of a row.
func (f *Filter) Gene(r *table.Row) string {
	return r.Get(f.geneCol)
}

// Consequence returns the functional consequence of a row.
func (f *Filter) Consequence(r *table.Row) string {
	return r.Get(f.funcCol)
}

// PassesQuality reports whether the upstream FILTER status is a pass value.
func (f *Filter) PassesQuality(r *table.Row) bool {
	return f.pass[r.Get(f.filterCol)]
}

// PassesFrequency reports whether every frequency column is below its
// group threshold. Missing and non-numeric values count as 0.
func (f *Filter) PassesFrequency(r *table.Row) bool {
	for _, fc := range f.freqs {
		for _, c := range fc.columns {
			if v, _ := parseFrequency(r.Get(c)); v >= fc.group.Threshold {
				return false
			}
		}
	}
	return true
}

// Interesting reports whether the consequence survives the vocabulary filter.
func (f *Filter) Interesting(r *table.Row) bool {
	in := f.consequence[f.Consequence(r)]
	if f.cfg.Consequence.Mode == Deny {
		return !in
	}
	return in
}

// IsSplice reports whether the consequence is a splice-candidate term.
func (f *Filter) IsSplice(r *table.Row) bool {
	return f.splice[f.Consequence(r)]
}

// IsPathogenic reports whether the clinical significance contains a pathogenic term.
// Matching is a case-sensitive substring test.
func (f *Filter) IsPathogenic(r *table.Row) bool {
	sig := r.Get(f.clinSigCol)
	if sig == "" {
		return false
	}
	for _, term := range f.cfg.PathogenicTerms {
		if term != "" && strings.Contains(sig, term) {
			return true
		}
	}
	return false
}

// Prefilter keeps rows passing the quality and frequency filters.
func (f *Filter) Prefilter(s table.RowSet) table.RowSet {
	out := f.table.Where(s, f.PassesQuality)
	f.logNonNumeric(out)
	return f.table.Where(out, f.PassesFrequency)
}

// BestGeneCandidates keeps rows passing quality, frequency and consequence filters.
func (f *Filter) BestGeneCandidates(s table.RowSet) table.RowSet {
	out := f.table.Where(f.Prefilter(s), f.Interesting)
	f.logger.Debug("best gene candidates",
		zap.Int("in", s.Len()),
		zap.Int("out", out.Len()))
	return out
}

// SpliceCandidates keeps rows whose consequence is a splice-candidate term.
func (f *Filter) SpliceCandidates(s table.RowSet) table.RowSet {
	return f.table.Where(s, f.IsSplice)
}

// ClinVar keeps rows flagged pathogenic. No frequency or quality filters apply.
func (f *Filter) ClinVar(s table.RowSet) table.RowSet {
	return f.table.Where(s, f.IsPathogenic)
}

// WithinGenes keeps rows whose gene is in genes.
func (f *Filter) WithinGenes(s table.RowSet, genes map[string]bool) table.RowSet {
	return f.table.Where(s, func(r *table.Row) bool {
		return genes[f.Gene(r)]
	})
}

func (f *Filter) logNonNumeric(s table.RowSet) {
	if !f.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	for _, fc := range f.freqs {
		for _, c := range fc.columns {
			n := 0
			for _, ord := range s {
				if _, ok := parseFrequency(f.table.Rows[ord].Get(c)); !ok {
					n++
				}
			}
			if n > 0 {
				f.logger.Debug("non-numeric frequencies treated as 0",
					zap.String("column", c.Name),
					zap.Int("rows", n))
			}
		}
	}
}

// parseFrequency parses a frequency cell. ok is false when the cell was
// absent or non-numeric and the value defaulted to 0.
func parseFrequency(s string) (v float64, ok bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func toSet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
