package filter

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-inherit/internal/genotype"
)

// ConsequenceMode selects how the consequence vocabulary is applied.
type ConsequenceMode string

const (
	// Allow keeps rows whose consequence is in the vocabulary.
	Allow ConsequenceMode = "allow"
	// Deny drops rows whose consequence is in the vocabulary.
	Deny ConsequenceMode = "deny"
)

// FrequencyGroup is a set of population-frequency columns sharing a threshold.
// A row passes when every column is below the threshold.
type FrequencyGroup struct {
	Name      string   `mapstructure:"name" yaml:"name"`
	Threshold float64  `mapstructure:"threshold" yaml:"threshold"`
	Columns   []string `mapstructure:"columns" yaml:"columns"`
}

// ConsequenceFilter is the functional-consequence vocabulary and its polarity.
type ConsequenceFilter struct {
	Mode  ConsequenceMode `mapstructure:"mode" yaml:"mode"`
	Terms []string        `mapstructure:"terms" yaml:"terms"`
}

// Config holds everything build- or release-specific about candidate filtering.
// Column lists name alternatives in order of preference; the first one
// present in the table is used.
type Config struct {
	Name            string            `mapstructure:"name" yaml:"name"`
	FilterColumn    string            `mapstructure:"filter_column" yaml:"filter_column"`
	PassValues      []string          `mapstructure:"pass_values" yaml:"pass_values"`
	FuncColumns     []string          `mapstructure:"func_columns" yaml:"func_columns"`
	GeneColumns     []string          `mapstructure:"gene_columns" yaml:"gene_columns"`
	ClinSigColumn   string            `mapstructure:"clinsig_column" yaml:"clinsig_column"`
	Frequencies     []FrequencyGroup  `mapstructure:"frequencies" yaml:"frequencies"`
	Consequence     ConsequenceFilter `mapstructure:"consequence" yaml:"consequence"`
	SpliceTerms     []string          `mapstructure:"splice_terms" yaml:"splice_terms"`
	PathogenicTerms []string          `mapstructure:"pathogenic_terms" yaml:"pathogenic_terms"`
	Genotypes       genotype.Dialect  `mapstructure:"genotypes" yaml:"genotypes"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.FilterColumn == "" {
		errs = append(errs, errors.New("filter_column is empty"))
	}
	if len(c.FuncColumns) == 0 {
		errs = append(errs, errors.New("func_columns is empty"))
	}
	if len(c.GeneColumns) == 0 {
		errs = append(errs, errors.New("gene_columns is empty"))
	}
	if c.ClinSigColumn == "" {
		errs = append(errs, errors.New("clinsig_column is empty"))
	}
	for _, g := range c.Frequencies {
		if g.Threshold <= 0 {
			errs = append(errs, fmt.Errorf("frequency group %q: threshold must be positive, got %g", g.Name, g.Threshold))
		}
	}
	switch c.Consequence.Mode {
	case Allow, Deny:
	default:
		errs = append(errs, fmt.Errorf("consequence mode %q (want %q or %q)", c.Consequence.Mode, Allow, Deny))
	}
	if _, err := genotype.ParseDialect(string(c.Genotypes)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Dialect returns the genotype dialect, defaulting to DialectAny.
func (c *Config) Dialect() genotype.Dialect {
	d, err := genotype.ParseDialect(string(c.Genotypes))
	if err != nil {
		return genotype.DialectAny
	}
	return d
}

// Override returns c with every field that is set in o replacing its value.
// Slices are replaced whole, never merged element by element.
func (c Config) Override(o Config) Config {
	if o.Name != "" {
		c.Name = o.Name
	}
	if o.FilterColumn != "" {
		c.FilterColumn = o.FilterColumn
	}
	if o.PassValues != nil {
		c.PassValues = o.PassValues
	}
	if o.FuncColumns != nil {
		c.FuncColumns = o.FuncColumns
	}
	if o.GeneColumns != nil {
		c.GeneColumns = o.GeneColumns
	}
	if o.ClinSigColumn != "" {
		c.ClinSigColumn = o.ClinSigColumn
	}
	if o.Frequencies != nil {
		c.Frequencies = o.Frequencies
	}
	if o.Consequence.Mode != "" {
		c.Consequence.Mode = o.Consequence.Mode
	}
	if o.Consequence.Terms != nil {
		c.Consequence.Terms = o.Consequence.Terms
	}
	if o.SpliceTerms != nil {
		c.SpliceTerms = o.SpliceTerms
	}
	if o.PathogenicTerms != nil {
		c.PathogenicTerms = o.PathogenicTerms
	}
	if o.Genotypes != "" {
		c.Genotypes = o.Genotypes
	}
	return c
}
