package pipeline

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/inodb/vibe-inherit/internal/table"
)

// CandidateSet is a named subset of a table's rows.
type CandidateSet struct {
	Analysis string   // analysis that produced the set, e.g. "trio"
	Samples  []string // samples the analysis read
	Prefix   string // sample prefix including its separator, e.g. "KID."
	Label    string // e.g. "dn.BestGeneCandidates"
	Rows     table.RowSet

	// Columns restricts output to these header positions. Nil keeps every column.
	Columns []int
	// SortByPosition orders rows by chromosome then start instead of table order.
	SortByPosition bool
}

// FileName returns the output file name for a set derived from source.
func (c *CandidateSet) FileName(source string) string {
	return c.Prefix + c.Label + "." + source
}

// Header returns the output header.
func (c *CandidateSet) Header(t *table.Table) []string {
	cols := t.Schema.Columns()
	if c.Columns == nil {
		return cols
	}
	out := make([]string, len(c.Columns))
	for i, idx := range c.Columns {
		out[i] = cols[idx]
	}
	return out
}

// Cells returns the output cells of a row.
func (c *CandidateSet) Cells(r *table.Row) []string {
	if c.Columns == nil {
		return r.Fields
	}
	out := make([]string, len(c.Columns))
	for i, idx := range c.Columns {
		out[i] = r.Fields[idx]
	}
	return out
}

// Records returns the rows of the set in output order.
func (c *CandidateSet) Records(t *table.Table) []*table.Row {
	rows := t.Select(c.Rows)
	if c.SortByPosition {
		slices.SortStableFunc(rows, func(a, b *table.Row) int {
			if n := compareChrom(a.Key.Chrom, b.Key.Chrom); n != 0 {
				return n
			}
			return cmp.Compare(a.Key.Pos, b.Key.Pos)
		})
	}
	return rows
}

// chromRank orders autosomes numerically, then X, Y and mitochondria,
// then everything else by name.
func chromRank(chrom string) (int, string) {
	c := strings.TrimPrefix(chrom, "chr")
	if n, err := strconv.Atoi(c); err == nil {
		return n, ""
	}
	switch c {
	case "X":
		return 1000, ""
	case "Y":
		return 1001, ""
	case "M", "MT":
		return 1002, ""
	}
	return 1003, c
}

func compareChrom(a, b string) int {
	ra, na := chromRank(a)
	rb, nb := chromRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	return cmp.Compare(na, nb)
}

// Sink receives each candidate set as soon as it is derived.
type Sink interface {
	WriteSet(t *table.Table, s *CandidateSet) error
}

// Sinks fans a set out to several sinks in order.
type Sinks []Sink

func (ss Sinks) WriteSet(t *table.Table, s *CandidateSet) error {
	for _, sink := range ss {
		if err := sink.WriteSet(t, s); err != nil {
			return err
		}
	}
	return nil
}

// Collector is a Sink that keeps every set in memory.
type Collector struct {
	Sets []*CandidateSet
}

func (c *Collector) WriteSet(_ *table.Table, s *CandidateSet) error {
	c.Sets = append(c.Sets, s)
	return nil
}

// Get returns the collected set with the given prefix and label.
func (c *Collector) Get(prefix, label string) *CandidateSet {
	for _, s := range c.Sets {
		if s.Prefix == prefix && s.Label == label {
			return s
		}
	}
	return nil
}
