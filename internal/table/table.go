// Package table loads multi-sample annotation tables and indexes their rows.
package table

import (
	"slices"
	"strconv"
	"strings"
)

// VariantKey identifies a row by its fixed leading columns.
type VariantKey struct {
	Chrom string
	Pos   int64
	Ref   string
	Alt   string
}

func (k VariantKey) String() string {
	return k.Chrom + "_" + strconv.FormatInt(k.Pos, 10) + "_" + k.Ref + "/" + k.Alt
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (k VariantKey) NormalizeChrom() string {
	if len(k.Chrom) > 3 && k.Chrom[:3] == "chr" {
		return k.Chrom[3:]
	}
	return k.Chrom
}

// Row is one data line of the table. Fields are kept verbatim and
// padded to the header width.
type Row struct {
	Ordinal int // 0-based position among data rows
	Line    int // 1-based line number in the source file
	Key     VariantKey
	Fields  []string
}

// Get returns the value of a resolved column.
func (r *Row) Get(c Column) string {
	if c.Index < 0 || c.Index >= len(r.Fields) {
		return ""
	}
	return r.Fields[c.Index]
}

// Table is an annotation table held in memory.
type Table struct {
	Name   string // source name, used to derive output file names
	Schema *Schema
	Rows   []*Row
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// All returns the set of every row.
func (t *Table) All() RowSet {
	s := make(RowSet, len(t.Rows))
	for i := range s {
		s[i] = i
	}
	return s
}

// Where returns the rows of s for which keep returns true.
func (t *Table) Where(s RowSet, keep func(*Row) bool) RowSet {
	var out RowSet
	for _, ord := range s {
		if keep(t.Rows[ord]) {
			out = append(out, ord)
		}
	}
	return out
}

// Select returns the rows of s in table order.
func (t *Table) Select(s RowSet) []*Row {
	rows := make([]*Row, len(s))
	for i, ord := range s {
		rows[i] = t.Rows[ord]
	}
	return rows
}

// Keys returns the variant keys of s in table order.
func (t *Table) Keys(s RowSet) []VariantKey {
	keys := make([]VariantKey, len(s))
	for i, ord := range s {
		keys[i] = t.Rows[ord].Key
	}
	return keys
}

// RowSet is a sorted set of row ordinals. Identity is positional, so
// duplicate variant keys pass through as distinct rows.
type RowSet []int

// NewRowSet builds a set from arbitrary ordinals.
func NewRowSet(ords ...int) RowSet {
	s := slices.Clone(ords)
	slices.Sort(s)
	return slices.Compact(s)
}

// Len returns the number of rows in the set.
func (s RowSet) Len() int {
	return len(s)
}

// Contains reports whether ord is in the set.
func (s RowSet) Contains(ord int) bool {
	_, ok := slices.BinarySearch(s, ord)
	return ok
}

// Intersect returns the rows in both s and o.
func (s RowSet) Intersect(o RowSet) RowSet {
	var out RowSet
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] < o[j]:
			i++
		case s[i] > o[j]:
			j++
		default:
			out = append(out, s[i])
			i++
			j++
		}
	}
	return out
}

// Union returns the rows in either s or o.
func (s RowSet) Union(o RowSet) RowSet {
	out := make(RowSet, 0, len(s)+len(o))
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] < o[j]:
			out = append(out, s[i])
			i++
		case s[i] > o[j]:
			out = append(out, o[j])
			j++
		default:
			out = append(out, s[i])
			i++
			j++
		}
	}
	out = append(out, s[i:]...)
	return append(out, o[j:]...)
}

// Difference returns the rows in s that are not in o.
func (s RowSet) Difference(o RowSet) RowSet {
	var out RowSet
	j := 0
	for _, ord := range s {
		for j < len(o) && o[j] < ord {
			j++
		}
		if j < len(o) && o[j] == ord {
			continue
		}
		out = append(out, ord)
	}
	return out
}

// String renders the ordinals, mainly for test failure messages.
func (s RowSet) String() string {
	parts := make([]string, len(s))
	for i, ord := range s {
		parts[i] = strconv.Itoa(ord)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
