package match

import (
	"strings"

	"github.com/inodb/vibe-inherit/internal/genotype"
	"github.com/inodb/vibe-inherit/internal/table"
)

// Expr is a boolean predicate over the genotypes of a row.
type Expr interface {
	String() string
	eval(m *Matcher) (table.RowSet, error)
}

type isExpr struct {
	sample string
	class  genotype.Class
}

// Is matches rows where sample's genotype falls in class.
func Is(sample string, class genotype.Class) Expr {
	return isExpr{sample: sample, class: class}
}

func (e isExpr) String() string { return e.sample + "=" + e.class.String() }

func (e isExpr) eval(m *Matcher) (table.RowSet, error) {
	return m.MatchAll(e.sample, e.class)
}

type notExpr struct{ inner Expr }

// Not matches every row the inner expression does not.
// Rows with unrecognized genotypes therefore satisfy Not(Is(...)).
func Not(e Expr) Expr {
	return notExpr{inner: e}
}

func (e notExpr) String() string { return "!" + e.inner.String() }

func (e notExpr) eval(m *Matcher) (table.RowSet, error) {
	inner, err := e.inner.eval(m)
	if err != nil {
		return nil, err
	}
	return m.table.All().Difference(inner), nil
}

type allExpr []Expr

// All matches rows satisfying every expression. All() matches every row.
func All(es ...Expr) Expr {
	return allExpr(es)
}

func (e allExpr) String() string { return join(e, " & ") }

func (e allExpr) eval(m *Matcher) (table.RowSet, error) {
	out := m.table.All()
	for _, sub := range e {
		s, err := sub.eval(m)
		if err != nil {
			return nil, err
		}
		out = out.Intersect(s)
	}
	return out, nil
}

type anyExpr []Expr

// Any matches rows satisfying at least one expression. Any() matches nothing.
func Any(es ...Expr) Expr {
	return anyExpr(es)
}

func (e anyExpr) String() string { return join(e, " | ") }

func (e anyExpr) eval(m *Matcher) (table.RowSet, error) {
	var out table.RowSet
	for _, sub := range e {
		s, err := sub.eval(m)
		if err != nil {
			return nil, err
		}
		out = out.Union(s)
	}
	return out, nil
}

type chromExpr string

// OnChromosome matches rows on the named chromosome, with or without a "chr" prefix.
func OnChromosome(name string) Expr {
	return chromExpr(strings.TrimPrefix(name, "chr"))
}

func (e chromExpr) String() string { return "chrom=" + string(e) }

func (e chromExpr) eval(m *Matcher) (table.RowSet, error) {
	return m.table.Where(m.table.All(), func(r *table.Row) bool {
		return r.Key.NormalizeChrom() == string(e)
	}), nil
}

func join(es []Expr, sep string) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
