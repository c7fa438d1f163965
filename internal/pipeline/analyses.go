package pipeline

import (
	"strings"

	"github.com/inodb/vibe-inherit/internal/genotype"
	"github.com/inodb/vibe-inherit/internal/match"
	"github.com/inodb/vibe-inherit/internal/table"
)

// Trio screens an affected child against both parents.
type Trio struct {
	Mother, Father, Child string
}

func (a Trio) Name() string { return "trio" }

func (a Trio) Samples(*table.Table) []string {
	return []string{a.Mother, a.Father, a.Child}
}

func (a Trio) Validate() error {
	return requireSamples(map[string]string{"mother": a.Mother, "father": a.Father, "child": a.Child})
}

func (a Trio) run(s *session) error {
	f := s.filter
	prefix := a.Child + "."

	dn, err := s.selectRows(match.DeNovo(a.Mother, a.Father, a.Child))
	if err != nil {
		return err
	}
	if err := s.emitAll(prefix,
		labelled{"dn", dn},
		labelled{"dn.SpliceCandidates", f.SpliceCandidates(dn)},
		labelled{"dn.BestGeneCandidates", f.BestGeneCandidates(dn)},
	); err != nil {
		return err
	}

	hom, err := s.selectRows(match.Recessive(a.Mother, a.Father, a.Child))
	if err != nil {
		return err
	}
	bestHom := f.BestGeneCandidates(hom)
	onX, err := s.selectRows(match.OnChromosome("X"))
	if err != nil {
		return err
	}
	if err := s.emitAll(prefix,
		labelled{"ibdAndXl", hom},
		labelled{"ibdAndXl.SpliceCandidates", f.SpliceCandidates(hom)},
		labelled{"ibdAndXl.BestGeneCandidates", bestHom},
		labelled{"xl.BestGeneCandidates", bestHom.Intersect(onX)},
	); err != nil {
		return err
	}

	childHet := match.Is(a.Child, genotype.Heterozygous)
	maternal, err := s.selectRows(match.HetNotIn(a.Mother, a.Father, childHet))
	if err != nil {
		return err
	}
	paternal, err := s.selectRows(match.HetNotIn(a.Father, a.Mother, childHet))
	if err != nil {
		return err
	}
	ch := f.CompoundHet(maternal, paternal)
	if err := s.emitAll(prefix,
		labelled{"ch", ch.Candidates},
		labelled{"ch.SpliceCandidates", f.SpliceCandidates(ch.Candidates)},
		labelled{"ch.BestGeneCandidates", ch.Best},
	); err != nil {
		return err
	}

	het, err := s.selectRows(match.Dominant(a.Child))
	if err != nil {
		return err
	}
	if err := s.emitAll(prefix,
		labelled{"allHets.SpliceCandidates", f.SpliceCandidates(het)},
		labelled{"allHets.BestGeneCandidates", f.BestGeneCandidates(het)},
	); err != nil {
		return err
	}

	carried, err := s.selectRows(match.Carrier(a.Child))
	if err != nil {
		return err
	}
	return s.emitAll(prefix, labelled{"clinVar", f.ClinVar(carried)})
}

// Family screens any number of related samples for shared genotypes.
type Family struct {
	// IDs are the samples to screen. Empty selects every sample column.
	IDs []string
}

func (a Family) Name() string { return "family" }

func (a Family) Samples(t *table.Table) []string {
	if len(a.IDs) > 0 {
		return a.IDs
	}
	return t.Schema.Samples()
}

func (a Family) Validate() error {
	for _, id := range a.IDs {
		if id == "" {
			return &ConfigError{Field: "samples", Message: "empty sample ID"}
		}
	}
	return nil
}

func (a Family) run(s *session) error {
	f := s.filter
	samples := a.Samples(s.table)

	models := []labelled{}
	for _, m := range []struct {
		label string
		expr  match.Expr
	}{
		{"ibdAndXl", match.SharedHomAlt(samples...)},
		{"het", match.SharedHet(samples...)},
	} {
		rows, err := s.selectRows(m.expr)
		if err != nil {
			return err
		}
		models = append(models, labelled{m.label, rows})
	}

	for _, m := range models {
		pre := f.Prefilter(m.rows)
		if err := s.emitAll("",
			labelled{m.label, m.rows},
			labelled{m.label + ".BestGeneCandidates", f.BestGeneCandidates(m.rows)},
			labelled{m.label + ".SpliceCandidates", f.SpliceCandidates(pre)},
		); err != nil {
			return err
		}
	}

	carried, err := s.selectRows(match.Carrier(samples...))
	if err != nil {
		return err
	}
	return s.emitAll(strings.Join(samples, "_")+"_", labelled{"clinVar", f.ClinVar(carried)})
}

// Preconception screens a prospective parent pair for shared recessive risk.
type Preconception struct {
	Mother, Father string
}

func (a Preconception) Name() string { return "preconception" }

func (a Preconception) Samples(*table.Table) []string {
	return []string{a.Mother, a.Father}
}

func (a Preconception) Validate() error {
	return requireSamples(map[string]string{"mother": a.Mother, "father": a.Father})
}

func (a Preconception) run(s *session) error {
	f := s.filter

	shared, err := s.selectRows(match.SharedHet(a.Mother, a.Father))
	if err != nil {
		return err
	}
	if err := s.emitAll("",
		labelled{"allSharedHetCalls", shared},
		labelled{"allSharedHetCalls.BestGeneCandidates", f.BestGeneCandidates(shared)},
	); err != nil {
		return err
	}

	maternal, err := s.selectRows(match.HetNotIn(a.Mother, a.Father))
	if err != nil {
		return err
	}
	paternal, err := s.selectRows(match.HetNotIn(a.Father, a.Mother))
	if err != nil {
		return err
	}
	ch := f.CompoundHet(maternal, paternal)

	// Carrier mothers of X-linked variants.
	onX, err := s.selectRows(match.OnChromosome("X"))
	if err != nil {
		return err
	}
	if err := s.emitAll("",
		labelled{"allcompHetCalls.BestGeneCandidates", ch.Best},
		labelled{"allX-linked.BestGeneCandidates", f.BestGeneCandidates(maternal).Intersect(onX)},
	); err != nil {
		return err
	}

	carried, err := s.selectRows(match.Carrier(a.Mother, a.Father))
	if err != nil {
		return err
	}
	return s.emitAll("", labelled{"clinVar", f.ClinVar(carried)})
}

// Split writes one table per sample holding the annotation block and that
// sample's genotype column.
type Split struct {
	// IDs are the samples to split out. Empty selects every sample column.
	IDs []string
	// KeepRefs keeps rows where the sample is reference or missing.
	KeepRefs bool
	// Sort orders rows by chromosome and start position.
	Sort bool
}

func (a Split) Name() string { return "split" }

func (a Split) Samples(t *table.Table) []string {
	return Family{IDs: a.IDs}.Samples(t)
}

func (a Split) Validate() error {
	return Family{IDs: a.IDs}.Validate()
}

func (Split) genotypeOnly() {}

func (a Split) run(s *session) error {
	schema := s.table.Schema
	annotation := make([]int, schema.FormatIndex()+1)
	for i := range annotation {
		annotation[i] = i
	}

	for _, id := range a.Samples(s.table) {
		col, err := schema.Sample(id)
		if err != nil {
			return err
		}
		rows := s.table.All()
		if !a.KeepRefs {
			if rows, err = s.selectRows(match.Carrier(id)); err != nil {
				return err
			}
		}
		if err := s.emit(&CandidateSet{
			Prefix:         id + ".",
			Label:          "GenomeAnnotationsCombined",
			Rows:           rows,
			Columns:        append(annotation[:len(annotation):len(annotation)], col.Index),
			SortByPosition: a.Sort,
		}); err != nil {
			return err
		}
	}
	return nil
}

func requireSamples(roles map[string]string) error {
	for _, role := range []string{"mother", "father", "child"} {
		id, ok := roles[role]
		if ok && id == "" {
			return &ConfigError{Field: role, Message: "sample ID is required"}
		}
	}
	return nil
}
