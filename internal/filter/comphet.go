package filter

import (
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/vibe-inherit/internal/table"
)

// CompoundHet is the result of compound-heterozygosity detection.
type CompoundHet struct {
	// Candidates are rows from either side whose gene is hit on both
	// sides after both sides were filtered independently.
	Candidates table.RowSet
	// Best are the filtered candidates whose gene still has at least two rows.
	Best table.RowSet
	// Genes lists the genes represented in Best.
	Genes []string
}

// CompoundHet detects genes hit by qualifying variants on two sides.
// a and b are disjoint row sets, typically "het in sample 1, absent in
// sample 2" and the reverse. The gene intersection is computed on the raw
// sets and again after filtering each side, and the final set must still
// hold two rows per gene, so a gene that loses its only variant on one side
// to the frequency or consequence filters is not reported.
func (f *Filter) CompoundHet(a, b table.RowSet) CompoundHet {
	shared := f.sharedGenes(a, b)
	candidates := f.WithinGenes(a.Union(b), shared)

	shared = f.sharedGenes(f.BestGeneCandidates(a), f.BestGeneCandidates(b))
	candidates = f.WithinGenes(candidates, shared)

	best := f.recurring(f.BestGeneCandidates(candidates))

	res := CompoundHet{Candidates: candidates, Best: best}
	seen := make(map[string]bool)
	for _, ord := range best {
		g := f.Gene(f.table.Rows[ord])
		if !seen[g] {
			seen[g] = true
			res.Genes = append(res.Genes, g)
		}
	}
	slices.Sort(res.Genes)

	f.logger.Debug("compound heterozygous genes",
		zap.Int("candidates", candidates.Len()),
		zap.Strings("genes", res.Genes))
	return res
}

// genes returns the known gene symbols of s.
func (f *Filter) genes(s table.RowSet) map[string]bool {
	out := make(map[string]bool)
	for _, ord := range s {
		if g := f.Gene(f.table.Rows[ord]); knownGene(g) {
			out[g] = true
		}
	}
	return out
}

func (f *Filter) sharedGenes(a, b table.RowSet) map[string]bool {
	ga, gb := f.genes(a), f.genes(b)
	out := make(map[string]bool)
	for g := range ga {
		if gb[g] {
			out[g] = true
		}
	}
	return out
}

// recurring keeps rows whose gene occurs at least twice in s.
func (f *Filter) recurring(s table.RowSet) table.RowSet {
	counts := make(map[string]int)
	for _, ord := range s {
		counts[f.Gene(f.table.Rows[ord])]++
	}
	return f.table.Where(s, func(r *table.Row) bool {
		g := f.Gene(r)
		return knownGene(g) && counts[g] >= 2
	})
}

// knownGene reports whether a gene cell names a gene. Empty and "." cells
// never pair up as compound heterozygous.
func knownGene(g string) bool {
	return g != "" && g != "."
}
