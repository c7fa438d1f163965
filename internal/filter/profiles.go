package filter

import (
	"slices"

	"github.com/inodb/vibe-inherit/internal/genotype"
)

// Built-in profile names.
const (
	ProfileHG38        = "hg38"
	ProfileHG38Exclude = "hg38-exclude"
	ProfileHG19        = "hg19"
)

var (
	interestingTerms = []string{"exonic", "splicing", "UTR5", "ncRNA_exonic", "ncRNA_splicing"}
	boringTerms      = []string{
		"downstream", "intergenic", "intronic", "ncRNA_exonic", "ncRNA_intronic",
		"ncRNA_splicing", "ncRNA_UTR3", "ncRNA_UTR5", "upstream", "UTR3", "UTR5",
	}
)

func hg38() Config {
	return Config{
		Name:          ProfileHG38,
		FilterColumn:  "FILTER",
		PassValues:    []string{".", "PASS"},
		FuncColumns:   []string{"Func.refGene", "Func.gene"},
		GeneColumns:   []string{"Gene.refGene", "gene.gene"},
		ClinSigColumn: "CLNSIG",
		Frequencies: []FrequencyGroup{
			{Name: "rare", Threshold: 0.005, Columns: []string{"esp6500siv2_all", "1000g2015aug_all"}},
			{Name: "very-rare", Threshold: 0.0001, Columns: []string{"exac03", "gnomad211_exome", "gnomad211_genome", "AF"}},
		},
		Consequence:     ConsequenceFilter{Mode: Allow, Terms: slices.Clone(interestingTerms)},
		SpliceTerms:     []string{"splicing", "intronic"},
		PathogenicTerms: []string{"Pathogenic", "Likely_pathogenic"},
		Genotypes:       genotype.DialectAny,
	}
}

func hg38Exclude() Config {
	c := hg38()
	c.Name = ProfileHG38Exclude
	c.Consequence = ConsequenceFilter{Mode: Deny, Terms: slices.Clone(boringTerms)}
	return c
}

func hg19() Config {
	c := hg38()
	c.Name = ProfileHG19
	c.Frequencies = []FrequencyGroup{
		{Name: "rare", Threshold: 0.005, Columns: []string{"esp6500siv2_all", "1000g2015aug_all", "UK10K-AF-all"}},
		{Name: "very-rare", Threshold: 0.0001, Columns: []string{"ExAC.r0.1.filtered", "exac03", "gnomad211_exome", "gnomad211_genome"}},
	}
	c.Consequence = ConsequenceFilter{Mode: Deny, Terms: slices.Clone(boringTerms)}
	c.Genotypes = genotype.DialectUnphased
	return c
}

var builtins = map[string]func() Config{
	ProfileHG38:        hg38,
	ProfileHG38Exclude: hg38Exclude,
	ProfileHG19:        hg19,
}

// Profile returns a fresh copy of a built-in profile.
func Profile(name string) (Config, bool) {
	fn, ok := builtins[name]
	if !ok {
		return Config{}, false
	}
	return fn(), true
}

// ProfileNames lists the built-in profiles in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
