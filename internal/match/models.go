package match

import "github.com/inodb/vibe-inherit/internal/genotype"

// DeNovo: child heterozygous, both parents reference or missing.
func DeNovo(mother, father, child string) Expr {
	return All(
		Is(child, genotype.Heterozygous),
		Is(mother, genotype.HomozygousRefOrMissing),
		Is(father, genotype.HomozygousRefOrMissing),
	)
}

// Recessive: child homozygous alternate while neither parent is.
// Sites where the whole trio is homozygous are excluded as likely artifacts.
func Recessive(mother, father, child string) Expr {
	return All(
		Is(child, genotype.HomozygousAlt),
		Not(Is(mother, genotype.HomozygousAlt)),
		Not(Is(father, genotype.HomozygousAlt)),
	)
}

// XLinked restricts a candidate expression to the X chromosome.
func XLinked(candidate Expr) Expr {
	return All(candidate, OnChromosome("X"))
}

// Dominant: sample heterozygous regardless of any other sample.
func Dominant(sample string) Expr {
	return Is(sample, genotype.Heterozygous)
}

// SharedHet: every sample heterozygous.
func SharedHet(samples ...string) Expr {
	return allOf(samples, genotype.Heterozygous)
}

// SharedHomAlt: every sample homozygous alternate.
func SharedHomAlt(samples ...string) Expr {
	return allOf(samples, genotype.HomozygousAlt)
}

// HetNotIn: carrier heterozygous while absent lacks the variant.
// Further expressions, such as the child's genotype, are ANDed in.
func HetNotIn(carrier, absent string, also ...Expr) Expr {
	es := []Expr{
		Is(carrier, genotype.Heterozygous),
		Is(absent, genotype.HomozygousRefOrMissing),
	}
	return All(append(es, also...)...)
}

// Carrier: at least one sample has a call other than reference or missing.
func Carrier(samples ...string) Expr {
	es := make([]Expr, len(samples))
	for i, s := range samples {
		es[i] = Not(Is(s, genotype.HomozygousRefOrMissing))
	}
	return Any(es...)
}

func allOf(samples []string, class genotype.Class) Expr {
	es := make([]Expr, len(samples))
	for i, s := range samples {
		es[i] = Is(s, class)
	}
	return All(es...)
}
