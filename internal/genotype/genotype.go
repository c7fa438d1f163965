// Package genotype parses genotype call strings from multi-sample annotation tables.
package genotype

import "fmt"

// Call is the parsed form of a diploid genotype call.
type Call uint8

const (
	Unrecognized Call = iota
	RefRef            // 0/0, 0|0
	RefAlt            // 0/1, 1/0, 0|1, 1|0
	AltAlt            // 1/1, 1|1
	Missing           // ./., .|.
)

func (c Call) String() string {
	switch c {
	case RefRef:
		return "RefRef"
	case RefAlt:
		return "RefAlt"
	case AltAlt:
		return "AltAlt"
	case Missing:
		return "Missing"
	default:
		return "Unrecognized"
	}
}

// Class is the genotype category the inheritance models are written against.
type Class uint8

const (
	NoMatch Class = iota
	HomozygousAlt
	Heterozygous
	HomozygousRefOrMissing
)

func (c Class) String() string {
	switch c {
	case HomozygousAlt:
		return "HomozygousAlt"
	case Heterozygous:
		return "Heterozygous"
	case HomozygousRefOrMissing:
		return "HomozygousRefOrMissing"
	default:
		return "NoMatch"
	}
}

// Class maps a call onto its genotype class. Unrecognized calls map to NoMatch.
func (c Call) Class() Class {
	switch c {
	case AltAlt:
		return HomozygousAlt
	case RefAlt:
		return Heterozygous
	case RefRef, Missing:
		return HomozygousRefOrMissing
	default:
		return NoMatch
	}
}

// Carries reports whether the call is anything other than reference or missing.
// Unrecognized calls count as carrying the variant.
func (c Call) Carries() bool {
	return c != RefRef && c != Missing
}

// Dialect selects which genotype notations are accepted.
type Dialect string

const (
	// DialectAny accepts unphased (0/1) and phased (0|1) notation.
	DialectAny Dialect = "any"
	// DialectUnphased accepts slash notation only; phased calls are Unrecognized.
	DialectUnphased Dialect = "unphased"
)

// ParseDialect validates a dialect name. The empty string selects DialectAny.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case "", DialectAny:
		return DialectAny, nil
	case DialectUnphased:
		return DialectUnphased, nil
	}
	return "", fmt.Errorf("unknown genotype dialect %q (want %q or %q)", s, DialectAny, DialectUnphased)
}

// Parse parses a genotype string under the given dialect.
// Matching is exact and case-sensitive; anything outside the biallelic
// vocabulary, including half-missing calls like "0/.", is Unrecognized.
// Allele order and separator are symmetric: "1/0" is RefAlt and ".|." is
// Missing wherever phased calls are accepted.
func (d Dialect) Parse(gt string) Call {
	if len(gt) != 3 {
		return Unrecognized
	}
	switch gt[1] {
	case '/':
	case '|':
		if d == DialectUnphased {
			return Unrecognized
		}
	default:
		return Unrecognized
	}

	a, b := gt[0], gt[2]
	switch {
	case a == '.' && b == '.':
		return Missing
	case a == '0' && b == '0':
		return RefRef
	case a == '1' && b == '1':
		return AltAlt
	case a == '0' && b == '1', a == '1' && b == '0':
		return RefAlt
	}
	return Unrecognized
}

// Classify parses gt with DialectAny and returns its class.
func Classify(gt string) Class {
	return DialectAny.Parse(gt).Class()
}
