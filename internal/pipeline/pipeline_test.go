package pipeline

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-inherit/internal/filter"
	"github.com/inodb/vibe-inherit/internal/table"
)

const header = "Chr\tStart\tEnd\tRef\tAlt\tFunc.refGene\tGene.refGene\t" +
	"esp6500siv2_all\t1000g2015aug_all\texac03\tgnomad211_exome\tgnomad211_genome\tAF\t" +
	"CLNSIG\tFILTER\tFORMAT\tMUM\tDAD\tKID"

// row describes one variant; frequencies are all "." unless af is set.
type row struct {
	chrom, fn, gene, clnsig, filter, af string
	mum, dad, kid                       string
}

func trioTable(t *testing.T, rows ...row) *table.Table {
	t.Helper()
	var b strings.Builder
	b.WriteString(header + "\n")
	for i, r := range rows {
		if r.filter == "" {
			r.filter = "PASS"
		}
		if r.af == "" {
			r.af = "."
		}
		pos := strconv.Itoa(1000 + i)
		cells := []string{
			r.chrom, pos, pos, "C", "T", r.fn, r.gene,
			".", ".", ".", ".", ".", r.af,
			r.clnsig, r.filter, "GT", r.mum, r.dad, r.kid,
		}
		b.WriteString(strings.Join(cells, "\t") + "\n")
	}
	tbl, err := table.Read(strings.NewReader(b.String()), "trio.hg38_multianno.txt")
	require.NoError(t, err)
	return tbl
}

func run(t *testing.T, profile string, a Analysis, tbl *table.Table) *Collector {
	t.Helper()
	cfg, ok := filter.Profile(profile)
	require.True(t, ok)
	c := &Collector{}
	require.NoError(t, NewEngine(cfg).Run(a, tbl, c))
	return c
}

var trio = Trio{Mother: "MUM", Father: "DAD", Child: "KID"}

func TestTrio_DeNovoScenario(t *testing.T) {
	tbl := trioTable(t, row{chrom: "1", fn: "exonic", gene: "SCN1A", mum: "0/0", dad: "0/0", kid: "0/1"})
	c := run(t, filter.ProfileHG38, trio, tbl)

	assert.Equal(t, table.RowSet{0}, c.Get("KID.", "dn.BestGeneCandidates").Rows)
	assert.Equal(t, table.RowSet{0}, c.Get("KID.", "dn").Rows)
	assert.Empty(t, c.Get("KID.", "ibdAndXl").Rows)
	assert.Empty(t, c.Get("KID.", "ibdAndXl.BestGeneCandidates").Rows)
	assert.Empty(t, c.Get("KID.", "xl.BestGeneCandidates").Rows)
	assert.Empty(t, c.Get("KID.", "dn.SpliceCandidates").Rows)
}

func TestTrio_OutputSets(t *testing.T) {
	tbl := trioTable(t, row{chrom: "1", fn: "exonic", gene: "G", mum: "0/0", dad: "0/0", kid: "0/1"})
	c := run(t, filter.ProfileHG38, trio, tbl)

	var names []string
	for _, s := range c.Sets {
		assert.Equal(t, "trio", s.Analysis)
		names = append(names, s.FileName(tbl.Name))
	}
	assert.Equal(t, []string{
		"KID.dn.trio.hg38_multianno.txt",
		"KID.dn.SpliceCandidates.trio.hg38_multianno.txt",
		"KID.dn.BestGeneCandidates.trio.hg38_multianno.txt",
		"KID.ibdAndXl.trio.hg38_multianno.txt",
		"KID.ibdAndXl.SpliceCandidates.trio.hg38_multianno.txt",
		"KID.ibdAndXl.BestGeneCandidates.trio.hg38_multianno.txt",
		"KID.xl.BestGeneCandidates.trio.hg38_multianno.txt",
		"KID.ch.trio.hg38_multianno.txt",
		"KID.ch.SpliceCandidates.trio.hg38_multianno.txt",
		"KID.ch.BestGeneCandidates.trio.hg38_multianno.txt",
		"KID.allHets.SpliceCandidates.trio.hg38_multianno.txt",
		"KID.allHets.BestGeneCandidates.trio.hg38_multianno.txt",
		"KID.clinVar.trio.hg38_multianno.txt",
	}, names)
}

func TestTrio_XLinkedRestriction(t *testing.T) {
	tbl := trioTable(t,
		row{chrom: "chr2", fn: "exonic", gene: "G2", mum: "0/1", dad: "0/0", kid: "1/1"},
		row{chrom: "chrX", fn: "exonic", gene: "GX", mum: "0/1", dad: "0/0", kid: "1/1"},
	)
	c := run(t, filter.ProfileHG38, trio, tbl)

	assert.Equal(t, table.RowSet{0, 1}, c.Get("KID.", "ibdAndXl.BestGeneCandidates").Rows)
	assert.Equal(t, table.RowSet{1}, c.Get("KID.", "xl.BestGeneCandidates").Rows)
}

func TestTrio_ClinVarIgnoresFrequency(t *testing.T) {
	tbl := trioTable(t,
		row{chrom: "1", fn: "intronic", gene: "CFTR", clnsig: "Pathogenic", af: "0.25", filter: "LowQual", mum: "0/1", dad: "0/0", kid: "0/1"},
		row{chrom: "1", fn: "exonic", gene: "CFTR", clnsig: "Pathogenic", mum: "0/1", dad: "0/1", kid: "0/0"},
		row{chrom: "1", fn: "exonic", gene: "BRCA1", clnsig: "Benign", mum: "0/0", dad: "0/0", kid: "1/1"},
	)
	c := run(t, filter.ProfileHG38, trio, tbl)

	assert.Equal(t, table.RowSet{0}, c.Get("KID.", "clinVar").Rows)
	assert.Empty(t, c.Get("KID.", "allHets.BestGeneCandidates").Rows)
}

func TestTrio_CompoundHet(t *testing.T) {
	tbl := trioTable(t,
		row{chrom: "3", fn: "exonic", gene: "USH2A", mum: "0/1", dad: "0/0", kid: "0/1"},
		row{chrom: "3", fn: "splicing", gene: "USH2A", mum: "0/0", dad: "0|1", kid: "1|0"},
		row{chrom: "3", fn: "exonic", gene: "USH2A", mum: "0/0", dad: "0/1", kid: "0/0"}, // child lacks it
		row{chrom: "4", fn: "exonic", gene: "OTHER", mum: "0/1", dad: "0/0", kid: "0/1"},
	)
	c := run(t, filter.ProfileHG38, trio, tbl)

	assert.Equal(t, table.RowSet{0, 1}, c.Get("KID.", "ch").Rows)
	assert.Equal(t, table.RowSet{1}, c.Get("KID.", "ch.SpliceCandidates").Rows)
	assert.Equal(t, table.RowSet{0, 1}, c.Get("KID.", "ch.BestGeneCandidates").Rows)
}

func TestSetsAreSubsetsOfTable(t *testing.T) {
	tbl := trioTable(t,
		row{chrom: "1", fn: "exonic", gene: "A", mum: "0/0", dad: "0/0", kid: "0/1"},
		row{chrom: "X", fn: "splicing", gene: "B", mum: "0/1", dad: "0/0", kid: "1/1"},
		row{chrom: "2", fn: "exonic", gene: "C", mum: "0/1", dad: "0/0", kid: "0/1", clnsig: "Likely_pathogenic"},
		row{chrom: "2", fn: "intronic", gene: "C", mum: "0/0", dad: "0/1", kid: "0/1"},
		row{chrom: "5", fn: "exonic", gene: "D", mum: "weird", dad: "./.", kid: "1/2"},
	)
	all := tbl.All()
	for _, a := range []Analysis{trio, Family{}, Preconception{Mother: "MUM", Father: "DAD"}} {
		c := run(t, filter.ProfileHG38, a, tbl)
		require.NotEmpty(t, c.Sets)
		for _, s := range c.Sets {
			assert.True(t, slices.IsSorted(s.Rows), "%s%s", s.Prefix, s.Label)
			assert.Len(t, all.Intersect(s.Rows), s.Rows.Len(), "%s%s", s.Prefix, s.Label)
		}
	}
}

func TestRun_ErrorsBeforeOutput(t *testing.T) {
	tbl := trioTable(t, row{chrom: "1", fn: "exonic", gene: "A", mum: "0/0", dad: "0/0", kid: "0/1"})
	cfg, _ := filter.Profile(filter.ProfileHG38)

	t.Run("missing sample ID", func(t *testing.T) {
		c := &Collector{}
		err := NewEngine(cfg).Run(Trio{Mother: "MUM", Father: "DAD"}, tbl, c)
		var ce *ConfigError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "child", ce.Field)
		assert.Empty(t, c.Sets)
	})

	t.Run("unknown sample column", func(t *testing.T) {
		c := &Collector{}
		err := NewEngine(cfg).Run(Trio{Mother: "MUM", Father: "DAD", Child: "SIB"}, tbl, c)
		var se *table.SchemaError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "SIB", se.Column)
		assert.Empty(t, c.Sets)
	})

	t.Run("missing frequency column", func(t *testing.T) {
		c := &Collector{}
		legacy, _ := filter.Profile(filter.ProfileHG19)
		err := NewEngine(legacy).Run(trio, tbl, c)
		var se *table.SchemaError
		require.True(t, errors.As(err, &se))
		assert.Empty(t, c.Sets)
	})

	t.Run("invalid profile", func(t *testing.T) {
		c := &Collector{}
		bad := cfg
		bad.Consequence.Mode = "maybe"
		err := NewEngine(bad).Run(trio, tbl, c)
		var ce *ConfigError
		require.True(t, errors.As(err, &ce))
		assert.Empty(t, c.Sets)
	})
}

func TestPrepare(t *testing.T) {
	tbl := trioTable(t, row{chrom: "1", fn: "exonic", gene: "A", mum: "0/0", dad: "0/0", kid: "0/1"})
	cfg, _ := filter.Profile(filter.ProfileHG38)
	engine := NewEngine(cfg)

	_, err := engine.Prepare(Trio{Mother: "MUM", Father: "DAD", Child: "KDI"}, tbl)
	var se *table.SchemaError
	require.True(t, errors.As(err, &se))

	p, err := engine.Prepare(trio, tbl)
	require.NoError(t, err)
	assert.Equal(t, "trio", p.Analysis())
	assert.Equal(t, []string{"MUM", "DAD", "KID"}, p.Samples())

	c := &Collector{}
	require.NoError(t, p.Emit(c))
	require.NotEmpty(t, c.Sets)
	for _, s := range c.Sets {
		assert.Equal(t, "trio", s.Analysis)
		assert.Equal(t, []string{"MUM", "DAD", "KID"}, s.Samples)
	}
}

type failingSink struct{ after int }

func (f *failingSink) WriteSet(*table.Table, *CandidateSet) error {
	if f.after == 0 {
		return errors.New("disk full")
	}
	f.after--
	return nil
}

func TestRun_SinkError(t *testing.T) {
	tbl := trioTable(t, row{chrom: "1", fn: "exonic", gene: "A", mum: "0/0", dad: "0/0", kid: "0/1"})
	cfg, _ := filter.Profile(filter.ProfileHG38)

	err := NewEngine(cfg).Run(trio, tbl, &failingSink{after: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KID.dn.BestGeneCandidates")
	assert.Contains(t, err.Error(), "disk full")
}

func TestFamily(t *testing.T) {
	tbl := trioTable(t,
		row{chrom: "1", fn: "exonic", gene: "A", mum: "1/1", dad: "1|1", kid: "1/1"},
		row{chrom: "1", fn: "intronic", gene: "B", mum: "1/1", dad: "1/1", kid: "1/1"},
		row{chrom: "1", fn: "splicing", gene: "C", mum: "0/1", dad: "0/1", kid: "0/1", af: "0.3"},
		row{chrom: "1", fn: "splicing", gene: "C", mum: "0/1", dad: "0/1", kid: "0/1"},
		row{chrom: "1", fn: "exonic", gene: "D", mum: "0/0", dad: "./.", kid: "0/0", clnsig: "Pathogenic"},
		row{chrom: "1", fn: "exonic", gene: "E", mum: "0/0", dad: "0/1", kid: "0/0", clnsig: "Pathogenic"},
	)

	c := run(t, filter.ProfileHG38, Family{}, tbl)
	assert.Equal(t, table.RowSet{0, 1}, c.Get("", "ibdAndXl").Rows)
	assert.Equal(t, table.RowSet{0}, c.Get("", "ibdAndXl.BestGeneCandidates").Rows)
	assert.Equal(t, table.RowSet{1}, c.Get("", "ibdAndXl.SpliceCandidates").Rows)
	assert.Equal(t, table.RowSet{2, 3}, c.Get("", "het").Rows)
	assert.Equal(t, table.RowSet{3}, c.Get("", "het.BestGeneCandidates").Rows)
	// Splice candidates here are taken after the frequency filter.
	assert.Equal(t, table.RowSet{3}, c.Get("", "het.SpliceCandidates").Rows)

	cv := c.Get("MUM_DAD_KID_", "clinVar")
	require.NotNil(t, cv)
	assert.Equal(t, table.RowSet{5}, cv.Rows)
	assert.Equal(t, "MUM_DAD_KID_clinVar.trio.hg38_multianno.txt", cv.FileName(tbl.Name))

	// An explicit sample list narrows the model.
	c = run(t, filter.ProfileHG38, Family{IDs: []string{"MUM", "KID"}}, tbl)
	assert.Equal(t, table.RowSet{0, 1}, c.Get("", "ibdAndXl").Rows)
	assert.Empty(t, c.Get("MUM_KID_", "clinVar").Rows)
}

func TestPreconception(t *testing.T) {
	tbl := trioTable(t,
		row{chrom: "1", fn: "exonic", gene: "CFTR", mum: "0/1", dad: "0/1"},
		row{chrom: "2", fn: "exonic", gene: "USH2A", mum: "0/1", dad: "0/0"},
		row{chrom: "2", fn: "exonic", gene: "USH2A", mum: "0/0", dad: "0/1"},
		row{chrom: "X", fn: "exonic", gene: "DMD", mum: "0/1", dad: "0/0"},
		row{chrom: "X", fn: "intronic", gene: "DMD", mum: "0/1", dad: "0/0"},
		row{chrom: "3", fn: "exonic", gene: "GJB2", mum: "0/0", dad: "0/0", clnsig: "Pathogenic"},
		row{chrom: "3", fn: "exonic", gene: "GJB2", mum: "1/1", dad: "0/0", clnsig: "Pathogenic"},
	)
	c := run(t, filter.ProfileHG38Exclude, Preconception{Mother: "MUM", Father: "DAD"}, tbl)

	assert.Equal(t, table.RowSet{0}, c.Get("", "allSharedHetCalls").Rows)
	assert.Equal(t, table.RowSet{0}, c.Get("", "allSharedHetCalls.BestGeneCandidates").Rows)
	assert.Equal(t, table.RowSet{1, 2}, c.Get("", "allcompHetCalls.BestGeneCandidates").Rows)
	assert.Equal(t, table.RowSet{3}, c.Get("", "allX-linked.BestGeneCandidates").Rows)
	assert.Equal(t, table.RowSet{6}, c.Get("", "clinVar").Rows)
	for _, s := range c.Sets {
		assert.Equal(t, "preconception", s.Analysis)
	}
}

func TestSplit(t *testing.T) {
	input := "Chr\tStart\tEnd\tRef\tAlt\tGene.refGene\tFORMAT\tS1\tS2\n" +
		"chr10\t5\t5\tA\tG\tG1\tGT\t0/1\t0/0\n" +
		"chr2\t9\t9\tA\tG\tG2\tGT\t./.\t1/1\n" +
		"chr2\t3\t3\tA\tG\tG3\tGT\t1|1\t0/1\n" +
		"chrX\t1\t1\tA\tG\tG4\tGT\t0/1\t0/1\n"
	tbl, err := table.Read(strings.NewReader(input), "multi.txt")
	require.NoError(t, err)

	// No filter columns are needed to split.
	cfg, _ := filter.Profile(filter.ProfileHG38)
	c := &Collector{}
	require.NoError(t, NewEngine(cfg).Run(Split{Sort: true}, tbl, c))
	require.Len(t, c.Sets, 2)

	s1 := c.Get("S1.", "GenomeAnnotationsCombined")
	require.NotNil(t, s1)
	assert.Equal(t, "S1.GenomeAnnotationsCombined.multi.txt", s1.FileName(tbl.Name))
	assert.Equal(t, []string{"Chr", "Start", "End", "Ref", "Alt", "Gene.refGene", "FORMAT", "S1"}, s1.Header(tbl))
	assert.Equal(t, table.RowSet{0, 2, 3}, s1.Rows)

	var order []string
	for _, r := range s1.Records(tbl) {
		order = append(order, r.Key.String())
		assert.Len(t, s1.Cells(r), 8)
	}
	assert.Equal(t, []string{"chr2_3_A/G", "chr10_5_A/G", "chrX_1_A/G"}, order)

	s2 := c.Get("S2.", "GenomeAnnotationsCombined")
	assert.Equal(t, "1/1", s2.Cells(tbl.Rows[1])[7])

	c = &Collector{}
	require.NoError(t, NewEngine(cfg).Run(Split{IDs: []string{"S2"}, KeepRefs: true}, tbl, c))
	require.Len(t, c.Sets, 1)
	assert.Equal(t, tbl.All(), c.Sets[0].Rows)
}

func TestCompareChrom(t *testing.T) {
	chroms := []string{"chrY", "chr1", "chrUn_gl000220", "chrM", "chr2", "X", "chr10", "GL000192.1"}
	rows := make([]*table.Row, len(chroms))
	for i, ch := range chroms {
		rows[i] = &table.Row{Key: table.VariantKey{Chrom: ch}}
	}
	tbl := &table.Table{Rows: rows}
	set := &CandidateSet{Rows: tbl.All(), SortByPosition: true}

	var got []string
	for _, r := range set.Records(tbl) {
		got = append(got, r.Key.Chrom)
	}
	assert.Equal(t, []string{"chr1", "chr2", "chr10", "X", "chrY", "chrM", "GL000192.1", "chrUn_gl000220"}, got)
}
