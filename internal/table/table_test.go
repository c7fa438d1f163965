package table

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findTestFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Skipf("test file %s not found", path)
	}
	return path
}

func TestLoad_Trio(t *testing.T) {
	tbl, err := Load(findTestFile(t, "trio.txt"))
	require.NoError(t, err)

	assert.Equal(t, "trio.txt", tbl.Name)
	require.Equal(t, 4, tbl.Len())
	assert.Equal(t, 10, tbl.Schema.FormatIndex())
	assert.Equal(t, []string{"MUM", "DAD", "KID"}, tbl.Schema.Samples())

	first := tbl.Rows[0]
	assert.Equal(t, VariantKey{Chrom: "1", Pos: 100, Ref: "A", Alt: "G"}, first.Key)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 0, first.Ordinal)

	// Blank line is skipped, ordinals stay dense.
	last := tbl.Rows[3]
	assert.Equal(t, 3, last.Ordinal)
	assert.Equal(t, 6, last.Line)
	assert.Equal(t, "-", last.Key.Alt)
	assert.Equal(t, "", last.Get(mustColumn(t, tbl.Schema, "Gene.refGene")))
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load("/nonexistent/table.txt")
	assert.Error(t, err)
}

func TestRead_Gzip(t *testing.T) {
	raw, err := os.ReadFile(findTestFile(t, "trio.txt"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trio.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := pgzip.NewWriter(f)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "trio.txt", tbl.Name)
	assert.Equal(t, 4, tbl.Len())
}

func TestRead_MissingFormat(t *testing.T) {
	input := "Chr\tStart\tEnd\tRef\tAlt\tGene.refGene\tS1\n1\t1\t1\tA\tG\tX\t0/1\n"
	_, err := Read(strings.NewReader(input), "t")
	require.Error(t, err)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, FormatColumn, se.Column)
}

func TestRead_TooFewLeadingColumns(t *testing.T) {
	input := "Chr\tStart\tFORMAT\tS1\n1\t1\tGT\t0/1\n"
	_, err := Read(strings.NewReader(input), "t")

	var se *SchemaError
	require.True(t, errors.As(err, &se))
}

func TestRead_ParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad position", "Chr\tStart\tEnd\tRef\tAlt\tFORMAT\tS1\n1\tabc\t1\tA\tG\tGT\t0/1\n"},
		{"too many fields", "Chr\tStart\tEnd\tRef\tAlt\tFORMAT\tS1\n1\t1\t1\tA\tG\tGT\t0/1\textra\n"},
		{"too few fields", "Chr\tStart\tEnd\tRef\tAlt\tFORMAT\tS1\n1\t1\t1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), "t")
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
		})
	}
}

func TestRead_PadsShortRowsAndSkipsMeta(t *testing.T) {
	input := "##source=test\nChr\tStart\tEnd\tRef\tAlt\tFORMAT\tS1\tS2\n1\t5\t5\tA\tG\tGT\t0/1\n"
	tbl, err := Read(strings.NewReader(input), "t")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	s2, err := tbl.Schema.Sample("S2")
	require.NoError(t, err)
	assert.Equal(t, "", tbl.Rows[0].Get(s2))
	assert.Len(t, tbl.Rows[0].Fields, 8)
}

func TestSchema_Sample(t *testing.T) {
	s, err := NewSchema([]string{"Chr", "Start", "End", "Ref", "Alt", "S1", "FORMAT", "S1", "S2"})
	require.NoError(t, err)

	// A sample ID is only looked up after FORMAT.
	c, err := s.Sample("S1")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Index)

	_, err = s.Sample("S3")
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "S3", se.Column)

	_, err = s.SampleColumns([]string{"S1", "missing"})
	assert.Error(t, err)
}

func TestSchema_FirstColumn(t *testing.T) {
	s, err := NewSchema([]string{"Chr", "Start", "End", "Ref", "Alt", "Func.gene", "FORMAT"})
	require.NoError(t, err)

	c, err := s.FirstColumn("Func.refGene", "Func.gene")
	require.NoError(t, err)
	assert.Equal(t, "Func.gene", c.Name)

	_, err = s.FirstColumn("Gene.refGene", "gene.gene")
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Gene.refGene", se.Column)
}

func TestRowSet_Algebra(t *testing.T) {
	a := NewRowSet(5, 1, 3, 3, 7)
	b := NewRowSet(3, 4, 5)

	assert.Equal(t, RowSet{1, 3, 5, 7}, a)
	assert.Equal(t, RowSet{3, 5}, a.Intersect(b))
	assert.Equal(t, RowSet{1, 3, 4, 5, 7}, a.Union(b))
	assert.Equal(t, RowSet{1, 7}, a.Difference(b))
	assert.Empty(t, b.Difference(b))
	assert.True(t, a.Contains(7))
	assert.False(t, a.Contains(4))
	assert.Equal(t, "{1,3,5,7}", a.String())
}

func TestTable_WhereSelectKeys(t *testing.T) {
	tbl, err := Load(findTestFile(t, "trio.txt"))
	require.NoError(t, err)

	onX := tbl.Where(tbl.All(), func(r *Row) bool { return r.Key.NormalizeChrom() == "X" })
	require.Equal(t, RowSet{2}, onX)
	assert.Equal(t, "chrX_300_G/A", tbl.Keys(onX)[0].String())
	assert.Equal(t, int64(300), tbl.Select(onX)[0].Key.Pos)
}

func mustColumn(t *testing.T, s *Schema, name string) Column {
	t.Helper()
	c, err := s.Column(name)
	require.NoError(t, err)
	return c
}
