package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-inherit/internal/pipeline"
	"github.com/inodb/vibe-inherit/internal/table"
)

// Candidate is one row of one candidate set.
type Candidate struct {
	Source      string // input table name
	Analysis    string
	Samples     []string // samples the analysis read
	Set         string // prefix and label, e.g. "KID.dn.BestGeneCandidates"
	Chrom       string
	Pos         int64
	Ref         string
	Alt         string
	Gene        string
	Consequence string
	Record      string // tab-joined output cells
}

// WriteCandidates batch-inserts candidates using the Appender API.
func (s *Store) WriteCandidates(cands []Candidate) error {
	if len(cands) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "candidates")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, c := range cands {
		if err := appender.AppendRow(
			c.Source, c.Analysis, c.Set,
			c.Chrom, c.Pos, c.Ref, c.Alt,
			c.Gene, c.Consequence, c.Record,
			joinSamples(c.Samples),
		); err != nil {
			return fmt.Errorf("append candidate: %w", err)
		}
	}

	return appender.Flush()
}

// Sink adapts a Store to pipeline.Sink.
type Sink struct {
	store       *Store
	geneColumns []string
	funcColumns []string
}

// Sink returns a pipeline.Sink writing into s. Gene and consequence are
// taken from the first of the named columns present in each table.
func (s *Store) Sink(geneColumns, funcColumns []string) *Sink {
	return &Sink{store: s, geneColumns: geneColumns, funcColumns: funcColumns}
}

// WriteSet implements pipeline.Sink.
func (k *Sink) WriteSet(t *table.Table, set *pipeline.CandidateSet) error {
	gene := optionalColumn(t.Schema, k.geneColumns)
	fn := optionalColumn(t.Schema, k.funcColumns)

	records := set.Records(t)
	cands := make([]Candidate, len(records))
	for i, r := range records {
		cands[i] = Candidate{
			Source:      t.Name,
			Analysis:    set.Analysis,
			Samples:     set.Samples,
			Set:         set.Prefix + set.Label,
			Chrom:       r.Key.Chrom,
			Pos:         r.Key.Pos,
			Ref:         r.Key.Ref,
			Alt:         r.Key.Alt,
			Gene:        r.Get(gene),
			Consequence: r.Get(fn),
			Record:      strings.Join(set.Cells(r), "\t"),
		}
	}
	return k.store.WriteCandidates(cands)
}

func optionalColumn(s *table.Schema, names []string) table.Column {
	c, err := s.FirstColumn(names...)
	if err != nil {
		return table.Column{Index: -1}
	}
	return c
}

const candidateColumns = `source, analysis, set_name, chrom, pos, ref, alt, gene, consequence, record,
	COALESCE(samples, '')`

// SearchByGene returns every stored candidate for a gene.
func (s *Store) SearchByGene(gene string) ([]Candidate, error) {
	rows, err := s.db.Query(`SELECT `+candidateColumns+`
		FROM candidates
		WHERE gene=?
		ORDER BY source, set_name, chrom, pos`, gene)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// SearchBySet returns the candidates of one set of one source, in insertion order.
func (s *Store) SearchBySet(source, set string) ([]Candidate, error) {
	rows, err := s.db.Query(`SELECT `+candidateColumns+`
		FROM candidates
		WHERE source=? AND set_name=?`, source, set)
	if err != nil {
		return nil, fmt.Errorf("query by set: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// GeneCount summarizes the candidates of one gene.
type GeneCount struct {
	Gene     string
	Variants int64 // distinct variant keys
	Sets     int64 // distinct sets across sources
	Sources  int64
}

// Genes counts candidates per gene, most recurrent first. A non-empty
// label keeps only sets whose name ends with it, e.g. "BestGeneCandidates".
// Unknown genes ("" and ".") are left out.
func (s *Store) Genes(label string) ([]GeneCount, error) {
	rows, err := s.db.Query(`SELECT gene,
			COUNT(DISTINCT chrom || ':' || CAST(pos AS VARCHAR) || ':' || ref || ':' || alt) AS variants,
			COUNT(DISTINCT source || '/' || set_name) AS sets,
			COUNT(DISTINCT source) AS sources
		FROM candidates
		WHERE gene NOT IN ('', '.') AND (? = '' OR ends_with(set_name, ?))
		GROUP BY gene
		ORDER BY variants DESC, gene`, label, label)
	if err != nil {
		return nil, fmt.Errorf("query genes: %w", err)
	}
	defer rows.Close()

	var out []GeneCount
	for rows.Next() {
		var g GeneCount
		if err := rows.Scan(&g.Gene, &g.Variants, &g.Sets, &g.Sources); err != nil {
			return nil, fmt.Errorf("scan gene count: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gene counts: %w", err)
	}
	return out, nil
}

// scanCandidates scans rows into Candidate slices.
func scanCandidates(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Candidate, error) {
	var results []Candidate
	for rows.Next() {
		var c Candidate
		var samples string
		if err := rows.Scan(
			&c.Source, &c.Analysis, &c.Set,
			&c.Chrom, &c.Pos, &c.Ref, &c.Alt,
			&c.Gene, &c.Consequence, &c.Record,
			&samples,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.Samples = splitSamples(samples)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return results, nil
}
