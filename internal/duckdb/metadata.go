package duckdb

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Source describes one analysis of an input table whose candidates are
// in the store.
type Source struct {
	Name string
	FileFingerprint
	Rows     int64
	Analysis string
	Samples  []string
}

// RecordSource registers an analysis of an input table. Any earlier entry
// for the same table, analysis and samples is replaced and its candidates
// are dropped; other analyses of the table are kept.
func (s *Store) RecordSource(src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := joinSamples(src.Samples)
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM candidates WHERE source=? AND analysis=? AND samples=?",
		src.Name, src.Analysis, samples); err != nil {
		return fmt.Errorf("clear candidates of %s: %w", src.Name, err)
	}
	if _, err := tx.Exec("DELETE FROM sources WHERE source=? AND analysis=? AND samples=?",
		src.Name, src.Analysis, samples); err != nil {
		return fmt.Errorf("clear source %s: %w", src.Name, err)
	}
	if _, err := tx.Exec(`INSERT INTO sources (source, path, size, mod_time, n_rows, analysis, samples)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		src.Name, src.Path, src.Size, src.ModTime.UTC(), src.Rows, src.Analysis, samples); err != nil {
		return fmt.Errorf("insert source %s: %w", src.Name, err)
	}
	return tx.Commit()
}

func joinSamples(ids []string) string { return strings.Join(ids, ",") }

func splitSamples(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Sources lists the registered analyses by table name, analysis and samples.
func (s *Store) Sources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT source, path, size, mod_time, n_rows,
			COALESCE(analysis, ''), COALESCE(samples, '')
		FROM sources
		ORDER BY source, analysis, samples`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var src Source
		var samples string
		if err := rows.Scan(&src.Name, &src.Path, &src.Size, &src.ModTime, &src.Rows,
			&src.Analysis, &samples); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Samples = splitSamples(samples)
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return out, nil
}
