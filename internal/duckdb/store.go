// Package duckdb stores candidate sets in DuckDB so they can be queried
// across runs, samples and input files.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding candidate rows.
type Store struct {
	db   *sql.DB
	path string

	// mu serializes appenders; analyses of several inputs share one store.
	mu sync.Mutex
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist and adds columns that
// databases written by earlier versions lack.
func (s *Store) ensureSchema() error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS candidates (
			source VARCHAR,
			analysis VARCHAR,
			set_name VARCHAR,
			chrom VARCHAR,
			pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			gene VARCHAR,
			consequence VARCHAR,
			record VARCHAR,
			samples VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			source VARCHAR,
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP,
			n_rows BIGINT,
			analysis VARCHAR,
			samples VARCHAR
		)`,
		`ALTER TABLE candidates ADD COLUMN IF NOT EXISTS samples VARCHAR`,
		`ALTER TABLE sources ADD COLUMN IF NOT EXISTS analysis VARCHAR`,
		`ALTER TABLE sources ADD COLUMN IF NOT EXISTS samples VARCHAR`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
