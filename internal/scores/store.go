// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scores persists evaluation results in a SQLite index so runs
// across models, sources, and years can be aggregated later.
package scores

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/renyi/annuaire-pipeline/internal/evaluate"
	"github.com/renyi/annuaire-pipeline/pkg/types"
)

const dbFile = "scores.db"

// Store manages the score index SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the score database at dir/scores.db, creating
// the schema when missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			year TEXT NOT NULL,
			page INTEGER NOT NULL,
			model TEXT NOT NULL,
			source TEXT NOT NULL,
			wer REAL NOT NULL,
			cer REAL NOT NULL,
			entries INTEGER,
			scored_at TEXT NOT NULL,
			PRIMARY KEY (year, page, model, source)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_model ON scores(model)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_source ON scores(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record upserts a batch of page scores. Re-scoring a page overwrites its
// previous row.
func (s *Store) Record(ctx context.Context, scores []evaluate.PageScore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scores (year, page, model, source, wer, cer, entries, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(year, page, model, source) DO UPDATE SET
			wer=excluded.wer, cer=excluded.cer, entries=excluded.entries,
			scored_at=excluded.scored_at`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, sc := range scores {
		_, err := stmt.ExecContext(ctx,
			sc.Year, sc.Page, sc.Model, string(sc.Source),
			sc.WER, sc.CER, sc.Entries, now)
		if err != nil {
			return fmt.Errorf("inserting score for %s page %d: %w", sc.Year, sc.Page, err)
		}
	}
	return tx.Commit()
}

// List returns all recorded scores, ordered by year, page, source, model.
func (s *Store) List(ctx context.Context) ([]evaluate.PageScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, page, model, source, wer, cer, entries
		 FROM scores ORDER BY year, page, source, model`)
	if err != nil {
		return nil, fmt.Errorf("querying scores: %w", err)
	}
	defer rows.Close()

	var out []evaluate.PageScore
	for rows.Next() {
		var sc evaluate.PageScore
		var source string
		var entries sql.NullInt64
		if err := rows.Scan(&sc.Year, &sc.Page, &sc.Model, &source, &sc.WER, &sc.CER, &entries); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		sc.Source = types.OCRSource(source)
		sc.Entries = int(entries.Int64)
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Aggregate is a mean over one model/source group.
type Aggregate struct {
	Model   string
	Source  types.OCRSource
	MeanWER float64
	MeanCER float64
	Pages   int
}

// Aggregates returns per model/source mean error rates over every recorded
// page, best WER first.
func (s *Store) Aggregates(ctx context.Context) ([]Aggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model, source, AVG(wer), AVG(cer), COUNT(*)
		 FROM scores GROUP BY model, source ORDER BY AVG(wer)`)
	if err != nil {
		return nil, fmt.Errorf("querying aggregates: %w", err)
	}
	defer rows.Close()

	var out []Aggregate
	for rows.Next() {
		var a Aggregate
		var source string
		if err := rows.Scan(&a.Model, &source, &a.MeanWER, &a.MeanCER, &a.Pages); err != nil {
			return nil, fmt.Errorf("scanning aggregate: %w", err)
		}
		a.Source = types.OCRSource(source)
		out = append(out, a)
	}
	return out, rows.Err()
}
