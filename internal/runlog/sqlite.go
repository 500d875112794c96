// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// SQLiteLog stores RunResults in a SQLite table, one row per Append.
type SQLiteLog struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and its schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteLog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating results directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer keeps appends serialized without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	s := &SQLiteLog{db: db}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteLog) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS run_results (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			question_id TEXT NOT NULL,
			prompt_type TEXT NOT NULL,
			temperature REAL NOT NULL,
			repetition INTEGER NOT NULL,
			run_id TEXT,
			model TEXT,
			prompt_text TEXT,
			raw_response TEXT,
			timestamp TEXT NOT NULL,
			attempts INTEGER,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_results_condition
			ON run_results(question_id, prompt_type, temperature, repetition)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Append inserts r in its own transaction.
func (s *SQLiteLog) Append(ctx context.Context, r types.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_results
			(question_id, prompt_type, temperature, repetition, run_id, model,
			 prompt_text, raw_response, timestamp, attempts, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.QuestionID, string(r.PromptType), r.Temperature, r.Repetition, r.RunID, r.Model,
		r.PromptText, r.RawResponse, r.Timestamp.UTC().Format(time.RFC3339Nano), r.Attempts, r.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting result %s: %w", r.Condition, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing result %s: %w", r.Condition, err)
	}
	return nil
}

// Records returns every row in insertion order.
func (s *SQLiteLog) Records(ctx context.Context) ([]types.RunResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, prompt_type, temperature, repetition, run_id, model,
			prompt_text, raw_response, timestamp, attempts, error
		FROM run_results ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var out []types.RunResult
	for rows.Next() {
		var (
			r         types.RunResult
			pt, ts    string
			runID     sql.NullString
			model     sql.NullString
			prompt    sql.NullString
			raw       sql.NullString
			attempts  sql.NullInt64
			errString sql.NullString
		)
		if err := rows.Scan(&r.QuestionID, &pt, &r.Temperature, &r.Repetition, &runID, &model,
			&prompt, &raw, &ts, &attempts, &errString); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.PromptType = types.PromptType(pt)
		r.RunID = runID.String
		r.Model = model.String
		r.PromptText = prompt.String
		r.RawResponse = raw.String
		r.Attempts = int(attempts.Int64)
		r.Error = errString.String
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("%w: bad timestamp %q for %s", ErrCorruptLog, ts, r.Condition)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (s *SQLiteLog) Close() error {
	return s.db.Close()
}
