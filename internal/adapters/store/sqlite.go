package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/email-verifier/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the result and summary sinks
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS verification_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			email TEXT NOT NULL,
			is_reachable TEXT,
			payload TEXT,
			error TEXT,
			attempts INTEGER NOT NULL,
			completed_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verification_results_run_id ON verification_results(run_id)`,
		`CREATE TABLE IF NOT EXISTS run_summaries (
			run_id TEXT PRIMARY KEY,
			total INTEGER NOT NULL,
			successful INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			classifications TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// SaveResult inserts a result record
func (s *SQLiteStore) SaveResult(ctx context.Context, record *core.ResultRecord) error {
	classification, payload, errMsg, err := resultColumns(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_results (run_id, email, is_reachable, payload, error, attempts, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.RunID, record.Email, classification, payload, errMsg, record.Attempts, record.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

// SaveSummary inserts or replaces the summary of a run
func (s *SQLiteStore) SaveSummary(ctx context.Context, record *core.SummaryRecord) error {
	classifications, err := classificationsColumn(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO run_summaries (run_id, total, successful, failed, classifications, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.RunID, record.Total, record.Successful, record.Failed, classifications,
		record.StartedAt.UTC(), record.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}

	s.logger.Debug("Stored run summary", zap.String("run_id", record.RunID))
	return nil
}

// ResultsForRun returns the result records of a run in insertion order
func (s *SQLiteStore) ResultsForRun(ctx context.Context, runID string) ([]*core.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, is_reachable, payload, error, attempts
		FROM verification_results
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var records []*core.ResultRecord
	for rows.Next() {
		var classification, payload, errMsg sql.NullString
		rec := &core.ResultRecord{RunID: runID}
		if err := rows.Scan(&rec.Email, &classification, &payload, &errMsg, &rec.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		rec.Classification = classification.String
		rec.Error = errMsg.String
		if payload.Valid {
			if err := json.Unmarshal([]byte(payload.String), &rec.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode payload: %w", err)
			}
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close SQLite database: %w", err)
	}
	return nil
}
