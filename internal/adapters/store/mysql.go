package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/email-verifier/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the result and summary sinks
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL and makes sure the schema exists
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	store, err := NewMySQLStoreFromDB(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewMySQLStoreFromDB wraps an open connection pool and creates the tables
func NewMySQLStoreFromDB(db *sql.DB, logger *zap.Logger) (*MySQLStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS verification_results (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id CHAR(36) NOT NULL,
			email VARCHAR(320) NOT NULL,
			is_reachable VARCHAR(255) NULL,
			payload JSON NULL,
			error TEXT NULL,
			attempts INT NOT NULL,
			completed_at DATETIME(6) NOT NULL,
			INDEX idx_run_id (run_id)
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create results table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS run_summaries (
			run_id CHAR(36) PRIMARY KEY,
			total INT NOT NULL,
			successful INT NOT NULL,
			failed INT NOT NULL,
			classifications JSON NOT NULL,
			started_at DATETIME(6) NOT NULL,
			finished_at DATETIME(6) NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create summaries table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// SaveResult inserts a result record
func (s *MySQLStore) SaveResult(ctx context.Context, record *core.ResultRecord) error {
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

// SaveSummary inserts or updates the summary of a run
func (s *MySQLStore) SaveSummary(ctx context.Context, record *core.SummaryRecord) error {
	classifications, err := classificationsColumn(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_summaries (run_id, total, successful, failed, classifications, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total = VALUES(total),
			successful = VALUES(successful),
			failed = VALUES(failed),
			classifications = VALUES(classifications),
			finished_at = VALUES(finished_at)
	`, record.RunID, record.Total, record.Successful, record.Failed, classifications,
		record.StartedAt.UTC(), record.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}

	s.logger.Debug("Stored run summary", zap.String("run_id", record.RunID))
	return nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close MySQL database: %w", err)
	}
	return nil
}
