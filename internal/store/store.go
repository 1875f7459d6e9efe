// Package store persists decision reports in SQLite. The venture column
// holds codec-encoded text; Get and List decode it on the way out.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"venturelens/internal/codec"
	"venturelens/internal/schema"
)

// ReportStore holds finished decision reports.
type ReportStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewReportStore initializes the SQLite database at the given path.
func NewReportStore(path string) (*ReportStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	// Best effort tuning; an in-memory database ignores WAL
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		_, _ = db.Exec(pragma)
	}

	store := &ReportStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initialize creates the required tables.
func (s *ReportStore) initialize() error {
	reportsTable := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		venture TEXT NOT NULL,
		report_json TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		degraded INTEGER NOT NULL,
		solution_count INTEGER NOT NULL,
		recommended TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	`

	for _, table := range []string{reportsTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// Save writes a report together with the venture it analyzed. Saving an
// existing id replaces the stored report.
func (s *ReportStore) Save(report *schema.DecisionReport, venture schema.Venture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO reports
		 (id, venture, report_json, confidence, degraded, solution_count, recommended, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		codec.Encode(venture.Description),
		string(reportJSON),
		report.Confidence,
		len(report.DegradedStages),
		len(report.Solutions),
		report.RecommendedID,
		report.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Get loads a report and its venture description by id.
func (s *ReportStore) Get(id string) (*schema.DecisionReport, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reportJSON, encodedVenture string
	err := s.db.QueryRow(
		"SELECT report_json, venture FROM reports WHERE id = ?", id,
	).Scan(&reportJSON, &encodedVenture)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("report not found: %s", id)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load report: %w", err)
	}

	var report schema.DecisionReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, "", fmt.Errorf("failed to parse stored report: %w", err)
	}

	venture, err := codec.Decode(encodedVenture)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode venture: %w", err)
	}

	return &report, venture, nil
}

// ReportSummary is one row of a report listing.
type ReportSummary struct {
	ID            string
	Venture       string
	Confidence    int
	Degraded      int
	SolutionCount int
	Recommended   string
	CreatedAt     time.Time
}

// List returns the most recent reports, newest first.
func (s *ReportStore) List(limit int) ([]ReportSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, venture, confidence, degraded, solution_count, recommended, created_at
		 FROM reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var summaries []ReportSummary
	for rows.Next() {
		var summary ReportSummary
		var encodedVenture, createdAt string
		if err := rows.Scan(&summary.ID, &encodedVenture, &summary.Confidence,
			&summary.Degraded, &summary.SolutionCount, &summary.Recommended, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		if venture, err := codec.Decode(encodedVenture); err == nil {
			summary.Venture = venture
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			summary.CreatedAt = ts
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// Delete removes a report. Deleting an unknown id reports an error.
func (s *ReportStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report not found: %s", id)
	}
	return nil
}

// Stats returns store counters.
func (s *ReportStore) Stats() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int64)
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM reports").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	stats["reports"] = count
	return stats, nil
}
