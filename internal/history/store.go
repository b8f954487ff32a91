// Package history persists validation runs.
//
// It uses SQLite with FTS5 full-text search so past reports can be found by
// document name, verdict, or the wording of their issues. Re-validating the
// same document updates its existing run instead of adding a new one.
package history

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/validation"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("history: run not found")

// ─── Types ───────────────────────────────────────────────────────────────────

// Run is one stored validation run.
type Run struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	DocHash        string          `json:"doc_hash"`
	Status         string          `json:"status"`
	TotalChecks    int             `json:"total_checks"`
	Failed         int             `json:"failed"`
	Warnings       int             `json:"warnings"`
	NeedsReview    int             `json:"needs_review"`
	CriticalFailed int             `json:"critical_failed"`
	Issues         string          `json:"issues"`
	Report         json.RawMessage `json:"report,omitempty"`
	RunCount       int             `json:"run_count"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

// SearchResult embeds a Run with its FTS5 rank score.
type SearchResult struct {
	Run
	Rank float64 `json:"rank"`
}

// SearchOptions holds filters for Search.
type SearchOptions struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// SaveRunParams holds the input for SaveRun.
type SaveRunParams struct {
	Name     string
	Document string
	Report   *validation.Report
}

// Stats holds aggregate history statistics.
type Stats struct {
	TotalRuns int            `json:"total_runs"`
	ByStatus  map[string]int `json:"by_status"`
	LastRunAt string         `json:"last_run_at,omitempty"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds history store configuration.
type Config struct {
	DataDir          string
	MaxSearchResults int
	MaxIssueLength   int
}

// DefaultConfig returns the default configuration for the history store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".cfbench"),
		MaxSearchResults: 50,
		MaxIssueLength:   8000,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the run history backed by SQLite + FTS5.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store. It creates the data directory if needed, opens
// SQLite in WAL mode and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = DefaultConfig().MaxSearchResults
	}
	if cfg.MaxIssueLength <= 0 {
		cfg.MaxIssueLength = DefaultConfig().MaxIssueLength
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "history.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id              TEXT    PRIMARY KEY,
			name            TEXT    NOT NULL,
			doc_hash        TEXT    NOT NULL UNIQUE,
			status          TEXT    NOT NULL,
			total_checks    INTEGER NOT NULL DEFAULT 0,
			failed          INTEGER NOT NULL DEFAULT 0,
			warnings        INTEGER NOT NULL DEFAULT 0,
			needs_review    INTEGER NOT NULL DEFAULT 0,
			critical_failed INTEGER NOT NULL DEFAULT 0,
			issues          TEXT    NOT NULL DEFAULT '',
			report          TEXT    NOT NULL,
			run_count       INTEGER NOT NULL DEFAULT 1,
			created_at      TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at      TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_runs_status  ON runs(status);
		CREATE INDEX IF NOT EXISTS idx_runs_updated ON runs(updated_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS runs_fts USING fts5(
			name,
			status,
			issues,
			content='runs',
			content_rowid='rowid'
		);

		CREATE TRIGGER IF NOT EXISTS runs_fts_insert AFTER INSERT ON runs BEGIN
			INSERT INTO runs_fts(rowid, name, status, issues)
			VALUES (new.rowid, new.name, new.status, new.issues);
		END;

		CREATE TRIGGER IF NOT EXISTS runs_fts_delete AFTER DELETE ON runs BEGIN
			INSERT INTO runs_fts(runs_fts, rowid, name, status, issues)
			VALUES ('delete', old.rowid, old.name, old.status, old.issues);
		END;

		CREATE TRIGGER IF NOT EXISTS runs_fts_update AFTER UPDATE ON runs BEGIN
			INSERT INTO runs_fts(runs_fts, rowid, name, status, issues)
			VALUES ('delete', old.rowid, old.name, old.status, old.issues);
			INSERT INTO runs_fts(rowid, name, status, issues)
			VALUES (new.rowid, new.name, new.status, new.issues);
		END;
	`)
	return err
}

// ─── Runs ────────────────────────────────────────────────────────────────────

// SaveRun stores a run and returns its id. A document already in history
// (same normalized content) has its run updated in place; updated reports
// whether that happened.
func (s *Store) SaveRun(p SaveRunParams) (id string, updated bool, err error) {
	if p.Report == nil {
		return "", false, errors.New("history: save run: nil report")
	}
	report, err := json.Marshal(p.Report)
	if err != nil {
		return "", false, fmt.Errorf("history: encode report: %w", err)
	}
	hash := hashNormalized(p.Document)
	issues := Truncate(issueText(p.Report), s.cfg.MaxIssueLength)
	sum := p.Report.Summary
	now := Now()

	tx, err := s.db.Begin()
	if err != nil {
		return "", false, fmt.Errorf("history: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRow("SELECT id FROM runs WHERE doc_hash = ?", hash).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.Exec(`
			INSERT INTO runs (id, name, doc_hash, status, total_checks, failed, warnings,
			                  needs_review, critical_failed, issues, report, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.Name, hash, sum.Status, sum.Total, sum.Failed, sum.Warnings,
			sum.NeedsReview, sum.CriticalFailed, issues, string(report), now, now)
		if err != nil {
			return "", false, fmt.Errorf("history: insert run: %w", err)
		}
	case err != nil:
		return "", false, fmt.Errorf("history: lookup run: %w", err)
	default:
		updated = true
		_, err = tx.Exec(`
			UPDATE runs
			SET name = ?, status = ?, total_checks = ?, failed = ?, warnings = ?,
			    needs_review = ?, critical_failed = ?, issues = ?, report = ?,
			    run_count = run_count + 1, updated_at = ?
			WHERE id = ?`,
			p.Name, sum.Status, sum.Total, sum.Failed, sum.Warnings,
			sum.NeedsReview, sum.CriticalFailed, issues, string(report), now, id)
		if err != nil {
			return "", false, fmt.Errorf("history: update run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("history: commit: %w", err)
	}
	return id, updated, nil
}

const runColumns = `r.id, r.name, r.doc_hash, r.status, r.total_checks, r.failed, r.warnings,
	r.needs_review, r.critical_failed, r.issues, r.run_count, r.created_at, r.updated_at`

func scanRun(sc interface{ Scan(...any) error }, r *Run, extra ...any) error {
	dest := []any{&r.ID, &r.Name, &r.DocHash, &r.Status, &r.TotalChecks, &r.Failed, &r.Warnings,
		&r.NeedsReview, &r.CriticalFailed, &r.Issues, &r.RunCount, &r.CreatedAt, &r.UpdatedAt}
	return sc.Scan(append(dest, extra...)...)
}

// GetRun returns a run with its full report.
func (s *Store) GetRun(id string) (*Run, error) {
	var r Run
	var report string
	row := s.db.QueryRow("SELECT "+runColumns+", r.report FROM runs r WHERE r.id = ?", id)
	if err := scanRun(row, &r, &report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("history: get run: %w", err)
	}
	r.Report = json.RawMessage(report)
	return &r, nil
}

// DeleteRun removes a run.
func (s *Store) DeleteRun(id string) error {
	res, err := s.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("history: delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// RecentRuns returns the most recently updated runs, without reports.
func (s *Store) RecentRuns(status string, limit int) ([]Run, error) {
	limit = s.clampLimit(limit)
	q := "SELECT " + runColumns + " FROM runs r"
	args := []any{}
	if status != "" {
		q += " WHERE r.status = ?"
		args = append(args, strings.ToUpper(status))
	}
	q += " ORDER BY r.updated_at DESC, r.rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		if err := scanRun(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ─── Search ──────────────────────────────────────────────────────────────────

// Search finds runs by full-text query over name, verdict and issues. An
// empty query falls back to the most recent runs.
func (s *Store) Search(query string, opts SearchOptions) ([]SearchResult, error) {
	limit := s.clampLimit(opts.Limit)
	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		runs, err := s.RecentRuns(opts.Status, limit)
		if err != nil {
			return nil, err
		}
		out := make([]SearchResult, len(runs))
		for i, r := range runs {
			out[i] = SearchResult{Run: r}
		}
		return out, nil
	}

	q := "SELECT " + runColumns + `, fts.rank
		FROM runs_fts fts
		JOIN runs r ON r.rowid = fts.rowid
		WHERE runs_fts MATCH ?`
	args := []any{ftsQuery}
	if opts.Status != "" {
		q += " AND r.status = ?"
		args = append(args, strings.ToUpper(opts.Status))
	}
	q += " ORDER BY fts.rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SearchResult
	for rows.Next() {
		var sr SearchResult
		if err := scanRun(rows, &sr.Run, &sr.Rank); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate history statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{ByStatus: map[string]int{}}
	rows, err := s.db.Query("SELECT status, COUNT(*) FROM runs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("history: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = n
		stats.TotalRuns += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var last sql.NullString
	_ = s.db.QueryRow("SELECT MAX(updated_at) FROM runs").Scan(&last)
	stats.LastRunAt = last.String
	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Store) clampLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}
	return limit
}

// issueText flattens a report's issues and warnings into searchable lines.
func issueText(r *validation.Report) string {
	var b strings.Builder
	for _, c := range r.Checks() {
		for _, msg := range c.Issues {
			fmt.Fprintf(&b, "%s: %s\n", c.ID, msg)
		}
		for _, msg := range c.Warnings {
			fmt.Fprintf(&b, "%s: %s\n", c.ID, msg)
		}
	}
	return strings.TrimSpace(b.String())
}

func hashNormalized(content string) string {
	normalized := strings.Join(strings.Fields(content), " ")
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "model breaking" → `"model" "breaking"`
func sanitizeFTS(query string) string {
	var words []string
	for _, w := range strings.Fields(query) {
		if w = strings.ReplaceAll(w, `"`, ""); w != "" {
			words = append(words, `"`+w+`"`)
		}
	}
	return strings.Join(words, " ")
}

// Truncate shortens s to at most max runes, marking the cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// Now returns the current time formatted for SQLite.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
