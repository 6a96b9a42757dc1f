package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/prospect-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ResultStore = (*Store)(nil)

// Store persists research runs in SQLite. Each run gets a row in runs
// plus one row per driver result; source payloads are stored as JSON.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.prospect/data/prospect.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".prospect", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "prospect.db")

	// WAL mode so reads never block the writer.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveBundle stores a run and its per-driver results in one transaction.
func (s *Store) SaveBundle(ctx context.Context, bundle *domain.ResultBundle) error {
	entityJSON, err := json.Marshal(bundle.Entity)
	if err != nil {
		return fmt.Errorf("encoding entity: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, entity_name, entity_json, completed_at)
		VALUES (?, ?, ?, ?)`,
		bundle.RunID, bundle.Entity.Name, string(entityJSON), bundle.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for name, r := range bundle.Results {
		var dataJSON sql.NullString
		if r.Data != nil {
			encoded, err := json.Marshal(r.Data)
			if err != nil {
				return fmt.Errorf("encoding %s data: %w", name, err)
			}
			dataJSON = sql.NullString{String: string(encoded), Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO driver_results
				(run_id, driver_name, status, data_json, error_kind, error_message,
				 started_at, completed_at, attempts_used, progress_percent)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bundle.RunID, name, string(r.Status), dataJSON,
			string(r.ErrorKind), r.ErrorMessage,
			nullTime(r.StartedAt), nullTime(r.CompletedAt),
			r.AttemptsUsed, r.ProgressPercent)
		if err != nil {
			return fmt.Errorf("inserting %s result: %w", name, err)
		}
	}

	return tx.Commit()
}

// GetBundle loads a stored run by ID.
func (s *Store) GetBundle(ctx context.Context, runID string) (*domain.ResultBundle, error) {
	bundle := &domain.ResultBundle{
		RunID:   runID,
		Results: make(map[string]domain.DriverResult),
	}

	var entityJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT entity_json, completed_at FROM runs WHERE run_id = ?`, runID).
		Scan(&entityJSON, &bundle.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", runID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	if err := json.Unmarshal([]byte(entityJSON), &bundle.Entity); err != nil {
		return nil, fmt.Errorf("decoding entity: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT driver_name, status, data_json, error_kind, error_message,
		       started_at, completed_at, attempts_used, progress_percent
		FROM driver_results WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.DriverResult
		var status, errorKind string
		var dataJSON sql.NullString
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(&r.DriverName, &status, &dataJSON, &errorKind,
			&r.ErrorMessage, &startedAt, &completedAt,
			&r.AttemptsUsed, &r.ProgressPercent); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}

		r.Status = domain.DriverStatus(status)
		r.ErrorKind = domain.ErrorKind(errorKind)
		if dataJSON.Valid {
			if err := json.Unmarshal([]byte(dataJSON.String), &r.Data); err != nil {
				return nil, fmt.Errorf("decoding %s data: %w", r.DriverName, err)
			}
		}
		if startedAt.Valid {
			r.StartedAt = startedAt.Time
		}
		if completedAt.Valid {
			r.CompletedAt = completedAt.Time
		}
		bundle.Results[r.DriverName] = r
	}
	return bundle, rows.Err()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.entity_name, r.completed_at,
		       COALESCE(SUM(dr.status = 'completed'), 0),
		       COALESCE(SUM(dr.status = 'failed'), 0),
		       COALESCE(SUM(dr.status IN ('disabled', 'missing_credential')), 0)
		FROM runs r
		LEFT JOIN driver_results dr ON dr.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.completed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var summaries []domain.RunSummary
	for rows.Next() {
		var summary domain.RunSummary
		if err := rows.Scan(&summary.RunID, &summary.EntityName, &summary.CompletedAt,
			&summary.Completed, &summary.Failed, &summary.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// migrate applies pending *.up.sql files in version order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
