package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"oven/internal/config"
	"oven/internal/lifecycle"
	"oven/internal/notifications"
)

// Store persists delivery results.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Entry is one journaled delivery.
type Entry struct {
	ID        int64
	SessionID string
	Signal    string
	Backend   string
	OK        bool
	Error     string
	Elapsed   time.Duration
	CreatedAt time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the journal at cfg.HistoryPath().
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("history: nil config")
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath initializes or connects to the journal at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record journals every result of outcome for one signal.
func (s *Store) Record(ctx context.Context, sessionID string, sig lifecycle.Signal, outcome notifications.Outcome) error {
	if s == nil || len(outcome.Results) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	created := s.now().UTC().Format(time.RFC3339Nano)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO deliveries
			(session_id, signal, backend, ok, error, elapsed_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, res := range outcome.Results {
			ok := 1
			if res.HasError {
				ok = 0
			}
			if _, err := stmt.ExecContext(ctx, sessionID, sig.String(), res.Backend, ok, res.Error, res.Elapsed.Milliseconds(), created); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.query(ctx, `SELECT id, session_id, signal, backend, ok, error, elapsed_ms, created_at
		FROM deliveries ORDER BY id DESC LIMIT ?`, normalizeLimit(limit))
}

// Session returns every entry of one session in insertion order.
func (s *Store) Session(ctx context.Context, sessionID string) ([]Entry, error) {
	return s.query(ctx, `SELECT id, session_id, signal, backend, ok, error, elapsed_ms, created_at
		FROM deliveries WHERE session_id = ? ORDER BY id ASC`, sessionID)
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, "DELETE FROM deliveries")
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			ok      int
			elapsed int64
			created string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Signal, &e.Backend, &ok, &e.Error, &elapsed, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.OK = ok == 1
		e.Elapsed = time.Duration(elapsed) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}
