package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sketchover/internal/logging"
)

const currentKey = "current"

// SQLite keeps the session as a blob row, with earlier versions in a
// backups table and rejected sessions in a quarantine table.
type SQLite struct {
	conn    *sql.DB
	backups int
}

// NewSQLite opens (or creates) the database at dbPath.
func NewSQLite(dbPath string, backups int) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer
	conn.SetMaxOpenConns(1)

	db := &SQLite{conn: conn, backups: backups}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			slot TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			saved_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_backups (
			id TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			saved_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_quarantine (
			id TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			quarantined_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backups_saved ON session_backups(saved_at)`,
	}
	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the current session blob.
func (db *SQLite) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := db.conn.QueryRowContext(ctx, `SELECT data FROM sessions WHERE slot = ?`, currentKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return data, nil
}

// Save replaces the current session, moving the previous one into the
// backups table, in one transaction.
func (db *SQLite) Save(ctx context.Context, data []byte) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixNano()
	if db.backups > 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_backups (id, data, saved_at)
			 SELECT ?, data, saved_at FROM sessions WHERE slot = ?`,
			uuid.NewString(), currentKey); err != nil {
			return fmt.Errorf("backup session: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM session_backups WHERE id NOT IN (
				SELECT id FROM session_backups ORDER BY saved_at DESC LIMIT ?)`,
			db.backups); err != nil {
			return fmt.Errorf("prune backups: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (slot, data, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		currentKey, data, now); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return tx.Commit()
}

// BackupCount reports how many earlier versions are kept.
func (db *SQLite) BackupCount(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_backups`).Scan(&n)
	return n, err
}

// Quarantine moves the current session into the quarantine table.
func (db *SQLite) Quarantine(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin quarantine: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO session_quarantine (id, data, quarantined_at)
		 SELECT ?, data, ? FROM sessions WHERE slot = ?`,
		id, time.Now().UnixNano(), currentKey)
	if err != nil {
		return fmt.Errorf("quarantine session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE slot = ?`, currentKey); err != nil {
		return fmt.Errorf("quarantine session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logging.Logger().Warn("store: corrupt session moved aside", "id", id)
	}
	return nil
}

// Close closes the database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}
