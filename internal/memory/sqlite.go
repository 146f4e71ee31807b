// Package memory provides SQLite-backed persistence for the QuestForge engine.
package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx, letting
// every store method run either standalone or inside a transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store implements durable storage for tasks, completions, progression
// ledgers, daily stats and alliance missions on a single SQLite database.
type Store struct {
	db       *sql.DB
	h        dbtx
	basePath string
}

// NewStore creates a SQLite-backed store. Pass ":memory:" for an ephemeral
// database (used by tests).
func NewStore(basePath string) (*Store, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, "questforge.db")
		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite permits one writer at a time. A single pooled connection avoids
	// SQLITE_BUSY under concurrent engine paths and keeps a :memory: database
	// from splitting into one empty database per pool connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &Store{db: db, h: db, basePath: basePath}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn against a store view bound to one transaction. Any error from
// fn rolls back every write; mutations land together or not at all. Nesting
// reuses the outer transaction.
func (s *Store) InTx(fn func(tx *Store) error) error {
	if _, ok := s.h.(*sql.Tx); ok {
		return fn(s)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	view := &Store{db: s.db, h: tx, basePath: s.basePath}
	if err := fn(view); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// initSchema creates the database tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		category TEXT,
		difficulty TEXT NOT NULL,
		importance TEXT NOT NULL,
		status TEXT NOT NULL,
		due_at TEXT,
		recur_unit TEXT,
		recur_every INTEGER,
		recur_start TEXT,
		recur_end TEXT,
		parent_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		completed_at TEXT,
		synced INTEGER NOT NULL DEFAULT 0
	);

	-- Idempotency key for recurrence expansion: one instance per master per
	-- scheduled due time, enforced even under concurrent expander passes.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_parent_due
		ON tasks(parent_id, due_at) WHERE parent_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_tasks_owner_status ON tasks(owner_id, status);
	CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(status, due_at);

	-- Append-only completion history.
	CREATE TABLE IF NOT EXISTS completions (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		importance TEXT NOT NULL,
		xp_awarded INTEGER NOT NULL,
		completed_at TEXT NOT NULL,
		day TEXT NOT NULL,
		synced INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_completions_owner_day ON completions(owner_id, day, difficulty);

	CREATE TABLE IF NOT EXISTS progression_ledgers (
		user_id TEXT PRIMARY KEY,
		level INTEGER NOT NULL DEFAULT 0,
		xp INTEGER NOT NULL DEFAULT 0,
		pp INTEGER NOT NULL DEFAULT 0,
		coins INTEGER NOT NULL DEFAULT 0,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_active_day TEXT,
		updated_at TEXT NOT NULL,
		synced INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		tasks_completed INTEGER NOT NULL DEFAULT 0,
		xp_earned INTEGER NOT NULL DEFAULT 0,
		streak INTEGER NOT NULL DEFAULT 0,
		synced INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, day)
	);

	CREATE TABLE IF NOT EXISTS missions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		boss_name TEXT NOT NULL,
		max_health INTEGER NOT NULL,
		boss_health INTEGER NOT NULL,
		status TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		synced INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS mission_members (
		mission_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		damage_dealt INTEGER NOT NULL DEFAULT 0,
		store_visits INTEGER NOT NULL DEFAULT 0,
		attacks INTEGER NOT NULL DEFAULT 0,
		easy_completions INTEGER NOT NULL DEFAULT 0,
		hard_completions INTEGER NOT NULL DEFAULT 0,
		chat_days INTEGER NOT NULL DEFAULT 0,
		no_failed_tasks INTEGER NOT NULL DEFAULT 1,
		joined_at TEXT NOT NULL,
		synced INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (mission_id, user_id),
		FOREIGN KEY (mission_id) REFERENCES missions(id) ON DELETE CASCADE
	);

	-- Per-member per-day attack tally, feeding the diminishing damage rule.
	CREATE TABLE IF NOT EXISTS mission_attack_days (
		mission_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		attacks INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (mission_id, user_id, day),
		FOREIGN KEY (mission_id) REFERENCES missions(id) ON DELETE CASCADE
	);

	-- Distinct chat days per member, so repeated messages on one day count once.
	CREATE TABLE IF NOT EXISTS mission_chat_days (
		mission_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		PRIMARY KEY (mission_id, user_id, day),
		FOREIGN KEY (mission_id) REFERENCES missions(id) ON DELETE CASCADE
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// nullTimeString returns nil for nil/zero time, UTC RFC3339 string otherwise.
func nullTimeString(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// timeString formats a required timestamp column. Timestamps are normalized
// to UTC before writing: stored strings are compared lexicographically, and
// a zone offset would break that ordering.
func timeString(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
