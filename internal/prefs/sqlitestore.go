package prefs

import (
	"database/sql"
	"errors"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/muurk/musikremote/internal/logging"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS prefs (
	key   TEXT PRIMARY KEY CHECK (length(key) > 0),
	kind  TEXT NOT NULL,
	value TEXT NOT NULL
);`

// SQLiteStore is a Store backed by a single SQLite table
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, newIOError("open", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite single-writer

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, newIOError("migrate", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string { return s.path }

// Get implements Store. Query failures are logged and reported as absent,
// which makes the caller fall back to the default.
func (s *SQLiteStore) Get(key Key, kind Kind) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Value{}, false
	}

	var storedKind, raw string
	err := s.db.QueryRow("SELECT kind, value FROM prefs WHERE key = ?", string(key)).Scan(&storedKind, &raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.Warn("Preference read failed",
				zap.String("key", string(key)),
				zap.Error(err),
			)
		}
		return Value{}, false
	}
	if storedKind != kind.String() {
		return Value{}, false
	}

	v, err := DecodeValue(kind, raw)
	if err != nil {
		logging.Warn("Ignoring undecodable preference",
			zap.String("key", string(key)),
			zap.Error(err),
		)
		return Value{}, false
	}
	return v, true
}

// CommitBatch implements Store using one transaction
func (s *SQLiteStore) CommitBatch(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return newIOError("begin", s.path, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO prefs (key, kind, value) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, value = excluded.value`)
	if err != nil {
		_ = tx.Rollback()
		return newIOError("prepare", s.path, err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(string(e.Key), e.Value.Kind().String(), e.Value.Encode()); err != nil {
			_ = tx.Rollback()
			return newIOError("write "+string(e.Key)+" to", s.path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return newIOError("commit", s.path, err)
	}
	return nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
