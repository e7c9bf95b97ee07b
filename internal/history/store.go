// Package history records completed merges in a local sqlite database.
package history

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

// Merge is one recorded merge run.
type Merge struct {
	ID          int64     `db:"id"`
	Source      string    `db:"source"`
	FileCount   int       `db:"file_count"`
	ByteCount   int       `db:"byte_count"`
	TokenCount  int       `db:"token_count"`
	Destination string    `db:"destination"`
	CreatedAt   time.Time `db:"created_at"`
}

// Store wraps the sqlite-backed history table.
type Store struct {
	DB     *sqlx.DB
	Logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS merges (
	id INTEGER PRIMARY KEY,
	source TEXT NOT NULL,
	file_count INTEGER NOT NULL,
	byte_count INTEGER NOT NULL,
	token_count INTEGER NOT NULL,
	destination TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Open connects to the sqlite database at path, creating the schema if
// needed. Use ":memory:" for an ephemeral store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{DB: db, Logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Record inserts one merge row. CreatedAt defaults to now when unset.
func (s *Store) Record(m Merge) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := s.DB.Exec(
		"INSERT INTO merges (source, file_count, byte_count, token_count, destination, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		m.Source, m.FileCount, m.ByteCount, m.TokenCount, m.Destination, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record merge: %w", err)
	}
	return nil
}

// Recent returns up to n merges, newest first.
func (s *Store) Recent(n int) ([]Merge, error) {
	var merges []Merge
	err := s.DB.Select(&merges, "SELECT * FROM merges ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("list merges: %w", err)
	}
	return merges, nil
}
