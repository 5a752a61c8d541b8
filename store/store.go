// Package store persists user settings and saved SQL snippets in a sqlite
// database under the user config directory.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Snippet is a saved SQL fragment.
type Snippet struct {
	ID        int64
	Name      string
	SQL       string
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

func dbPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(configDir, "querypad")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "querypad.db"), nil
}

func New() (*Store, error) {
	path, err := dbPath()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newWithDB(db)
}

// newWithDB wraps an already-open database, used with :memory: in tests.
func newWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			sql_text TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Snippets

func (s *Store) AddSnippet(name, sqlText string) error {
	_, err := s.db.Exec(
		`INSERT INTO snippets (name, sql_text, created_at) VALUES (?, ?, ?)`,
		name, sqlText, time.Now(),
	)
	return err
}

func (s *Store) ListSnippets() ([]Snippet, error) {
	rows, err := s.db.Query(`SELECT id, name, sql_text, created_at FROM snippets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var snippets []Snippet
	for rows.Next() {
		var sn Snippet
		if err := rows.Scan(&sn.ID, &sn.Name, &sn.SQL, &sn.CreatedAt); err != nil {
			return nil, err
		}
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

func (s *Store) DeleteSnippet(id int64) error {
	_, err := s.db.Exec(`DELETE FROM snippets WHERE id = ?`, id)
	return err
}

// Settings

func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}
