// Package prefs persists per-user presentation settings in a local
// SQLite file. Currently that is just the theme choice.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var ErrUnknownTheme = errors.New("prefs: unknown theme")

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	user_id TEXT PRIMARY KEY,
	theme   TEXT NOT NULL
);`

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create preferences directory: %w", err)
	}

	// modernc's driver takes pragmas in _pragma=name(value) form; the
	// mattn-style _journal/_busy_timeout keys are silently ignored.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open preferences db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping preferences db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create preferences schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Theme returns the stored theme for userID, defaulting to light.
func (s *Store) Theme(ctx context.Context, userID string) (string, error) {
	var theme string
	err := s.db.QueryRowContext(ctx,
		`SELECT theme FROM preferences WHERE user_id = ?`, userID).Scan(&theme)
	if errors.Is(err, sql.ErrNoRows) {
		return ThemeLight, nil
	}
	if err != nil {
		return "", fmt.Errorf("read theme: %w", err)
	}
	return theme, nil
}

// SetTheme stores the theme for userID, rejecting unknown values.
func (s *Store) SetTheme(ctx context.Context, userID, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, theme) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET theme = excluded.theme`,
		userID, theme)
	if err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	return nil
}
