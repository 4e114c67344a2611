package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"helix/internal/storage"
	"helix/internal/twitch"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements storage.UserStore using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New opens (or creates) the cache database at dbPath
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema
func (s *SQLiteStorage) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			login TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_fetched_at ON users(fetched_at);
		CREATE INDEX IF NOT EXISTS idx_users_user_id ON users(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetUser returns the cached user for login
func (s *SQLiteStorage) GetUser(ctx context.Context, login string) (*storage.CachedUser, error) {
	var payload string
	var fetchedAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT payload, fetched_at FROM users WHERE login = ?
	`, normalizeLogin(login)).Scan(&payload, &fetchedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	cached := &storage.CachedUser{FetchedAt: time.UnixMilli(fetchedAt).UTC()}
	if err := json.Unmarshal([]byte(payload), &cached.User); err != nil {
		return nil, fmt.Errorf("failed to decode cached user %q: %w", login, err)
	}

	return cached, nil
}

// SaveUsers upserts users in a single transaction
func (s *SQLiteStorage) SaveUsers(ctx context.Context, users []twitch.User, fetchedAt time.Time) error {
	if len(users) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (login, user_id, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(login) DO UPDATE SET
			user_id = excluded.user_id,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, user := range users {
		if user.Login == "" {
			continue
		}
		payload, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to encode user %q: %w", user.Login, err)
		}
		if _, err := stmt.ExecContext(ctx, normalizeLogin(user.Login), user.ID, string(payload), fetchedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to save user %q: %w", user.Login, err)
		}
	}

	return tx.Commit()
}

// DeleteExpired removes users fetched before the given time
func (s *SQLiteStorage) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE fetched_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

var _ storage.UserStore = (*SQLiteStorage)(nil)
