package storage

import (
	"context"
	"errors"
	"time"

	"helix/internal/twitch"
)

var ErrUserNotFound = errors.New("user not found in cache")

// CachedUser is a Helix user record together with the time it was fetched
type CachedUser struct {
	User      twitch.User
	FetchedAt time.Time
}

// UserStore defines the interface for the user lookup cache
type UserStore interface {
	// GetUser returns the cached record for a lower-cased login or ErrUserNotFound
	GetUser(ctx context.Context, login string) (*CachedUser, error)
	// SaveUsers upserts users keyed by their lower-cased login
	SaveUsers(ctx context.Context, users []twitch.User, fetchedAt time.Time) error
	// DeleteExpired removes records fetched before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// Lifecycle
	Close() error
}
