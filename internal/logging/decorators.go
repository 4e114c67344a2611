package logging

import (
	"context"
	"log/slog"
	"time"

	"helix/internal/lookup"
	"helix/internal/twitch"
)

// UserLookupLogger wraps a Lookup and logs all method calls
type UserLookupLogger struct {
	lookup lookup.Lookup
	logger *slog.Logger
}

// NewUserLookupLogger creates a new logging decorator for Lookup
func NewUserLookupLogger(l lookup.Lookup, logger *slog.Logger) lookup.Lookup {
	return &UserLookupLogger{
		lookup: l,
		logger: logger.With("interface", "Lookup"),
	}
}

func (l *UserLookupLogger) User(ctx context.Context, login string) (*twitch.User, error) {
	start := time.Now()
	l.logger.Debug("User called",
		"login", login)

	user, err := l.lookup.User(ctx, login)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("User failed",
			"login", login,
			"duration", duration,
			"error", err)
		return nil, err
	}

	l.logger.Debug("User completed",
		"login", login,
		"user_id", user.ID,
		"duration", duration)

	return user, nil
}

func (l *UserLookupLogger) Users(ctx context.Context, logins []string) ([]twitch.User, error) {
	start := time.Now()
	l.logger.Debug("Users called",
		"logins", logins)

	users, err := l.lookup.Users(ctx, logins)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("Users failed",
			"logins", logins,
			"duration", duration,
			"error", err)
		return nil, err
	}

	l.logger.Debug("Users completed",
		"requested", len(logins),
		"count", len(users),
		"duration", duration)

	return users, nil
}
