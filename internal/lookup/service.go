// Package lookup resolves Twitch users by login through a TTL cache.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"helix/internal/storage"
	"helix/internal/twitch"
)

var (
	ErrUserNotFound = errors.New("twitch user not found")
	ErrInvalidLogin = errors.New("login must not be empty")
)

// Lookup resolves Twitch users by login
type Lookup interface {
	User(ctx context.Context, login string) (*twitch.User, error)
	Users(ctx context.Context, logins []string) ([]twitch.User, error)
}

// UserFetcher is the subset of the Twitch client used by the service
type UserFetcher interface {
	GetUserByName(ctx context.Context, username string) (*twitch.User, error)
	GetUsersByName(ctx context.Context, usernames []string) ([]twitch.User, error)
}

// Config configures the lookup service
type Config struct {
	// TTL is how long cached users are served; zero disables the cache
	TTL   time.Duration
	Clock twitch.Clock
}

// Service implements Lookup on top of a UserFetcher and an optional UserStore
type Service struct {
	fetcher UserFetcher
	store   storage.UserStore
	ttl     time.Duration
	clock   twitch.Clock
	logger  *slog.Logger
}

// NewService creates a lookup service. store may be nil.
func NewService(fetcher UserFetcher, store storage.UserStore, config Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	clock := config.Clock
	if clock == nil {
		clock = twitch.RealClock{}
	}
	return &Service{
		fetcher: fetcher,
		store:   store,
		ttl:     config.TTL,
		clock:   clock,
		logger:  logger.With("component", "lookup"),
	}
}

// User returns the user for login, from cache when fresh
func (s *Service) User(ctx context.Context, login string) (*twitch.User, error) {
	login = normalizeLogin(login)
	if login == "" {
		return nil, ErrInvalidLogin
	}

	if cached := s.cached(ctx, login); cached != nil {
		return cached, nil
	}

	user, err := s.fetcher.GetUserByName(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %q: %w", login, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, login)
	}

	s.save(ctx, []twitch.User{*user})
	return user, nil
}

// Users resolves many logins. Cache hits come first, followed by the users
// fetched in one request for the misses. Unknown logins are omitted.
func (s *Service) Users(ctx context.Context, logins []string) ([]twitch.User, error) {
	seen := make(map[string]struct{}, len(logins))
	users := make([]twitch.User, 0, len(logins))
	var misses []string

	for _, login := range logins {
		login = normalizeLogin(login)
		if login == "" {
			continue
		}
		if _, dup := seen[login]; dup {
			continue
		}
		seen[login] = struct{}{}

		if cached := s.cached(ctx, login); cached != nil {
			users = append(users, *cached)
			continue
		}
		misses = append(misses, login)
	}

	if len(seen) == 0 {
		return nil, ErrInvalidLogin
	}
	if len(misses) == 0 {
		return users, nil
	}

	fetched, err := s.fetcher.GetUsersByName(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %d users: %w", len(misses), err)
	}

	s.save(ctx, fetched)
	return append(users, fetched...), nil
}

// cached returns a fresh cached user or nil. Store failures are logged and
// treated as misses.
func (s *Service) cached(ctx context.Context, login string) *twitch.User {
	if s.store == nil || s.ttl <= 0 {
		return nil
	}

	entry, err := s.store.GetUser(ctx, login)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			s.logger.Warn("Cache read failed", "login", login, "error", err)
		}
		return nil
	}

	if s.clock.Now().Sub(entry.FetchedAt) >= s.ttl {
		return nil
	}
	return &entry.User
}

func (s *Service) save(ctx context.Context, users []twitch.User) {
	if s.store == nil || s.ttl <= 0 || len(users) == 0 {
		return
	}
	if err := s.store.SaveUsers(ctx, users, s.clock.Now()); err != nil {
		s.logger.Warn("Cache write failed", "count", len(users), "error", err)
	}
}

// Prune removes cache entries older than the TTL
func (s *Service) Prune(ctx context.Context) (int64, error) {
	if s.store == nil || s.ttl <= 0 {
		return 0, nil
	}
	return s.store.DeleteExpired(ctx, s.clock.Now().Add(-s.ttl))
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

var _ Lookup = (*Service)(nil)
