// Package session owns the portal client's bearer credential: storing it,
// dropping it, deciding whether it is still usable, and reading the
// identity it carries.
//
// Decode failures never escape this package. A corrupt or tampered token
// degrades to "unauthenticated" and is removed from storage.
package session

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/algenord/portal/storage"
)

const (
	// TokenKey is the durable key holding the bearer token.
	TokenKey = "jwt_token"
	// RedirectKey is the short-lived key holding the pending redirect target.
	RedirectKey = "redirectAfterLogin"
)

// User is the identity extracted from the current token.
type User struct {
	Username  string
	Roles     []string
	ExpiresAt time.Time
}

// HasRole reports whether role is one of u's roles.
func (u *User) HasRole(role string) bool {
	return u != nil && slices.Contains(u.Roles, role)
}

// Store is the single source of truth for the current client's
// authentication state.
type Store struct {
	durable   storage.Store
	shortLive storage.Store
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for storage diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store. durable holds the token; shortLived holds the
// pending redirect target and is expected to expire on its own.
func New(durable, shortLived storage.Store, opts ...Option) *Store {
	s := &Store{
		durable:   durable,
		shortLive: shortLived,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the raw stored credential.
func (s *Store) Token(ctx context.Context) (string, bool) {
	raw, err := s.durable.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("reading token failed", zap.Error(err))
		}
		return "", false
	}
	if len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

// SetToken persists token, replacing any previous one.
func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.durable.Put(ctx, TokenKey, []byte(token))
}

// Logout removes the stored credential. Calling it without a token is a no-op.
func (s *Store) Logout(ctx context.Context) {
	if err := s.durable.Delete(ctx, TokenKey); err != nil {
		s.logger.Warn("removing token failed", zap.Error(err))
	}
}

// IsAuthenticated reports whether a decodable, unexpired token is stored.
// Malformed and expired tokens are removed as a side effect.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	token, ok := s.Token(ctx)
	if !ok {
		return false
	}
	claims, err := decodeClaims(token)
	if err != nil {
		s.logger.Debug("discarding malformed token", zap.Error(err))
		s.Logout(ctx)
		return false
	}
	// A token without exp never expires locally; the backend decides.
	if claims.ExpiresAt != nil && claims.ExpiresAt.Unix() < s.now().Unix() {
		s.Logout(ctx)
		return false
	}
	return true
}

// CurrentUser decodes the stored token without checking expiry.
func (s *Store) CurrentUser(ctx context.Context) (*User, bool) {
	token, ok := s.Token(ctx)
	if !ok {
		return nil, false
	}
	claims, err := decodeClaims(token)
	if err != nil {
		return nil, false
	}
	u := &User{Username: claims.Subject, Roles: claims.Roles}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	if claims.ExpiresAt != nil {
		u.ExpiresAt = claims.ExpiresAt.Time
	}
	return u, true
}

// HasRole reports whether the current user carries role.
func (s *Store) HasRole(ctx context.Context, role string) bool {
	u, ok := s.CurrentUser(ctx)
	if !ok {
		return false
	}
	return u.HasRole(role)
}

// SetPendingRedirect remembers the route an unauthenticated visitor tried
// to reach so the login flow can send them there afterwards.
func (s *Store) SetPendingRedirect(ctx context.Context, path string) {
	if !localPath(path) {
		s.logger.Warn("ignoring off-site redirect target", zap.String("target", path))
		return
	}
	if err := s.shortLive.Put(ctx, RedirectKey, []byte(path)); err != nil {
		s.logger.Warn("storing redirect target failed", zap.Error(err))
	}
}

// TakePendingRedirect returns the pending redirect target and clears it.
func (s *Store) TakePendingRedirect(ctx context.Context) (string, bool) {
	raw, err := s.shortLive.Get(ctx, RedirectKey)
	if err != nil {
		return "", false
	}
	if err := s.shortLive.Delete(ctx, RedirectKey); err != nil {
		s.logger.Warn("clearing redirect target failed", zap.Error(err))
	}
	target := string(raw)
	if !localPath(target) {
		s.logger.Warn("dropping off-site redirect target", zap.String("target", target))
		return "", false
	}
	return target, true
}

// localPath reports whether target stays on this site: an absolute path
// with no scheme or host, and not one a browser reads as protocol-relative.
func localPath(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	u, err := url.Parse(target)
	return err == nil && u.Scheme == "" && u.Host == ""
}
