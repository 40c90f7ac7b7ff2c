package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
)

// Store holds the current credential in memory and writes it through to a Backend.
// The backend is read once, lazily, so a credential persisted by an earlier
// process is picked up on first use.
type Store struct {
	mu      sync.RWMutex
	cred    *Credential
	loaded  bool
	backend Backend
	now     func() time.Time
	logger  *slog.Logger

	// generation changes on every write or clear.
	generation atomic.Uint64
}

type Option func(*Store)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store over backend. A nil backend keeps the credential in
// process memory only.
func NewStore(backend Backend, opts ...Option) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	s := &Store{
		backend: backend,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessToken returns the current access token, if any.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	c := s.current(ctx)
	if c == nil || c.AccessToken == "" {
		return "", false
	}
	return c.AccessToken, true
}

// RefreshToken returns the current refresh token, if any.
func (s *Store) RefreshToken(ctx context.Context) (string, bool) {
	c := s.current(ctx)
	if c == nil || c.RefreshToken == "" {
		return "", false
	}
	return c.RefreshToken, true
}

// Expiry returns the recorded expiry, if any.
func (s *Store) Expiry(ctx context.Context) (time.Time, bool) {
	c := s.current(ctx)
	if c == nil || c.Expiry.IsZero() {
		return time.Time{}, false
	}
	return c.Expiry, true
}

// Write overwrites both tokens. A positive lifetime records expiry = now + lifetime;
// otherwise no expiry is recorded.
func (s *Store) Write(ctx context.Context, access, refresh string, lifetime time.Duration) error {
	cred := &Credential{
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if lifetime > 0 {
		cred.Expiry = s.now().Add(lifetime)
	}
	return s.put(ctx, cred)
}

// WriteToken stores an oauth2 token, preferring ExpiresIn over a precomputed Expiry.
func (s *Store) WriteToken(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("nil token")
	}
	if tok.ExpiresIn > 0 {
		return s.Write(ctx, tok.AccessToken, tok.RefreshToken, time.Duration(tok.ExpiresIn)*time.Second)
	}
	return s.put(ctx, &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	})
}

// Clear removes the access token, refresh token and expiry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cred = nil
	s.loaded = true
	s.generation.Add(1)
	s.mu.Unlock()

	if err := s.backend.Delete(ctx); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// IsExpired is true iff an expiry was recorded and the current time is past it.
func (s *Store) IsExpired(ctx context.Context) bool {
	return s.current(ctx).ExpiredAt(s.now())
}

// IsAuthenticated is true iff an access token is present and not expired.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	c := s.current(ctx)
	if c == nil || c.AccessToken == "" {
		return false
	}
	return !c.ExpiredAt(s.now())
}

// Generation identifies the current credential. It changes whenever the
// credential is written or cleared, so data cached under one value must not be
// served under another.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// Token returns a snapshot of the credential as an oauth2 token, or nil.
func (s *Store) Token(ctx context.Context) *oauth2.Token {
	return s.current(ctx).Token()
}

func (s *Store) put(ctx context.Context, cred *Credential) error {
	s.mu.Lock()
	s.cred = cred
	s.loaded = true
	s.generation.Add(1)
	s.mu.Unlock()

	if err := s.backend.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// current returns a copy of the in-memory credential, loading it from the
// backend on first use. Backend read failures are logged and treated as absent.
func (s *Store) current(ctx context.Context) *Credential {
	s.mu.RLock()
	if s.loaded {
		c := s.cred
		s.mu.RUnlock()
		return copyOf(c)
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		cred, err := s.backend.Load(ctx)
		switch {
		case err == nil:
			s.cred = cred
		case errors.Is(err, ErrNotFound):
		default:
			s.logger.Warn("failed to load stored credential", "error", err)
		}
		s.loaded = true
	}
	return copyOf(s.cred)
}

func copyOf(c *Credential) *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
