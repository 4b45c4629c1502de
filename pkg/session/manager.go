package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/typedapi/typedapi/pkg/cookie"
)

// Manager loads and persists sessions over a Store and speaks the cookie
// transport: HttpOnly, Path=/, Max-Age of the configured TTL, SameSite=Lax
// and Secure on TLS requests.
type Manager struct {
	store Store
	cfg   Config
	codec *cookie.Codec
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the session backend. The default is an in-memory store
// swept on the configured cleanup interval.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) { m.cfg = cfg }
}

// WithSigningSecrets signs session ids so a forged or truncated cookie is
// rejected before the store is consulted. Secrets must be at least 32
// bytes; earlier secrets keep verifying during key rotation. Panics on
// invalid secrets.
func WithSigningSecrets(secrets ...string) Option {
	return func(m *Manager) {
		codec, err := cookie.NewCodec(secrets...)
		if err != nil {
			panic(err)
		}
		m.codec = codec
	}
}

func New(opts ...Option) *Manager {
	m := &Manager{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = NewMemoryStore(m.cfg.CleanupInterval)
	}
	return m
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// Load returns the request's session. A valid cookie re-hydrates the
// stored mapping; a missing, unknown or expired id yields a fresh session
// with a newly minted id, invalidating the old id when one was presented.
func (m *Manager) Load(ctx context.Context, r *http.Request) *Session {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return newSession(m.cfg.TTL)
	}

	id := c.Value
	if m.codec != nil {
		if id, err = m.codec.Verify(id); err != nil {
			return newSession(m.cfg.TTL)
		}
	}

	rec, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExpired) {
			_ = m.store.Delete(ctx, id)
		}
		return newSession(m.cfg.TTL)
	}

	return fromRecord(rec)
}

// Save persists the session's current state.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	return m.store.Save(ctx, s.record())
}

// WriteCookie emits the session cookie onto the response. Must be called
// before the response headers flush.
func (m *Manager) WriteCookie(w http.ResponseWriter, r *http.Request, s *Session) {
	value := s.ID()
	if m.codec != nil {
		value = m.codec.Sign(value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

// Destroy deletes the session from the store and expires its cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	err := m.store.Delete(ctx, s.ID())
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}
