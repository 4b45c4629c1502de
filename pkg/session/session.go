package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side session: an opaque id bound to a string-keyed
// data mapping with creation and expiry instants. A session starts empty
// and unsaved; the first write marks it dirty, which is what triggers id
// minting and cookie emission after the handler runs.
type Session struct {
	mu        sync.RWMutex
	id        string
	data      map[string]any
	createdAt time.Time
	expiresAt time.Time
	dirty     bool
	fresh     bool
}

func newSession(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		id:        uuid.NewString(),
		data:      make(map[string]any),
		createdAt: now,
		expiresAt: now.Add(ttl),
		fresh:     true,
	}
}

// ID returns the session id. Fresh sessions carry a newly minted id that
// only reaches the client if the session is written to.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// CreatedAt returns the creation instant.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// ExpiresAt returns the expiry instant.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// IsExpired reports whether the session's expiry instant has passed.
func (s *Session) IsExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Now().After(s.expiresAt)
}

// Get retrieves a value.
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// GetString retrieves a string value.
func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetInt retrieves an int value. JSON round-trips store numbers as
// float64, so both arrive here.
func (s *Session) GetInt(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// GetBool retrieves a bool value.
func (s *Session) GetBool(key string) (bool, bool) {
	v, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Set stores a value and marks the session dirty.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.dirty = true
}

// Delete removes a key and marks the session dirty.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.dirty = true
}

// Clear drops all data and marks the session dirty.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any)
	s.dirty = true
}

// Dirty reports whether the session was written to during this request.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Fresh reports whether the session was created for this request rather
// than re-hydrated from the store.
func (s *Session) Fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fresh
}

func (s *Session) record() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]any, len(s.data))
	for k, v := range s.data {
		data[k] = v
	}
	return &Record{
		ID:        s.id,
		Data:      data,
		CreatedAt: s.createdAt,
		ExpiresAt: s.expiresAt,
	}
}

func fromRecord(rec *Record) *Session {
	data := make(map[string]any, len(rec.Data))
	for k, v := range rec.Data {
		data[k] = v
	}
	return &Session{
		id:        rec.ID,
		data:      data,
		createdAt: rec.CreatedAt,
		expiresAt: rec.ExpiresAt,
	}
}

// Record is the persisted form of a session.
type Record struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// IsExpired reports whether the record's expiry instant has passed.
func (r *Record) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}
