package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Well-known keys.
const (
	KeyToken          = "auth_token"
	KeySession        = "auth_session"
	KeyInstallationID = "installation_id"
)

// Session is the persisted snapshot of the signed-in user.
type Session struct {
	ObjectID     string `json:"objectId"`
	SessionToken string `json:"sessionToken"`
	Username     string `json:"username"`
	Email        string `json:"email"`
}

// Entry is one key/value pair of a multi-key write.
type Entry struct {
	Key   string
	Value []byte
}

// KV is a durable backend. SetMany applies all entries as one unit when the
// backend can; otherwise in the given order.
type KV interface {
	Load(ctx context.Context) (map[string][]byte, error)
	SetMany(ctx context.Context, entries ...Entry) error
	DeleteMany(ctx context.Context, keys ...string) error
	Close() error
}

// SessionStore caches every value of a KV in memory. Safe for concurrent use.
type SessionStore struct {
	kv KV

	mu    sync.RWMutex
	cache map[string][]byte
}

// NewSessionStore loads kv and makes sure an installation id exists.
func NewSessionStore(ctx context.Context, kv KV) (*SessionStore, error) {
	values, err := kv.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	if values == nil {
		values = make(map[string][]byte)
	}
	s := &SessionStore{kv: kv, cache: values}

	if _, ok := s.GetString(KeyInstallationID); !ok {
		if err := s.SetString(ctx, KeyInstallationID, uuid.NewString()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *SessionStore) GetString(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return string(v), true
}

// SetString stores value; an empty value deletes the key.
func (s *SessionStore) SetString(ctx context.Context, key, value string) error {
	if value == "" {
		return s.Delete(ctx, key)
	}
	return s.setMany(ctx, Entry{Key: key, Value: []byte(value)})
}

// GetJSON decodes the value under key into v. A missing or undecodable value
// reports false.
func (s *SessionStore) GetJSON(key string, v any) bool {
	s.mu.RLock()
	raw, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok || len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// SetJSON stores v encoded as JSON; a nil v deletes the key.
func (s *SessionStore) SetJSON(ctx context.Context, key string, v any) error {
	if v == nil {
		return s.Delete(ctx, key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.setMany(ctx, Entry{Key: key, Value: raw})
}

// Delete evicts keys from memory even when the durable delete fails, so that
// a process never keeps reading values it asked to forget.
func (s *SessionStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.cache, k)
	}
	s.mu.Unlock()

	if err := s.kv.DeleteMany(ctx, keys...); err != nil {
		return fmt.Errorf("delete %v: %w", keys, err)
	}
	return nil
}

func (s *SessionStore) setMany(ctx context.Context, entries ...Entry) error {
	if err := s.kv.SetMany(ctx, entries...); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	s.mu.Lock()
	for _, e := range entries {
		s.cache[e.Key] = e.Value
	}
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) InstallationID() string {
	id, _ := s.GetString(KeyInstallationID)
	return id
}

func (s *SessionStore) Token() string {
	t, _ := s.GetString(KeyToken)
	return t
}

func (s *SessionStore) Session() (Session, bool) {
	var sess Session
	if !s.GetJSON(KeySession, &sess) {
		return Session{}, false
	}
	return sess, true
}

// SaveSession writes the token and the snapshot together, token first.
func (s *SessionStore) SaveSession(ctx context.Context, token string, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.setMany(ctx,
		Entry{Key: KeyToken, Value: []byte(token)},
		Entry{Key: KeySession, Value: raw},
	)
}

// ClearSession erases the token and the snapshot.
func (s *SessionStore) ClearSession(ctx context.Context) error {
	return s.Delete(ctx, KeyToken, KeySession)
}

func (s *SessionStore) Close() error {
	return s.kv.Close()
}
