package identitysdk

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Storage is the key-value backing for SessionStore. Implementations must
// make Set atomic per key; a browser localStorage shim, a keychain, or the
// in-memory default all qualify.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStorage is the default in-process Storage.
type MemoryStorage struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{m: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// SessionRecord is what the establisher persists: always the token together
// with the user record and role, never one without the others.
type SessionRecord struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
	Role  string  `json:"role"`
}

// SessionStore persists session records under role-qualified keys, so a
// vendor session and a customer session coexist on one device. Guest
// identifiers are minted per role for anonymous carts and cleared when a
// customer signs in.
type SessionStore struct {
	storage Storage
}

func NewSessionStore(storage Storage) *SessionStore {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &SessionStore{storage: storage}
}

func sessionKey(role string) string { return "identity.session." + role }
func guestKey(role string) string   { return "identity.guest." + role }

// Establish persists the grant as one record. The record is a single
// storage write, so collaborators never observe a token without its user.
// Customer sign-ins drop the role's guest identifier.
func (s *SessionStore) Establish(rec SessionRecord) error {
	if rec.Token == "" || rec.Role == "" {
		return fmt.Errorf("identitysdk: session record missing token or role")
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("identitysdk: encode session record: %w", err)
	}
	if err := s.storage.Set(sessionKey(rec.Role), string(raw)); err != nil {
		return fmt.Errorf("identitysdk: persist session record: %w", err)
	}

	if rec.Role == "customer" {
		if err := s.storage.Delete(guestKey(rec.Role)); err != nil {
			return fmt.Errorf("identitysdk: clear guest identifier: %w", err)
		}
	}
	return nil
}

// Current returns the persisted session for a role, if any.
func (s *SessionStore) Current(role string) (SessionRecord, bool) {
	raw, ok := s.storage.Get(sessionKey(role))
	if !ok {
		return SessionRecord{}, false
	}
	var rec SessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return SessionRecord{}, false
	}
	return rec, true
}

// Clear removes the persisted session for a role.
func (s *SessionStore) Clear(role string) error {
	return s.storage.Delete(sessionKey(role))
}

// GuestID returns the role's guest identifier, minting and persisting one
// on first use.
func (s *SessionStore) GuestID(role string) (string, error) {
	if id, ok := s.storage.Get(guestKey(role)); ok {
		return id, nil
	}
	id := uuid.NewString()
	if err := s.storage.Set(guestKey(role), id); err != nil {
		return "", fmt.Errorf("identitysdk: persist guest identifier: %w", err)
	}
	return id, nil
}
