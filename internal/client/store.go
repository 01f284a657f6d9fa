package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
)

// Durable storage keys. A session exists only when all three are present.
const (
	KeyUser         = "user"
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

var sessionKeys = []string{KeyUser, KeyAccessToken, KeyRefreshToken}

// TokenStore holds the current token pair and profile in memory and mirrors
// them to durable Storage. The profile being non-nil is what "logged in" means.
type TokenStore struct {
	storage Storage

	mu      sync.RWMutex
	user    *model.Profile
	access  string
	refresh string
}

func NewTokenStore(storage Storage) *TokenStore {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &TokenStore{storage: storage}
}

// Load restores the session from durable storage. Partial or unreadable state
// leaves the store logged out; only a storage failure is returned.
func (s *TokenStore) Load(ctx context.Context) error {
	values, err := s.storage.Load(ctx, sessionKeys...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user, s.access, s.refresh = nil, "", ""

	rawUser, access, refresh := values[KeyUser], values[KeyAccessToken], values[KeyRefreshToken]
	if rawUser == "" || access == "" || refresh == "" {
		return nil
	}
	var user model.Profile
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil
	}

	s.user, s.access, s.refresh = &user, access, refresh
	return nil
}

// Save replaces the in-memory session first, then persists it. A persistence
// error leaves the in-memory session in place.
func (s *TokenStore) Save(ctx context.Context, accessToken, refreshToken string, user model.Profile) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.user, s.access, s.refresh = &user, accessToken, refreshToken
	s.mu.Unlock()

	return s.storage.Save(ctx, map[string]string{
		KeyUser:         string(rawUser),
		KeyAccessToken:  accessToken,
		KeyRefreshToken: refreshToken,
	})
}

func (s *TokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.user, s.access, s.refresh = nil, "", ""
	s.mu.Unlock()

	return s.storage.Remove(ctx, sessionKeys...)
}

func (s *TokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *TokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// User returns a copy of the profile, or nil when logged out.
func (s *TokenStore) User() *model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}
