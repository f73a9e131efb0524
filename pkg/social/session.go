package social

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sociallogin/pkg/cache"
)

var ErrSessionNotFound = errors.New("social: session not found")

// Session is a logged-in browser session created after a delivered login.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	User      *UserData `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore keeps login sessions in the shared cache so any instance
// can serve subsequent requests.
type SessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewSessionStore(c cache.Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

func sessionKey(id string) string {
	return "social:session:" + id
}

func (s *SessionStore) Create(ctx context.Context, userID string, user *UserData) (*Session, error) {
	id, err := GenerateRandomString(32)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:        id,
		UserID:    userID,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, sessionKey(id), string(data), s.ttl); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.cache.Get(ctx, sessionKey(id))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.cache.Del(ctx, sessionKey(id))
}
