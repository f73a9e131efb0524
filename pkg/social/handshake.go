package social

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"sociallogin/pkg/cache"
)

// handshakeTTL bounds how long a login attempt may sit between the
// redirect out and the callback in.
const handshakeTTL = 10 * time.Minute

// ErrHandshakeNotFound is returned when a state or request token is
// unknown, expired, or already consumed by an earlier callback.
var ErrHandshakeNotFound = errors.New("social: handshake state not found or already used")

// HandshakeStore persists the per-attempt handshake material (OAuth2
// state values, OAuth1 request-token secrets) across the two legs of the
// login saga. It lives in the shared cache, not in process memory, so the
// callback may be served by any instance. Every value is single-use:
// reads go through the cache's atomic GetDel.
type HandshakeStore struct {
	cache cache.Cache
}

func NewHandshakeStore(c cache.Cache) *HandshakeStore {
	return &HandshakeStore{cache: c}
}

func stateKey(provider, state string) string {
	return "social:" + provider + ":state:" + state
}

func requestTokenKey(provider, token string) string {
	return "social:" + provider + ":reqtok:" + token
}

// PutState records a freshly generated OAuth2 anti-forgery state.
func (s *HandshakeStore) PutState(ctx context.Context, provider, state string) error {
	return s.cache.Set(ctx, stateKey(provider, state), "1", handshakeTTL)
}

// TakeState consumes a state value. A second take of the same state fails
// with ErrHandshakeNotFound.
func (s *HandshakeStore) TakeState(ctx context.Context, provider, state string) error {
	_, err := s.cache.GetDel(ctx, stateKey(provider, state))
	if errors.Is(err, cache.ErrNotFound) {
		return ErrHandshakeNotFound
	}
	return err
}

// PutRequestSecret records an OAuth1 temporary token secret keyed by its
// request token.
func (s *HandshakeStore) PutRequestSecret(ctx context.Context, provider, token, secret string) error {
	return s.cache.Set(ctx, requestTokenKey(provider, token), secret, handshakeTTL)
}

// TakeRequestSecret consumes the secret for a request token. The token is
// single-use; a replayed callback fails with ErrHandshakeNotFound.
func (s *HandshakeStore) TakeRequestSecret(ctx context.Context, provider, token string) (string, error) {
	secret, err := s.cache.GetDel(ctx, requestTokenKey(provider, token))
	if errors.Is(err, cache.ErrNotFound) {
		return "", ErrHandshakeNotFound
	}
	return secret, err
}

// GenerateRandomString returns a URL-safe random string of n bytes of
// entropy, used for state values and session IDs.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
