package social

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// Provider is the capability set one social network integration exposes:
// the OAuth handshake, the profile fetch and the mapping onto UserData.
// The Manager only ever talks to this interface, never to concrete
// provider types.
type Provider interface {
	Name() string

	// BeginAuthorization starts a login attempt and returns the URL the
	// browser must be redirected to. Handshake state is persisted in the
	// shared store so the callback may land on a different instance.
	BeginAuthorization(ctx context.Context) (string, error)

	// CompleteAuthorization finishes the handshake from the provider
	// callback and returns the access token. It never retries: token
	// exchanges are not safe to replay blindly.
	CompleteAuthorization(ctx context.Context, cb Callback) (*TokenSet, error)

	// FetchProfile calls the provider's "who am I" endpoint with the
	// access token and returns the raw, provider-specific payload.
	FetchProfile(ctx context.Context, token *TokenSet) (RawProfile, error)

	// MapProfile normalizes a raw payload into UserData. Pure; fails only
	// when the provider's unique identifier is absent.
	MapProfile(raw RawProfile) (*UserData, error)
}

// Callback carries the query parameters of the inbound provider callback.
// OAuth2 providers use Code/State, OAuth1 providers use
// OAuthToken/OAuthVerifier. ErrorCode is the provider's "error" parameter
// (e.g. access_denied) when the user refused consent.
type Callback struct {
	Code          string
	State         string
	OAuthToken    string
	OAuthVerifier string
	ErrorCode     string
}

// RawProfile is the unparsed profile payload of one provider. Only the
// provider's own mapper interprets it.
type RawProfile map[string]any

// str returns the string value for key, or "" when absent or not a string.
func (p RawProfile) str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// identifier returns the value for key rendered as an opaque string ID.
// Decoded profiles carry json.Number so IDs above 2^53 keep every digit;
// a float64 (from payloads built elsewhere) must not pick up an exponent
// or a trailing fraction.
func (p RawProfile) identifier(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// UserData is the canonical identity record produced by a successful
// login pipeline. ID is never empty on success.
type UserData struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	Timezone  string    `json:"timezone"`
	Picture   string    `json:"picture,omitempty"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenSet is the credential material obtained from a completed
// handshake. OAuth1 providers additionally carry the token secret used
// to sign subsequent requests.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenSecret  string    `json:"token_secret,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// defaultTimezone is used whenever a provider does not report one.
const defaultTimezone = "GMT"
