package social

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestOAuth2Connector(t *testing.T, tokenURL string) (*OAuth2Connector, *HandshakeStore) {
	t.Helper()

	handshake := NewHandshakeStore(newFakeCache())
	config := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost/auth/callback/acme",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://acme.example/oauth/authorize",
			TokenURL: tokenURL,
		},
		Scopes: []string{"profile", "email"},
	}
	return NewOAuth2Connector("acme", config, map[string]string{"prompt": "select_account"}, handshake, nil), handshake
}

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func beginAndExtractState(t *testing.T, c *OAuth2Connector) string {
	t.Helper()

	redirectURL, err := c.BeginAuthorization(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(redirectURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuth2Connector_BeginAuthorization(t *testing.T) {
	c, _ := newTestOAuth2Connector(t, "https://acme.example/oauth/token")

	redirectURL, err := c.BeginAuthorization(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(redirectURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost/auth/callback/acme", q.Get("redirect_uri"))
	assert.Equal(t, "profile email", q.Get("scope"))
	assert.Equal(t, "select_account", q.Get("prompt"))
	assert.NotEmpty(t, q.Get("state"))
}

func TestOAuth2Connector_FreshStatePerAttempt(t *testing.T) {
	c, _ := newTestOAuth2Connector(t, "https://acme.example/oauth/token")

	first := beginAndExtractState(t, c)
	second := beginAndExtractState(t, c)

	assert.NotEqual(t, first, second)
}

func TestOAuth2Connector_CompleteAuthorization(t *testing.T) {
	srv := newTokenServer(t)

	t.Run("exchanges code for token", func(t *testing.T) {
		c, _ := newTestOAuth2Connector(t, srv.URL)
		state := beginAndExtractState(t, c)

		token, err := c.CompleteAuthorization(context.Background(), Callback{
			Code:  "good-code",
			State: state,
		})

		require.NoError(t, err)
		assert.Equal(t, "tok-123", token.AccessToken)
	})

	t.Run("state mismatch is denied even with a valid code", func(t *testing.T) {
		c, _ := newTestOAuth2Connector(t, srv.URL)
		beginAndExtractState(t, c)

		_, err := c.CompleteAuthorization(context.Background(), Callback{
			Code:  "good-code",
			State: "forged-state",
		})

		assert.ErrorIs(t, err, ErrAuthDenied)
	})

	t.Run("state is single use", func(t *testing.T) {
		c, _ := newTestOAuth2Connector(t, srv.URL)
		state := beginAndExtractState(t, c)

		_, err := c.CompleteAuthorization(context.Background(), Callback{Code: "good-code", State: state})
		require.NoError(t, err)

		_, err = c.CompleteAuthorization(context.Background(), Callback{Code: "good-code", State: state})
		assert.ErrorIs(t, err, ErrAuthDenied)
	})

	t.Run("error parameter is denial, not transport failure", func(t *testing.T) {
		c, _ := newTestOAuth2Connector(t, srv.URL)
		state := beginAndExtractState(t, c)

		_, err := c.CompleteAuthorization(context.Background(), Callback{
			State:     state,
			ErrorCode: "access_denied",
		})

		assert.ErrorIs(t, err, ErrAuthDenied)
		var connErr *ConnectorError
		assert.False(t, errors.As(err, &connErr))
	})

	t.Run("missing state is denied", func(t *testing.T) {
		c, _ := newTestOAuth2Connector(t, srv.URL)

		_, err := c.CompleteAuthorization(context.Background(), Callback{Code: "good-code"})
		assert.ErrorIs(t, err, ErrAuthDenied)
	})

	t.Run("store outage is a connector error, not a denial", func(t *testing.T) {
		handshake := NewHandshakeStore(failingCache{err: errors.New("connection refused")})
		c := NewOAuth2Connector("acme", &oauth2.Config{}, nil, handshake, nil)

		_, err := c.CompleteAuthorization(context.Background(), Callback{
			Code:  "good-code",
			State: "some-state",
		})

		var connErr *ConnectorError
		assert.ErrorAs(t, err, &connErr)
		assert.NotErrorIs(t, err, ErrAuthDenied)
	})

	t.Run("bad exchange is a connector error", func(t *testing.T) {
		c, _ := newTestOAuth2Connector(t, srv.URL)
		state := beginAndExtractState(t, c)

		_, err := c.CompleteAuthorization(context.Background(), Callback{
			Code:  "bad-code",
			State: state,
		})

		var connErr *ConnectorError
		assert.ErrorAs(t, err, &connErr)
		assert.Equal(t, "acme", connErr.Provider)
		assert.NotErrorIs(t, err, ErrAuthDenied)
	})
}
