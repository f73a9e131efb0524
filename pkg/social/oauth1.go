package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/dghubble/oauth1"
)

// OAuth1Connector performs the three-legged OAuth 1.0a handshake. Step 1
// obtains a temporary request token from the provider, step 2 is the
// browser redirect carrying it, step 3 exchanges the verifier from the
// callback for a permanent access token using the temporary token's
// secret. The secret lives in the handshake store between steps 2 and 3
// and is consumed exactly once.
type OAuth1Connector struct {
	name      string
	config    *oauth1.Config
	handshake *HandshakeStore
}

func NewOAuth1Connector(name string, config *oauth1.Config, handshake *HandshakeStore) *OAuth1Connector {
	return &OAuth1Connector{
		name:      name,
		config:    config,
		handshake: handshake,
	}
}

func (c *OAuth1Connector) Name() string {
	return c.name
}

// BeginAuthorization performs the request-token round trip against the
// provider and returns its authorization URL.
func (c *OAuth1Connector) BeginAuthorization(ctx context.Context) (string, error) {
	requestToken, requestSecret, err := c.config.RequestToken()
	if err != nil {
		return "", &ConnectorError{Provider: c.name, Err: fmt.Errorf("request token: %w", err)}
	}

	if err := c.handshake.PutRequestSecret(ctx, c.name, requestToken, requestSecret); err != nil {
		return "", fmt.Errorf("failed to save request token: %w", err)
	}

	authURL, err := c.config.AuthorizationURL(requestToken)
	if err != nil {
		return "", &ConnectorError{Provider: c.name, Err: fmt.Errorf("authorization url: %w", err)}
	}

	return authURL.String(), nil
}

// CompleteAuthorization exchanges the verifier for the permanent access
// token. A replayed or unknown oauth_token is a denial, because its
// secret has already been consumed.
func (c *OAuth1Connector) CompleteAuthorization(ctx context.Context, cb Callback) (*TokenSet, error) {
	if cb.ErrorCode != "" {
		return nil, fmt.Errorf("%s returned %q: %w", c.name, cb.ErrorCode, ErrAuthDenied)
	}

	if cb.OAuthToken == "" || cb.OAuthVerifier == "" {
		return nil, fmt.Errorf("%s callback carried no oauth_token/oauth_verifier: %w", c.name, ErrAuthDenied)
	}

	requestSecret, err := c.handshake.TakeRequestSecret(ctx, c.name, cb.OAuthToken)
	if err != nil {
		if errors.Is(err, ErrHandshakeNotFound) {
			return nil, fmt.Errorf("%s request token unknown or already used: %w", c.name, ErrAuthDenied)
		}
		// A store outage is not a refusal by the user.
		return nil, &ConnectorError{Provider: c.name, Err: fmt.Errorf("request token lookup: %w", err)}
	}

	accessToken, accessSecret, err := c.config.AccessToken(cb.OAuthToken, requestSecret, cb.OAuthVerifier)
	if err != nil {
		return nil, &ConnectorError{Provider: c.name, Err: fmt.Errorf("access token: %w", err)}
	}

	return &TokenSet{
		AccessToken: accessToken,
		TokenSecret: accessSecret,
		TokenType:   "oauth1",
	}, nil
}
