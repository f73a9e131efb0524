package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// OAuth2Connector performs the authorization-code handshake shared by the
// OAuth2 providers. Per-provider behavior (endpoints, scopes, extra
// request parameters) is injected through the oauth2.Config.
type OAuth2Connector struct {
	name        string
	config      *oauth2.Config
	extraParams map[string]string
	handshake   *HandshakeStore
	httpClient  *http.Client
}

func NewOAuth2Connector(name string, config *oauth2.Config, extraParams map[string]string,
	handshake *HandshakeStore, httpClient *http.Client) *OAuth2Connector {
	return &OAuth2Connector{
		name:        name,
		config:      config,
		extraParams: extraParams,
		handshake:   handshake,
		httpClient:  httpClient,
	}
}

func (c *OAuth2Connector) Name() string {
	return c.name
}

// BeginAuthorization generates a fresh anti-forgery state, persists it
// for the callback leg, and builds the provider authorization URL.
func (c *OAuth2Connector) BeginAuthorization(ctx context.Context) (string, error) {
	state, err := GenerateRandomString(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	if err := c.handshake.PutState(ctx, c.name, state); err != nil {
		return "", fmt.Errorf("failed to save state: %w", err)
	}

	opts := make([]oauth2.AuthCodeOption, 0, len(c.extraParams))
	for k, v := range c.extraParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}

	return c.config.AuthCodeURL(state, opts...), nil
}

// CompleteAuthorization validates the callback and exchanges the code for
// an access token. An error parameter or an unknown/consumed state is a
// denial; exchange failures are connector errors. Nothing is retried.
func (c *OAuth2Connector) CompleteAuthorization(ctx context.Context, cb Callback) (*TokenSet, error) {
	if cb.ErrorCode != "" {
		return nil, fmt.Errorf("%s returned %q: %w", c.name, cb.ErrorCode, ErrAuthDenied)
	}

	if cb.State == "" {
		return nil, fmt.Errorf("%s callback carried no state: %w", c.name, ErrAuthDenied)
	}

	if err := c.handshake.TakeState(ctx, c.name, cb.State); err != nil {
		if errors.Is(err, ErrHandshakeNotFound) {
			return nil, fmt.Errorf("%s state mismatch: %w", c.name, ErrAuthDenied)
		}
		// A store outage is not a refusal by the user.
		return nil, &ConnectorError{Provider: c.name, Err: fmt.Errorf("state lookup: %w", err)}
	}

	if cb.Code == "" {
		return nil, &ConnectorError{Provider: c.name, Err: fmt.Errorf("callback carried no code")}
	}

	token, err := c.config.Exchange(c.exchangeContext(ctx), cb.Code)
	if err != nil {
		return nil, &ConnectorError{Provider: c.name, Err: err}
	}

	return &TokenSet{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// exchangeContext routes the token exchange through the injected HTTP
// client, which owns timeout policy.
func (c *OAuth2Connector) exchangeContext(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
