package social

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// GoogleProvider implements Provider using Google's OpenID Connect
// surface: endpoints come from OIDC discovery and the profile is read
// from the userinfo endpoint.
type GoogleProvider struct {
	*OAuth2Connector
	provider *oidc.Provider
}

func NewGoogleProvider(ctx context.Context, clientID, clientSecret, redirectURL string,
	handshake *HandshakeStore, httpClient *http.Client) (*GoogleProvider, error) {
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	// Google-specific authorization request parameters, matching how the
	// integration has historically been configured.
	extraParams := map[string]string{
		"access_type":            "online",
		"include_granted_scopes": "true",
		"prompt":                 "select_account",
	}

	return &GoogleProvider{
		OAuth2Connector: NewOAuth2Connector("google", config, extraParams, handshake, httpClient),
		provider:        provider,
	}, nil
}

func (g *GoogleProvider) FetchProfile(ctx context.Context, token *TokenSet) (RawProfile, error) {
	userInfo, err := g.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	}))
	if err != nil {
		return nil, &ProfileFetchError{Provider: "google", Err: err}
	}

	var raw RawProfile
	if err := userInfo.Claims(&raw); err != nil {
		return nil, &ProfileFetchError{Provider: "google", Malformed: true, Err: err}
	}
	return raw, nil
}

func (g *GoogleProvider) MapProfile(raw RawProfile) (*UserData, error) {
	id := raw.str("sub")
	if id == "" {
		return nil, &MappingError{Provider: "google", Field: "sub"}
	}

	verified, _ := raw["email_verified"].(bool)

	timezone := raw.str("zoneinfo")
	if timezone == "" {
		timezone = defaultTimezone
	}

	return &UserData{
		ID:        id,
		Name:      raw.str("name"),
		Email:     raw.str("email"),
		Verified:  verified,
		Timezone:  timezone,
		Picture:   raw.str("picture"),
		Provider:  "google",
		CreatedAt: time.Now(),
	}, nil
}
