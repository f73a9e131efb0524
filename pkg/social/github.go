package social

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	githubUserURL      = "https://api.github.com/user"
	githubUserEmailURL = "https://api.github.com/user/emails"
)

// GitHubProvider implements Provider for GitHub OAuth2.
type GitHubProvider struct {
	*OAuth2Connector
	httpClient *http.Client
	userURL    string
	emailURL   string
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func NewGitHubProvider(clientID, clientSecret, redirectURL string,
	handshake *HandshakeStore, httpClient *http.Client) *GitHubProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoints.GitHub,
		Scopes:       []string{"read:user", "user:email"},
	}

	return &GitHubProvider{
		OAuth2Connector: NewOAuth2Connector("github", config, nil, handshake, httpClient),
		httpClient:      httpClient,
		userURL:         githubUserURL,
		emailURL:        githubUserEmailURL,
	}
}

func (gh *GitHubProvider) FetchProfile(ctx context.Context, token *TokenSet) (RawProfile, error) {
	raw, err := fetchBearerJSON(ctx, gh.httpClient, "github", gh.userURL, token.AccessToken)
	if err != nil {
		return nil, err
	}

	// The public profile email may be hidden; fall back to the emails
	// endpoint and pick the primary address. Best effort: some accounts
	// expose no email at all.
	if raw.str("email") == "" {
		if email, ok := gh.primaryEmail(ctx, token.AccessToken); ok {
			raw["email"] = email
		}
	}

	return raw, nil
}

func (gh *GitHubProvider) primaryEmail(ctx context.Context, accessToken string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gh.emailURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := gh.httpClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", false
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, true
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, true
	}
	return "", false
}

func (gh *GitHubProvider) MapProfile(raw RawProfile) (*UserData, error) {
	id := raw.identifier("id")
	if id == "" {
		return nil, &MappingError{Provider: "github", Field: "id"}
	}

	name := raw.str("name")
	if name == "" {
		name = raw.str("login")
	}

	email := raw.str("email")

	return &UserData{
		ID:        id,
		Name:      name,
		Email:     email,
		Verified:  email != "",
		Timezone:  defaultTimezone,
		Picture:   raw.str("avatar_url"),
		Provider:  "github",
		CreatedAt: time.Now(),
	}, nil
}
