package social

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const linkedinProfileURL = "https://api.linkedin.com/v1/people/~:(id,first-name,last-name,email-address,picture-url)?format=json"

// LinkedInProvider implements Provider for LinkedIn OAuth2.
type LinkedInProvider struct {
	*OAuth2Connector
	httpClient *http.Client
	profileURL string
}

func NewLinkedInProvider(clientID, clientSecret, redirectURL string,
	handshake *HandshakeStore, httpClient *http.Client) *LinkedInProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoints.LinkedIn,
		Scopes:       []string{"r_basicprofile", "r_emailaddress"},
	}

	return &LinkedInProvider{
		OAuth2Connector: NewOAuth2Connector("linkedin", config, nil, handshake, httpClient),
		httpClient:      httpClient,
		profileURL:      linkedinProfileURL,
	}
}

func (li *LinkedInProvider) FetchProfile(ctx context.Context, token *TokenSet) (RawProfile, error) {
	return fetchBearerJSON(ctx, li.httpClient, "linkedin", li.profileURL, token.AccessToken)
}

func (li *LinkedInProvider) MapProfile(raw RawProfile) (*UserData, error) {
	id := raw.str("id")
	if id == "" {
		return nil, &MappingError{Provider: "linkedin", Field: "id"}
	}

	// LinkedIn splits the display name; either part may be absent.
	nameParts := make([]string, 0, 2)
	if first := raw.str("firstName"); first != "" {
		nameParts = append(nameParts, first)
	}
	if last := raw.str("lastName"); last != "" {
		nameParts = append(nameParts, last)
	}

	email := raw.str("emailAddress")

	return &UserData{
		ID:        id,
		Name:      strings.Join(nameParts, " "),
		Email:     email,
		Verified:  email != "",
		Timezone:  defaultTimezone,
		Picture:   raw.str("pictureUrl"),
		Provider:  "linkedin",
		CreatedAt: time.Now(),
	}, nil
}
