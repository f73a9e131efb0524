package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dghubble/oauth1"
	twitterOAuth1 "github.com/dghubble/oauth1/twitter"
)

const twitterVerifyCredentialsURL = "https://api.twitter.com/1.1/account/verify_credentials.json"

// TwitterProvider implements Provider for Twitter, the only OAuth1
// integration. Profile requests are OAuth1-signed rather than
// bearer-authenticated.
type TwitterProvider struct {
	*OAuth1Connector
	config    *oauth1.Config
	verifyURL string
}

func NewTwitterProvider(consumerKey, consumerSecret, callbackURL string,
	handshake *HandshakeStore) *TwitterProvider {
	config := &oauth1.Config{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		CallbackURL:    callbackURL,
		Endpoint:       twitterOAuth1.AuthenticateEndpoint,
	}

	return &TwitterProvider{
		OAuth1Connector: NewOAuth1Connector("twitter", config, handshake),
		config:          config,
		verifyURL:       twitterVerifyCredentialsURL,
	}
}

func (tw *TwitterProvider) FetchProfile(ctx context.Context, token *TokenSet) (RawProfile, error) {
	client := tw.config.Client(ctx, oauth1.NewToken(token.AccessToken, token.TokenSecret))

	params := url.Values{}
	params.Set("include_email", "true")
	params.Set("skip_status", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tw.verifyURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ProfileFetchError{Provider: "twitter", Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProfileFetchError{Provider: "twitter", Err: err}
	}
	defer resp.Body.Close()

	return decodeProfile("twitter", resp)
}

func (tw *TwitterProvider) MapProfile(raw RawProfile) (*UserData, error) {
	id := raw.identifier("id")
	if id == "" {
		return nil, &MappingError{Provider: "twitter", Field: "id"}
	}

	// Twitter only reports an email for apps with elevated permissions;
	// its presence doubles as the verification signal.
	email := raw.str("email")

	return &UserData{
		ID:        id,
		Name:      raw.str("name"),
		Email:     email,
		Verified:  email != "",
		Timezone:  timezoneFromUTCOffset(raw["utc_offset"]),
		Picture:   raw.str("profile_image_url_https"),
		Provider:  "twitter",
		CreatedAt: time.Now(),
	}, nil
}

// timezoneFromUTCOffset converts Twitter's UTC offset in seconds to an
// hour representation: -18000 becomes "-5", -19800 becomes "-5.5".
func timezoneFromUTCOffset(v any) string {
	var offset float64
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return defaultTimezone
		}
		offset = f
	case float64:
		offset = n
	default:
		return defaultTimezone
	}
	return strconv.FormatFloat(offset/3600, 'f', -1, 64)
}
