package social

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"sociallogin/cfg"
	"sociallogin/pkg/logger"
)

func stateFromURL(t *testing.T, rawURL string) string {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func testLogger() logger.Client {
	return logger.NewWithWriter("development", io.Discard)
}

// stubProvider lets pipeline tests fail any single stage.
type stubProvider struct {
	name         string
	authorizeErr error
	completeErr  error
	fetchErr     error
	raw          RawProfile
	mapErr       error
	user         *UserData
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) BeginAuthorization(ctx context.Context) (string, error) {
	if s.authorizeErr != nil {
		return "", s.authorizeErr
	}
	return "https://provider.example/authorize?state=x", nil
}

func (s *stubProvider) CompleteAuthorization(ctx context.Context, cb Callback) (*TokenSet, error) {
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	return &TokenSet{AccessToken: "tok"}, nil
}

func (s *stubProvider) FetchProfile(ctx context.Context, token *TokenSet) (RawProfile, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.raw, nil
}

func (s *stubProvider) MapProfile(raw RawProfile) (*UserData, error) {
	if s.mapErr != nil {
		return nil, s.mapErr
	}
	return s.user, nil
}

// recordingResolver counts deliveries to the sink.
type recordingResolver struct {
	calls int
	err   error
}

func (r *recordingResolver) Resolve(ctx context.Context, user *UserData) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return "9000", nil
}

func newTestManager(resolver IdentityResolver, providers ...Provider) *Manager {
	m := &Manager{
		providers: make(map[string]Provider),
		resolver:  resolver,
		sessions:  NewSessionStore(newFakeCache(), time.Hour),
		log:       testLogger(),
	}
	for _, p := range providers {
		m.Register(p)
	}
	return m
}

func TestNewManager_UnconfiguredProvidersStayInvisible(t *testing.T) {
	conf := &cfg.SocialConfig{
		// GitHub has an ID but no secret: not properly set up.
		GitHub: cfg.ProviderConfig{ClientID: "id-only"},
	}

	mgr, err := NewManager(context.Background(), conf, newFakeCache(), &recordingResolver{}, testLogger())
	require.NoError(t, err)

	assert.Empty(t, mgr.Providers())

	_, err = mgr.BeginLogin(context.Background(), "github")
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestNewManager_RegistersConfiguredProviders(t *testing.T) {
	conf := &cfg.SocialConfig{
		GitHub:   cfg.ProviderConfig{ClientID: "id", ClientSecret: "sec", RedirectURL: "http://localhost/cb"},
		LinkedIn: cfg.ProviderConfig{ClientID: "id", ClientSecret: "sec", RedirectURL: "http://localhost/cb"},
		Twitter:  cfg.ProviderConfig{ClientID: "key", ClientSecret: "sec", RedirectURL: "http://localhost/cb"},
	}

	mgr, err := NewManager(context.Background(), conf, newFakeCache(), &recordingResolver{}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"github", "linkedin", "twitter"}, mgr.Providers())
}

func TestManager_CompleteLogin(t *testing.T) {
	user := &UserData{ID: "42", Name: "Grace", Email: "g@x.com", Verified: true, Provider: "stub"}

	t.Run("delivers user data and creates a session", func(t *testing.T) {
		resolver := &recordingResolver{}
		mgr := newTestManager(resolver, &stubProvider{name: "stub", user: user})

		result, err := mgr.CompleteLogin(context.Background(), "stub", Callback{Code: "c", State: "s"})

		require.NoError(t, err)
		assert.Equal(t, 1, resolver.calls)
		assert.Equal(t, "9000", result.UserID)
		assert.Equal(t, "42", result.User.ID)
		require.NotNil(t, result.Session)

		session, err := mgr.GetSession(context.Background(), result.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, "9000", session.UserID)
	})

	t.Run("unknown provider", func(t *testing.T) {
		mgr := newTestManager(&recordingResolver{})

		_, err := mgr.CompleteLogin(context.Background(), "nope", Callback{})
		assert.ErrorIs(t, err, ErrProviderNotFound)
	})

	t.Run("profile fetch failure reaches no sink", func(t *testing.T) {
		resolver := &recordingResolver{}
		mgr := newTestManager(resolver, &stubProvider{
			name:     "stub",
			fetchErr: &ProfileFetchError{Provider: "stub", StatusCode: http.StatusUnauthorized},
		})

		_, err := mgr.CompleteLogin(context.Background(), "stub", Callback{Code: "c", State: "s"})

		var fetchErr *ProfileFetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusUnauthorized, fetchErr.StatusCode)
		assert.Zero(t, resolver.calls)
	})

	t.Run("mapping failure reaches no sink", func(t *testing.T) {
		resolver := &recordingResolver{}
		mgr := newTestManager(resolver, &stubProvider{
			name:   "stub",
			mapErr: &MappingError{Provider: "stub", Field: "id"},
		})

		_, err := mgr.CompleteLogin(context.Background(), "stub", Callback{Code: "c", State: "s"})

		var mapErr *MappingError
		assert.ErrorAs(t, err, &mapErr)
		assert.Zero(t, resolver.calls)
	})

	t.Run("denial propagates unchanged", func(t *testing.T) {
		mgr := newTestManager(&recordingResolver{}, &stubProvider{
			name:        "stub",
			completeErr: ErrAuthDenied,
		})

		_, err := mgr.CompleteLogin(context.Background(), "stub", Callback{})
		assert.ErrorIs(t, err, ErrAuthDenied)
	})

	t.Run("sink errors become resolution errors", func(t *testing.T) {
		mgr := newTestManager(&recordingResolver{err: errors.New("db down")},
			&stubProvider{name: "stub", user: user})

		_, err := mgr.CompleteLogin(context.Background(), "stub", Callback{Code: "c", State: "s"})

		var resErr *ResolutionError
		require.ErrorAs(t, err, &resErr)
		assert.Equal(t, "stub", resErr.Provider)
	})
}

// TestManager_GitHubEndToEnd drives the real GitHub provider against fake
// token and profile endpoints.
func TestManager_GitHubEndToEnd(t *testing.T) {
	profileStatus := http.StatusOK

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gh-tok","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if profileStatus != http.StatusOK {
			w.WriteHeader(profileStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"name":"Grace","email":"g@x.com"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	newGitHub := func() *GitHubProvider {
		p := NewGitHubProvider("id", "secret", "http://localhost/cb",
			NewHandshakeStore(newFakeCache()), srv.Client())
		p.config.Endpoint = oauth2.Endpoint{
			AuthURL:  srv.URL + "/login/oauth/authorize",
			TokenURL: srv.URL + "/login/oauth/access_token",
		}
		p.userURL = srv.URL + "/user"
		p.emailURL = srv.URL + "/user/emails"
		return p
	}

	t.Run("success delivers normalized user", func(t *testing.T) {
		profileStatus = http.StatusOK
		resolver := &recordingResolver{}
		p := newGitHub()
		mgr := newTestManager(resolver, p)

		redirectURL, err := mgr.BeginLogin(context.Background(), "github")
		require.NoError(t, err)

		state := stateFromURL(t, redirectURL)
		result, err := mgr.CompleteLogin(context.Background(), "github", Callback{
			Code:  "cb-code",
			State: state,
		})

		require.NoError(t, err)
		assert.Equal(t, "42", result.User.ID)
		assert.Equal(t, "Grace", result.User.Name)
		assert.Equal(t, "g@x.com", result.User.Email)
		assert.True(t, result.User.Verified)
		assert.Equal(t, 1, resolver.calls)
	})

	t.Run("unauthorized profile endpoint fails the attempt", func(t *testing.T) {
		profileStatus = http.StatusUnauthorized
		resolver := &recordingResolver{}
		p := newGitHub()
		mgr := newTestManager(resolver, p)

		redirectURL, err := mgr.BeginLogin(context.Background(), "github")
		require.NoError(t, err)

		_, err = mgr.CompleteLogin(context.Background(), "github", Callback{
			Code:  "cb-code",
			State: stateFromURL(t, redirectURL),
		})

		var fetchErr *ProfileFetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusUnauthorized, fetchErr.StatusCode)
		assert.Zero(t, resolver.calls)
	})
}
