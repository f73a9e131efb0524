package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGitHubFetchServer(t *testing.T, userBody string, emails string) *GitHubProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(userBody))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		if emails == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(emails))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGitHubProvider("id", "secret", "http://localhost/cb",
		NewHandshakeStore(newFakeCache()), srv.Client())
	p.userURL = srv.URL + "/user"
	p.emailURL = srv.URL + "/user/emails"
	return p
}

func TestGitHubFetchProfile(t *testing.T) {
	token := &TokenSet{AccessToken: "gh-tok"}

	t.Run("public email needs no second request", func(t *testing.T) {
		p := newGitHubFetchServer(t, `{"id":42,"login":"grace","email":"g@x.com"}`, "")

		raw, err := p.FetchProfile(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "g@x.com", raw.str("email"))
	})

	t.Run("hidden email falls back to the primary address", func(t *testing.T) {
		p := newGitHubFetchServer(t,
			`{"id":42,"login":"grace","email":null}`,
			`[{"email":"old@x.com","primary":false,"verified":true},{"email":"g@x.com","primary":true,"verified":true}]`)

		raw, err := p.FetchProfile(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "g@x.com", raw.str("email"))
	})

	t.Run("no primary flag uses the first address", func(t *testing.T) {
		p := newGitHubFetchServer(t,
			`{"id":42,"login":"grace"}`,
			`[{"email":"only@x.com","primary":false,"verified":false}]`)

		raw, err := p.FetchProfile(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "only@x.com", raw.str("email"))
	})

	t.Run("email lookup failure leaves the profile without one", func(t *testing.T) {
		p := newGitHubFetchServer(t, `{"id":42,"login":"grace"}`, "")

		raw, err := p.FetchProfile(context.Background(), token)
		require.NoError(t, err)
		assert.Empty(t, raw.str("email"))
	})

	t.Run("large numeric id survives the decode", func(t *testing.T) {
		p := newGitHubFetchServer(t, `{"id":9007199254740995,"login":"grace","email":"g@x.com"}`, "")

		raw, err := p.FetchProfile(context.Background(), token)
		require.NoError(t, err)

		user, err := p.MapProfile(raw)
		require.NoError(t, err)
		assert.Equal(t, "9007199254740995", user.ID)
	})

	t.Run("malformed profile body", func(t *testing.T) {
		p := newGitHubFetchServer(t, `{"id":`, "")

		_, err := p.FetchProfile(context.Background(), token)

		var fetchErr *ProfileFetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.True(t, fetchErr.Malformed)
	})
}
