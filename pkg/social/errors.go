package social

import (
	"errors"
	"fmt"
)

var (
	ErrProviderNotFound = errors.New("social: provider not found")

	// ErrAuthDenied marks an explicit refusal: the user declined consent,
	// or the callback carried a state/verifier that does not match the
	// stored handshake. Distinct from transport failure so the user can
	// be told "login cancelled" instead of a generic error.
	ErrAuthDenied = errors.New("social: authentication denied")
)

// Stage identifies where in the login pipeline a failure happened.
type Stage string

const (
	StageAuthorize     Stage = "authorize"
	StageTokenExchange Stage = "token_exchange"
	StageProfileFetch  Stage = "profile_fetch"
	StageMapping       Stage = "mapping"
	StageResolve       Stage = "resolve"
	StageDelivered     Stage = "delivered"
)

// ConnectorError is a transport failure or malformed handshake response
// during the token exchange. The caller may start a fresh attempt; the
// connector itself never retries.
type ConnectorError struct {
	Provider string
	Err      error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("social: %s connector: %v", e.Provider, e.Err)
}

func (e *ConnectorError) Unwrap() error { return e.Err }

// ProfileFetchError is a non-200 or unparsable response from the
// provider's profile endpoint. Malformed distinguishes a body that failed
// to parse from a bad HTTP status.
type ProfileFetchError struct {
	Provider   string
	StatusCode int
	Malformed  bool
	Err        error
}

func (e *ProfileFetchError) Error() string {
	switch {
	case e.Malformed:
		return fmt.Sprintf("social: %s profile: malformed response: %v", e.Provider, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("social: %s profile: unexpected status %d", e.Provider, e.StatusCode)
	default:
		return fmt.Sprintf("social: %s profile: %v", e.Provider, e.Err)
	}
}

func (e *ProfileFetchError) Unwrap() error { return e.Err }

// MappingError reports a profile payload that lacks the required unique
// identifier. A placeholder ID is never synthesized.
type MappingError struct {
	Provider string
	Field    string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("social: %s profile is missing required field %q", e.Provider, e.Field)
}

// ResolutionError comes from the identity sink, e.g. the profile's email
// already belongs to an account linked to a different identity. Reason is
// safe to show to the user.
type ResolutionError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("social: %s identity resolution: %s", e.Provider, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// UserMessage translates a pipeline error into wording safe to show the
// end user. Raw provider responses never leak here; they only go to logs.
func UserMessage(err error, provider string) string {
	var (
		fetchErr *ProfileFetchError
		resErr   *ResolutionError
	)

	switch {
	case errors.Is(err, ErrAuthDenied):
		return "Login was cancelled or denied."
	case errors.Is(err, ErrProviderNotFound):
		return "This login method is not available."
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("Could not retrieve your profile from %s.", provider)
	case errors.As(err, &resErr):
		return resErr.Reason
	default:
		return fmt.Sprintf("Could not authenticate with %s.", provider)
	}
}
