package social

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"sociallogin/cfg"
	"sociallogin/pkg/cache"
	"sociallogin/pkg/logger"
)

// IdentityResolver is the external sink that turns a normalized UserData
// into a local account, creating or linking as needed. It returns the
// local user ID.
type IdentityResolver interface {
	Resolve(ctx context.Context, user *UserData) (string, error)
}

// LoginResult is what a fully delivered login attempt produces.
type LoginResult struct {
	User    *UserData
	UserID  string
	Session *Session
}

// Manager sequences the login pipeline for every registered provider:
// connector, profile fetch, mapping, identity resolution, session
// creation. Each stage failure short-circuits the attempt; nothing is
// retried on the manager's initiative.
type Manager struct {
	providers map[string]Provider
	resolver  IdentityResolver
	sessions  *SessionStore
	log       logger.Client
}

const sessionTTL = 24 * time.Hour

// NewManager builds providers from configuration. A provider with empty
// credentials is not registered at all: it stays invisible rather than
// erroring, per isProperlySetUp semantics.
func NewManager(ctx context.Context, conf *cfg.SocialConfig, store cache.Cache,
	resolver IdentityResolver, log logger.Client) (*Manager, error) {
	handshake := NewHandshakeStore(store)

	mgr := &Manager{
		providers: make(map[string]Provider),
		resolver:  resolver,
		sessions:  NewSessionStore(store, sessionTTL),
		log:       log,
	}

	if properlySetUp(conf.GitHub) {
		mgr.Register(NewGitHubProvider(
			conf.GitHub.ClientID, conf.GitHub.ClientSecret, conf.GitHub.RedirectURL,
			handshake, nil,
		))
	}

	if properlySetUp(conf.Google) {
		google, err := NewGoogleProvider(ctx,
			conf.Google.ClientID, conf.Google.ClientSecret, conf.Google.RedirectURL,
			handshake, nil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google provider: %w", err)
		}
		mgr.Register(google)
	}

	if properlySetUp(conf.LinkedIn) {
		mgr.Register(NewLinkedInProvider(
			conf.LinkedIn.ClientID, conf.LinkedIn.ClientSecret, conf.LinkedIn.RedirectURL,
			handshake, nil,
		))
	}

	if properlySetUp(conf.Twitter) {
		mgr.Register(NewTwitterProvider(
			conf.Twitter.ClientID, conf.Twitter.ClientSecret, conf.Twitter.RedirectURL,
			handshake,
		))
	}

	return mgr, nil
}

func properlySetUp(pc cfg.ProviderConfig) bool {
	return pc.ClientID != "" && pc.ClientSecret != ""
}

// Register adds a provider to the routing table.
func (m *Manager) Register(p Provider) {
	m.providers[p.Name()] = p
}

// Providers lists the names of the enabled providers, for the login page.
func (m *Manager) Providers() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BeginLogin starts the authorization leg and returns the redirect URL.
func (m *Manager) BeginLogin(ctx context.Context, providerName string) (string, error) {
	provider, exists := m.providers[providerName]
	if !exists {
		return "", ErrProviderNotFound
	}

	redirectURL, err := provider.BeginAuthorization(ctx)
	if err != nil {
		m.fail(providerName, StageAuthorize, err)
		return "", err
	}
	return redirectURL, nil
}

// CompleteLogin runs the callback leg: token exchange, profile fetch,
// mapping, identity resolution, session creation. The first failing stage
// terminates the attempt; no partial profile is ever delivered.
func (m *Manager) CompleteLogin(ctx context.Context, providerName string, cb Callback) (*LoginResult, error) {
	provider, exists := m.providers[providerName]
	if !exists {
		return nil, ErrProviderNotFound
	}

	token, err := provider.CompleteAuthorization(ctx, cb)
	if err != nil {
		m.fail(providerName, StageTokenExchange, err)
		return nil, err
	}

	raw, err := provider.FetchProfile(ctx, token)
	if err != nil {
		m.fail(providerName, StageProfileFetch, err)
		return nil, err
	}

	user, err := provider.MapProfile(raw)
	if err != nil {
		m.fail(providerName, StageMapping, err)
		return nil, err
	}

	userID, err := m.resolver.Resolve(ctx, user)
	if err != nil {
		var resErr *ResolutionError
		if !errors.As(err, &resErr) {
			err = &ResolutionError{
				Provider: providerName,
				Reason:   "Could not sign you in with this account.",
				Err:      err,
			}
		}
		m.fail(providerName, StageResolve, err)
		return nil, err
	}

	session, err := m.sessions.Create(ctx, userID, user)
	if err != nil {
		m.fail(providerName, StageDelivered, err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.log.Info("social login delivered",
		logger.Field{Key: "provider", Value: providerName},
		logger.Field{Key: "stage", Value: string(StageDelivered)},
		logger.Field{Key: "user_id", Value: userID},
	)

	return &LoginResult{User: user, UserID: userID, Session: session}, nil
}

// GetSession retrieves a login session by ID.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	return m.sessions.Get(ctx, sessionID)
}

// DeleteSession removes a login session (logout).
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	return m.sessions.Delete(ctx, sessionID)
}

// fail logs a stage failure with the raw cause. The raw error stays in
// the logs; callers surface only UserMessage wording.
func (m *Manager) fail(providerName string, stage Stage, err error) {
	m.log.Error("social login failed",
		logger.Field{Key: "provider", Value: providerName},
		logger.Field{Key: "stage", Value: string(stage)},
		logger.Field{Key: "err", Value: err.Error()},
	)
}
