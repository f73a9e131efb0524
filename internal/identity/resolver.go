// Package identity resolves normalized social profiles onto local user
// accounts: an already-linked identity signs straight in, a verified
// email attaches to the matching existing account, anything else creates
// a fresh user.
package identity

import (
	"context"
	"errors"
	"strconv"

	"sociallogin/pkg/idgen"
	"sociallogin/pkg/logger"
	"sociallogin/pkg/social"
)

var ErrEmailCollision = errors.New("identity: email belongs to an account linked differently")

type Resolver struct {
	store Store
	idgen idgen.Generator
	log   logger.Client
}

func NewResolver(store Store, generator idgen.Generator, log logger.Client) *Resolver {
	return &Resolver{
		store: store,
		idgen: generator,
		log:   log,
	}
}

// Resolve implements social.IdentityResolver.
func (r *Resolver) Resolve(ctx context.Context, user *social.UserData) (string, error) {
	if user.ID == "" {
		return "", &social.ResolutionError{
			Provider: user.Provider,
			Reason:   "Could not sign you in with this account.",
			Err:      errors.New("identity: empty provider user id"),
		}
	}

	// Known identity: straight sign-in.
	userID, found, err := r.store.FindByIdentity(ctx, user.Provider, user.ID)
	if err != nil {
		return "", err
	}
	if found {
		return strconv.FormatInt(userID, 10), nil
	}

	// Unknown identity but the email already has an owner. Only a
	// provider-verified email may attach to that account; anything else
	// would let a stranger claim it.
	if user.Email != "" {
		ownerID, found, err := r.store.FindUserByEmail(ctx, user.Email)
		if err != nil {
			return "", err
		}
		if found {
			if !user.Verified {
				return "", &social.ResolutionError{
					Provider: user.Provider,
					Reason:   "An account with this email already exists. Log in to that account first, then link this provider.",
					Err:      ErrEmailCollision,
				}
			}

			if err := r.store.LinkIdentity(ctx, ownerID, user.Provider, user.ID); err != nil {
				return "", err
			}

			r.log.Info("linked social identity to existing user",
				logger.Field{Key: "provider", Value: user.Provider},
				logger.Field{Key: "user_id", Value: ownerID},
			)
			return strconv.FormatInt(ownerID, 10), nil
		}
	}

	newID := r.idgen.GenerateID()
	if err := r.store.CreateUserWithIdentity(ctx, newID, user); err != nil {
		return "", err
	}

	r.log.Info("created user from social identity",
		logger.Field{Key: "provider", Value: user.Provider},
		logger.Field{Key: "user_id", Value: newID},
	)
	return strconv.FormatInt(newID, 10), nil
}
