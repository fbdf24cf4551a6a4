package authkit

import (
	"context"
	"errors"

	"github.com/edusuite/authkit/jwt"
	"github.com/edusuite/authkit/password"
)

// Engine drives the login and two-factor flows and resolves principals
// for the authorization middleware. Construct through [Builder.Build];
// all methods are safe for concurrent use afterwards.
type Engine struct {
	config     Config
	jwtManager *jwt.Manager
	hasher     *password.Hasher
	users      UserStore
	notifier   NotificationSender
	challenges ChallengeStore
	audit      *auditDispatcher
	metrics    *Metrics
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// verifyCredentials checks the username/password pair against storage.
// An unknown username and a wrong password are indistinguishable to the
// caller; a disabled account is reported as such only after the
// password verified, so probing cannot reveal account state either.
func (e *Engine) verifyCredentials(ctx context.Context, username, plaintext string) (UserRecord, error) {
	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserRecord{}, ErrInvalidCredentials
		}
		return UserRecord{}, err
	}

	ok, err := e.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		// A stored hash the verifier cannot parse folds into the same
		// answer as a mismatch.
		return UserRecord{}, ErrInvalidCredentials
	}

	if !user.Enabled {
		return UserRecord{}, ErrAccountDisabled
	}
	return user, nil
}

// ResolvePrincipal loads the account for username and produces the
// immutable authenticated principal. Fails with [ErrUserNotFound] for
// an absent record and [ErrAccountDisabled] for a disabled one.
func (e *Engine) ResolvePrincipal(ctx context.Context, username string) (Principal, error) {
	if e == nil || e.users == nil {
		return Principal{}, ErrEngineNotReady
	}
	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		return Principal{}, err
	}
	return principalFromRecord(user)
}

// ResolvePrincipalByID is [ResolvePrincipal] keyed by user id.
func (e *Engine) ResolvePrincipalByID(ctx context.Context, id int64) (Principal, error) {
	if e == nil || e.users == nil {
		return Principal{}, ErrEngineNotReady
	}
	user, err := e.users.FindByID(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	return principalFromRecord(user)
}

func principalFromRecord(user UserRecord) (Principal, error) {
	if !user.Enabled {
		return Principal{}, ErrAccountDisabled
	}
	return Principal{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Enabled:  user.Enabled,
	}, nil
}

// VerifyToken checks the signature and expiry of an access or refresh
// token and returns its claims. Failures are [ErrTokenExpired] or
// [ErrSignatureInvalid].
func (e *Engine) VerifyToken(token string) (*jwt.Claims, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	claims, err := e.jwtManager.Verify(token)
	if err != nil {
		return nil, mapTokenError(err)
	}
	return claims, nil
}

// Authenticate verifies token and resolves its subject to a fresh
// principal. Storage is consulted on every call, so a disabled or
// deleted account is rejected on its next request even while the token
// is unexpired.
func (e *Engine) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := e.VerifyToken(token)
	if err != nil {
		return Principal{}, err
	}
	return e.ResolvePrincipal(ctx, claims.Subject)
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return ErrSignatureInvalid
	}
}
