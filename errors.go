package authkit

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is internal to the engine and its collaborators;
	// login flows surface it as ErrInvalidCredentials.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountDisabled is returned for a disabled account even when the
	// supplied password is correct. Terminal until an admin re-enables.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountExists is returned by CreateAccount when the username or
	// email is already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrRoleInvalid is returned by CreateAccount for a role outside the
	// enumerated set.
	ErrRoleInvalid = errors.New("invalid account role")
	// ErrInvalidCode is returned for a wrong, expired, or missing 2FA
	// code. Expiry is deliberately not distinguished externally.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrCodeAttemptsExceeded is returned when Challenge.MaxAttempts is
	// configured and the guess budget for a challenge is spent.
	ErrCodeAttemptsExceeded = errors.New("verification code attempts exceeded")
	// ErrNotificationFailed is returned when the code was generated and
	// stored but could not be delivered. Distinct from credential
	// failures so clients can tell "wrong password" from "SMS failed".
	ErrNotificationFailed = errors.New("verification code delivery failed")
	// ErrTokenExpired is returned when a token's signature verifies but
	// its expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrSignatureInvalid is returned for forged, malformed, or
	// truncated tokens.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrUnauthenticated is returned by the route policy when a route
	// requires a principal and none is attached.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned by the route policy when the attached
	// principal's role satisfies no rule. Terminal until account state
	// changes.
	ErrForbidden = errors.New("forbidden")
	// ErrChallengeUnavailable is returned when the challenge store
	// backend cannot be reached.
	ErrChallengeUnavailable = errors.New("challenge store unavailable")
	// ErrEngineNotReady is returned when an Engine method is called on a
	// partially constructed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
