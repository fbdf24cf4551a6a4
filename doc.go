// Package authkit is the authentication and authorization core for the
// edusuite school backend. It issues and verifies signed stateless
// session tokens, drives the optional SMS one-time-code (2FA) login
// flow, and resolves the authenticated principal that the HTTP layer
// enforces role rules against.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Principal, LoginResult, UserRecord).
// Persistent user storage and SMS delivery stay outside the core
// behind the [UserStore] and [NotificationSender] interfaces; callers
// supply both at build time.
//
// # What this package must NOT do
//
//   - Persist users, passwords, or challenge codes beyond the injected
//     [ChallengeStore].
//   - Send SMS or touch the network outside of injected collaborators.
//   - Reject requests from the soft authentication middleware — bad or
//     missing tokens degrade to anonymous and the route policy decides.
//
// # Performance contract
//
// Token verification is the hot path. It is pure CPU work (one HMAC
// check plus claim decoding) and never touches a store; principal
// resolution is the single storage lookup per authenticated request.
package authkit
