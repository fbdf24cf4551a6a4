// Package middleware exposes the per-request authorization pipeline
// built on top of authkit.Engine.
//
// # Stages
//
//   - [Authenticate] — soft pass: bearer extraction, token verification,
//     fresh principal resolution, context attachment. Never rejects;
//     bad or missing tokens degrade the request to anonymous.
//   - [Policy] — static route rule table producing 401/403.
//   - [RequireAuthenticated], [RequireRoles] — per-handler guards for
//     routes wired outside a Policy.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — token and principal decisions
// are delegated to Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Cache principals across requests.
//   - Reject a request from the Authenticate stage.
package middleware
