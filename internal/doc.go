// Package internal contains helper utilities that are intentionally
// private to authkit, including secure random code and secret
// generation.
//
// # Sub-packages
//
//   - audit — async event dispatch (Sink implementations + event model)
//
// # What this package must NOT do
//
//   - Export types that appear in the public authkit API.
//   - Be imported by any package outside the authkit module.
package internal
