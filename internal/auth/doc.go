// Package auth provides API authentication for the screener.
//
// Two roles exist:
//   - operator: full control of the stage (edit, play, undo, media)
//   - display: read-only access for render surfaces and monitors
//
// Accounts are declared in configuration with Argon2id password hashes.
// A successful login mints a short-lived HS256 JWT carrying the role;
// requests are then authorised by signature and role alone, without any
// database lookup.
package auth
