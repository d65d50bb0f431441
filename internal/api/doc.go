// Package api implements the HTTP REST API and WebSocket server for screener.
//
// This package provides:
//   - REST endpoints over the manager: slices, components, scenes, slots,
//     playbacks, history, media resolution and whole-state snapshots
//   - WebSocket hub broadcasting manager notifications on named channels
//   - JWT authentication with role permissions and ticket-based WebSocket auth
//   - Audit trail of successful mutations, queryable at GET /audit
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Architecture
//
// Operators and render surfaces talk to the manager through this package.
// Mutations go straight to the manager; its notifications come back through
// the relay fan-out into the Hub, which pushes them to subscribed clients.
//
// # Security
//
// An empty JWT secret disables authentication and every caller acts as an
// operator. Otherwise POST /auth/token exchanges configured account
// credentials for a bearer token, and WebSocket connections use single-use
// tickets so tokens never appear in URLs.
//
// # Errors
//
// Manager sentinel errors map to 404 or 400 responses carrying the
// {status, code, message} envelope. Removing an unknown id is a soft miss
// and still returns 204.
package api
