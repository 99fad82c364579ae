// Package session owns the signed-in user and the token used by every
// authenticated call.
//
// # State Machine
//
//	Bootstrapping ──> Authenticated <──> Refreshing
//	      │                 │
//	      └──────────> Anonymous <──┘ (logout, 401)
//
// Bootstrap runs once at startup. Cached credentials are adopted without a
// network call; otherwise the auth_token cookie is exchanged for a token via
// the recover-session endpoint. Loading flips to false exactly once and
// Ready is closed, whatever the outcome.
//
// # Failure Rules
//
//   - Login failures are returned to the caller and leave nothing cached.
//   - Logout always clears local credentials; the remote delete is best effort.
//   - RefreshUser signs out only on HTTP 401. Timeouts, network failures and
//     other statuses keep the current session.
//
// Dependent stores call Subscribe to reload or reset when the user changes.
package session
