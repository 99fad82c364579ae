// Package state holds the snapshot shared between the background syncer and
// the UI.
//
// # Overview
//
// The domain stores (session, wishlist, cart, enrollment, notify) each guard
// their own data. The UI, however, renders them together, and it should never
// see half of a sync. The syncer therefore copies every store into a Snapshot
// and publishes it here in one step:
//
//	Producer (Syncer):              Consumer (UI):
//	┌──────────────────┐           ┌──────────────────┐
//	│ RefreshUser()    │           │                  │
//	│ LoadEnrollments()│           │                  │
//	│ wishlist.Load()  │           │                  │
//	│      ↓           │           │                  │
//	│ store.Update()   │──────────→│ store.Snapshot() │
//	└──────────────────┘  (mutex)  └──────────────────┘
//
// # Update Semantics
//
// Update replaces all data on every call. The domain stores already keep
// their previous contents when a remote call fails, so a failed sync still
// publishes the best known state. The error only feeds LastError and
// ConsecutiveFailures; IsOffline reports two or more failures in a row.
//
// Replace publishes local edits (a wishlist toggle, a cart change) between
// syncs without touching LastUpdated or the failure counter.
//
// # Copying
//
// Both directions copy slices and the user profile, so the UI may sort or
// mutate what it receives. The zero Store is ready to use.
package state
