// Package app is the composition root of the Skillfinite client.
//
// # Overview
//
// Run wires configuration, logging, the local cache, the API client and the
// domain stores, then hands control to the TUI:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()         config.toml, .env, defaults
//	       ├─────> logging.Setup()       rotate log output to cfg.LogFile
//	       ├─────> api.NewClient()       HTTP client with retries
//	       ├─────> cache.NewFile()       cache.json under the data dir
//	       ├─────> NewServices()         session, wishlist, cart, enrollment, inbox
//	       ├─────> Bootstrap()           restore or recover the session
//	       ├─────> Syncer.Prime()        parallel first load
//	       ├─────> Syncer.Start()        background refresh loop
//	       └─────> ui.Run()              blocks until the user quits
//
// # Syncer
//
// The Syncer refreshes the profile, enrollments and wishlist concurrently at
// the configured interval (default 30s). After each round it copies every
// store into the shared state.Store. Consecutive failures double the wait up
// to five minutes; a success resets it. Refresh skips the wait.
//
// Results of a round that finishes after Stop are dropped, so a closing UI is
// never written to.
//
// The Syncer also watches the session. A different user switches the
// notification inbox and triggers a refresh. Signing out clears the
// wishlist and enrollments; the cart is kept because it is not tied to an
// account.
//
// # Errors
//
// Run returns configuration, log and client setup errors. Everything after
// startup is logged and surfaced through state.Snapshot.LastError.
package app
