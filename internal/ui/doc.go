// Package ui provides the terminal client for Skillfinite.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model is a value type; every key press or
// message returns a new Model and an optional command. Lipgloss renders the
// views and bubbles supplies the text inputs, viewport and help widgets.
//
// The UI never talks to the API directly. Reads come from state.Store
// snapshots published by the app syncer; writes go through the domain stores
// (session, wishlist, cart, enrollment, notify) which own their own locking
// and persistence.
//
// # Package Structure
//
//   - app.go: Model, Update dispatch, per-view key handlers, messages and commands
//   - views.go: Courses, wishlist, cart and notification rendering
//   - login.go: Sign-in form and the account view
//   - logs.go: Log tail viewer with follow mode and regex search
//   - header.go: Status bar, command bar and footer
//   - help.go: Help overlay
//   - keys.go: Key bindings
//   - theme.go: Color themes and pre-built styles
//   - strings.go: Layout constants and formatting helpers
//
// # Views
//
//   - Courses: Enrolled courses with wishlist markers and cached progress
//   - Wishlist: Saved course ids; add to cart or remove
//   - Cart: Items with selection, per-item removal and the discounted total
//   - Notifications: The per-user inbox, newest first
//   - Logs: Tail of the client log file, filterable by component
//   - Account: Profile, or the sign-in form while signed out
//
// # Event Flow
//
//  1. Run builds the Model from Options and starts the program
//  2. A tick re-reads the state.Store snapshot at PollTick
//  3. Local edits call Syncer.Publish and re-read the snapshot at once
//  4. A session logout is delivered on LoggedOut and switches to Account
//  5. Context cancellation ends the program
//
// # Wishlist Display
//
// Wishlist membership is read from the live wishlist store instead of the
// snapshot so an optimistic toggle shows before the remote call returns.
//
// # Key Bindings
//
//   - Tab / Shift+Tab: Cycle views
//   - j/k, g/G: Navigate
//   - w: Toggle wishlist
//   - a: Add wishlisted course to cart
//   - enter: Load course progress, or submit the sign-in form
//   - Space: Toggle cart selection, or log follow mode
//   - x / X: Remove from cart / clear cart
//   - m / M / d / D: Mark read / mark all read / delete / clear notifications
//   - /: Search logs, n/N for next/previous match
//   - F: Cycle the log component filter
//   - r: Refresh now
//   - L: Log out
//   - T: Cycle theme
//   - ?: Help
//   - Ctrl+C: Exit
package ui
