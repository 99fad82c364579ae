// Package notify implements the in-process notification bus and per-user
// notification inboxes.
//
// # Bus
//
// A Bus fans each emitted Event out to every subscriber. Each delivery gets
// its own id; all copies of one emission share the timestamp taken when it
// was emitted. Producers call the typed helpers:
//
//	bus.NotifySuccess("Added to wishlist", course.Title)
//	bus.NotifyCourse("New lesson", "Module 2 is live", "/courses/k1")
//
// Listeners run synchronously on the emitting goroutine in subscription order.
//
// # Inbox
//
// An Inbox is one subscriber. It keeps the list newest first, capped at 100
// records, and persists it under notifications-<userID>. Switching user loads
// that user's list. While no user is signed in records live only in memory.
//
// When a Native implementation is supplied the inbox asks for permission once
// on Attach and mirrors records to the OS only if permission is granted. In-app
// delivery never depends on it.
package notify
