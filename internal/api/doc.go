// Package api provides an HTTP client for the Skillfinite REST API.
//
// # Overview
//
// The client covers the endpoints the client-side stores depend on: session
// recovery and creation, sign-in, the user profile, the wishlist, enrolled
// courses and per-course progress. Every response is the standard envelope:
//
//	{"success": true, "message": "...", "data": {...}}
//
// # Client Usage
//
//	client, err := api.NewClient("https://api.skillfinite.com",
//		api.WithTimeout(15*time.Second),
//		api.WithRetry(3, 200*time.Millisecond),
//	)
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//
//	courses, err := client.Wishlist(ctx, token)
//	if err != nil {
//		log.Printf("[api] wishlist fetch failed: %v", err)
//	}
//
// # API Endpoints
//
//	GET    /api/auth/session                 token for the auth_token cookie
//	POST   /api/auth/session                 register a token as the session
//	DELETE /api/auth/session                 end the session
//	POST   /api/auth/login                   exchange credentials for a token
//	GET    /api/profile                      current user profile
//	GET    /api/wishlist                     wishlist course ids
//	POST   /api/wishlist                     add {courseId}
//	DELETE /api/wishlist/{courseId}          remove a course
//	GET    /api/wishlist/check/{courseId}    membership check
//	GET    /api/enrollment/student/courses   enrolled courses
//	GET    /api/progress/{courseId}          curriculum and progress
//
// Authenticated calls send "Authorization: Bearer <token>". Session calls send
// the auth_token cookie instead.
//
// # Errors
//
// Failures fall into four classes that callers branch on:
//
//   - ErrTimeout: the context deadline or transport timeout fired
//   - ErrNetwork: no HTTP status was received
//   - *StatusError: the server answered with a status >= 400
//   - ErrRejected: a 2xx envelope carried success=false
//
// IsUnauthorized singles out the 401 case, which is the only failure the
// session store treats as "signed out".
//
// # Retries
//
// GET requests are retried with exponential backoff (retry-go) on network
// failures and 5xx responses. Mutations are sent exactly once.
//
// # Validation
//
// Decoded payloads are checked with go-playground/validator. Records missing
// required identifiers are rejected as a decode-level error rather than being
// passed on half-formed.
package api
