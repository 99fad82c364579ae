package cache

import (
	"time"
)

// AuthCookie is the cookie carrying the session token.
const AuthCookie = "auth_token"

const cookiePrefix = "cookie:"

type cookieEntry struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

// CookieJar keeps expiring name/value pairs in a Storage, standing in for the
// browser cookie store.
type CookieJar struct {
	store Storage
	now   func() time.Time
}

// NewCookieJar returns a jar persisting to store.
func NewCookieJar(store Storage) *CookieJar {
	return &CookieJar{store: store, now: time.Now}
}

// WithClock replaces the jar's time source.
func (j *CookieJar) WithClock(now func() time.Time) *CookieJar {
	if now != nil {
		j.now = now
	}
	return j
}

// SetCookie stores value under name for maxAge.
func (j *CookieJar) SetCookie(name, value string, maxAge time.Duration) {
	if j == nil {
		return
	}
	SetJSON(j.store, cookiePrefix+name, cookieEntry{Value: value, Expires: j.now().Add(maxAge)})
}

// Cookie returns the value of an unexpired cookie. Expired cookies are removed.
func (j *CookieJar) Cookie(name string) (string, bool) {
	if j == nil {
		return "", false
	}
	entry, ok := GetJSON[cookieEntry](j.store, cookiePrefix+name)
	if !ok {
		return "", false
	}
	if !entry.Expires.After(j.now()) {
		j.store.Remove(cookiePrefix + name)
		return "", false
	}
	return entry.Value, true
}

// Expires reports when the named cookie expires.
func (j *CookieJar) Expires(name string) (time.Time, bool) {
	if j == nil {
		return time.Time{}, false
	}
	entry, ok := GetJSON[cookieEntry](j.store, cookiePrefix+name)
	if !ok {
		return time.Time{}, false
	}
	return entry.Expires, true
}

// DeleteCookie removes the named cookie.
func (j *CookieJar) DeleteCookie(name string) {
	if j == nil {
		return
	}
	j.store.Remove(cookiePrefix + name)
}
