package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/notify"
	"github.com/skillfinite/skillfinite/internal/optimistic"
)

// ErrNotSignedIn is reported when a wishlist change is attempted without a token.
var ErrNotSignedIn = errors.New("wishlist requires a signed-in user")

// Remote lists the wishlist endpoints of the API client.
type Remote interface {
	Wishlist(ctx context.Context, token string) ([]api.CourseRef, error)
	AddToWishlist(ctx context.Context, token, courseID string) error
	RemoveFromWishlist(ctx context.Context, token, courseID string) error
	InWishlist(ctx context.Context, token, courseID string) (bool, error)
}

// TokenSource yields the current session token; session.Store satisfies it.
type TokenSource interface {
	Token() string
}

// Store is the user's wishlist of course ids.
type Store struct {
	remote   Remote
	tokens   TokenSource
	notifier notify.Notifier
	set      *optimistic.Set[string]

	mu      sync.RWMutex
	courses map[string]api.CourseRef // details known per course id
}

// New builds an empty wishlist. Call Load to fetch it.
func New(remote Remote, tokens TokenSource, notifier notify.Notifier) *Store {
	s := &Store{remote: remote, tokens: tokens, notifier: notifier, courses: make(map[string]api.CourseRef)}
	s.set = optimistic.New[string](
		remoteSet{store: s},
		optimistic.WithName[string]("wishlist"),
		optimistic.WithLess[string](func(a, b string) bool { return a < b }),
	)
	s.set.OnResult(s.report)
	return s
}

// Load replaces the wishlist with the server copy. Without a token the list
// becomes empty and no call is made.
func (s *Store) Load(ctx context.Context) {
	s.set.Load(ctx)
}

// IsInWishlist reports local membership.
func (s *Store) IsInWishlist(courseID string) bool {
	return s.set.Contains(courseID)
}

// Toggle adds or removes courseID optimistically. The outcome is reported
// through the notifier; Result is returned for callers that need it.
func (s *Store) Toggle(ctx context.Context, courseID string) optimistic.Result {
	courseID = strings.TrimSpace(courseID)
	if s.token() == "" {
		if s.notifier != nil {
			s.notifier.NotifyWarning("Sign in required", "Please log in to use the wishlist")
		}
		return optimistic.Result{Added: !s.set.Contains(courseID), Err: ErrNotSignedIn}
	}
	return s.set.Toggle(ctx, courseID)
}

// ToggleCourse is Toggle for a course whose details are known, so they can
// be handed on later, e.g. to the cart.
func (s *Store) ToggleCourse(ctx context.Context, course api.CourseRef) optimistic.Result {
	s.remember(course)
	return s.Toggle(ctx, course.ID)
}

// Course returns the details known for courseID. Only the id is set when
// nothing beyond membership was ever seen.
func (s *Store) Course(courseID string) (api.CourseRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[strings.TrimSpace(courseID)]
	return c, ok
}

// Check asks the server whether courseID is wishlisted without touching
// local state.
func (s *Store) Check(ctx context.Context, courseID string) (bool, error) {
	token := s.token()
	if token == "" {
		return false, ErrNotSignedIn
	}
	if s.remote == nil {
		return s.IsInWishlist(courseID), nil
	}
	return s.remote.InWishlist(ctx, token, courseID)
}

// Items returns the wishlisted course ids in ascending order.
func (s *Store) Items() []string {
	return s.set.Items()
}

// Count returns the number of wishlisted courses.
func (s *Store) Count() int {
	return s.set.Len()
}

// Reset empties the local wishlist, used on logout.
func (s *Store) Reset() {
	s.set.Reset()
	s.mu.Lock()
	s.courses = make(map[string]api.CourseRef)
	s.mu.Unlock()
}

// remember merges course into the known details; empty fields keep what was
// already known.
func (s *Store) remember(course api.CourseRef) {
	course.ID = strings.TrimSpace(course.ID)
	if course.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	known := s.courses[course.ID]
	known.ID = course.ID
	keep(&known.Title, course.Title)
	keep(&known.Instructor, course.Instructor)
	keep(&known.Price, course.Price)
	keep(&known.Thumbnail, course.Thumbnail)
	s.courses[course.ID] = known
}

func (s *Store) token() string {
	if s.tokens == nil {
		return ""
	}
	return s.tokens.Token()
}

func (s *Store) report(courseID string, res optimistic.Result) {
	if s.notifier == nil {
		return
	}
	switch {
	case res.Err != nil:
		s.notifier.NotifyError("Failed to update wishlist", fmt.Sprintf("Could not update course %s. Please try again.", courseID))
	case res.Added:
		s.notifier.NotifySuccess("Added to wishlist", fmt.Sprintf("Course %s saved for later.", courseID))
	default:
		s.notifier.NotifySuccess("Removed from wishlist", fmt.Sprintf("Course %s removed.", courseID))
	}
}

func keep(dst *string, src string) {
	if strings.TrimSpace(src) != "" {
		*dst = src
	}
}

// remoteSet adapts the token-scoped API calls to optimistic.Remote.
type remoteSet struct {
	store *Store
}

func (r remoteSet) List(ctx context.Context) ([]string, error) {
	token := r.store.token()
	if token == "" || r.store.remote == nil {
		return nil, nil
	}
	courses, err := r.store.remote.Wishlist(ctx, token)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		r.store.remember(c)
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (r remoteSet) Add(ctx context.Context, courseID string) error {
	token := r.store.token()
	if token == "" {
		return ErrNotSignedIn
	}
	if r.store.remote == nil {
		return nil
	}
	return r.store.remote.AddToWishlist(ctx, token, courseID)
}

func (r remoteSet) Remove(ctx context.Context, courseID string) error {
	token := r.store.token()
	if token == "" {
		return ErrNotSignedIn
	}
	if r.store.remote == nil {
		return nil
	}
	return r.store.remote.RemoveFromWishlist(ctx, token, courseID)
}
