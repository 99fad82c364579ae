package app

import (
	"context"
	"log"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/cache"
	"github.com/skillfinite/skillfinite/internal/cart"
	"github.com/skillfinite/skillfinite/internal/enrollment"
	"github.com/skillfinite/skillfinite/internal/notify"
	"github.com/skillfinite/skillfinite/internal/session"
	"github.com/skillfinite/skillfinite/internal/state"
	"github.com/skillfinite/skillfinite/internal/wishlist"
)

// Services is the set of stores one client process works with.
type Services struct {
	Cache      cache.Storage
	Bus        *notify.Bus
	Session    *session.Store
	Inbox      *notify.Inbox
	Wishlist   *wishlist.Store
	Cart       *cart.Store
	Enrollment *enrollment.Store
	State      *state.Store

	loggedOut chan struct{}
}

// Remote is everything the stores need from the API.
type Remote interface {
	session.Remote
	wishlist.Remote
	enrollment.Remote
}

var _ Remote = (*api.Client)(nil)

// NewServices builds the stores on top of remote and storage. The session is
// not bootstrapped yet; the inbox starts anonymous until Bootstrap runs.
func NewServices(remote Remote, storage cache.Storage) *Services {
	if storage == nil {
		storage = cache.NewMemory()
	}
	svc := &Services{
		Cache:     storage,
		Bus:       notify.NewBus(),
		State:     &state.Store{},
		loggedOut: make(chan struct{}, 1),
	}
	svc.Session = session.New(remote, storage, cache.NewCookieJar(storage),
		session.WithNavigator(svc.signalLogout))
	svc.Inbox = notify.NewInbox(storage, "", nil)
	svc.Wishlist = wishlist.New(remote, svc.Session, svc.Bus)
	svc.Cart = cart.New(storage, svc.Bus)
	svc.Enrollment = enrollment.New(remote, svc.Session)
	return svc
}

// Bootstrap restores the session and points the inbox at the signed-in user.
func (s *Services) Bootstrap(ctx context.Context) session.Session {
	s.Session.Bootstrap(ctx)
	<-s.Session.Ready()

	sess := s.Session.Snapshot()
	s.Inbox.SwitchUser(userID(sess))
	s.Inbox.Attach(s.Bus)
	log.Printf("[app] session %s", s.Session.State())
	return sess
}

// LoggedOut fires after a logout, once per logout, for the UI to return to the
// sign-in form.
func (s *Services) LoggedOut() <-chan struct{} {
	return s.loggedOut
}

// Snapshot copies every store into one state.Snapshot.
func (s *Services) Snapshot() state.Snapshot {
	return state.Snapshot{
		Session:       s.Session.Snapshot(),
		Wishlist:      s.Wishlist.Items(),
		Cart:          s.Cart.Items(),
		CartTotal:     s.Cart.TotalPrice(),
		CartOriginal:  s.Cart.DiscountedTotal(),
		Enrollments:   s.Enrollment.Courses(),
		Notifications: s.Inbox.Records(),
		Unread:        s.Inbox.Unread(),
	}
}

// Close detaches the inbox from the bus.
func (s *Services) Close() {
	s.Inbox.Detach()
}

func (s *Services) signalLogout() {
	select {
	case s.loggedOut <- struct{}{}:
	default:
	}
}

func userID(sess session.Session) string {
	if !sess.IsAuthenticated() {
		return ""
	}
	return sess.User.ID
}
