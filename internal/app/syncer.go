package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/skillfinite/skillfinite/internal/notify"
	"github.com/skillfinite/skillfinite/internal/session"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// calculateBackoff returns the poll interval with exponential backoff applied.
// Each consecutive failure doubles the interval, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// Syncer keeps the stores fresh in the background and publishes them to the
// shared state.Store.
type Syncer struct {
	svc      *Services
	interval time.Duration
	kick     chan struct{}

	mu         sync.Mutex
	cancel     context.CancelFunc
	done       chan struct{}
	unwatch    func()
	lastUserID string
}

// NewSyncer returns a stopped Syncer. A non-positive interval uses the default.
func NewSyncer(svc *Services, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Syncer{
		svc:      svc,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Prime loads the session-dependent stores in parallel and publishes the
// first snapshot. Load failures are recorded on the snapshot, not returned.
func (s *Syncer) Prime(ctx context.Context) {
	var errMu sync.Mutex
	var firstErr error

	var wg conc.WaitGroup
	wg.Go(func() {
		s.svc.Wishlist.Load(ctx)
	})
	wg.Go(func() {
		if err := s.svc.Enrollment.LoadEnrollments(ctx); err != nil {
			errMu.Lock()
			firstErr = err
			errMu.Unlock()
		}
	})
	wg.Wait()

	s.mu.Lock()
	s.lastUserID = userID(s.svc.Session.Snapshot())
	s.mu.Unlock()
	s.svc.State.Update(s.svc.Snapshot(), firstErr)
}

// Start launches the sync loop and subscribes to session changes. Calling
// Start on a running Syncer restarts it.
func (s *Syncer) Start(ctx context.Context) {
	s.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	unwatch := s.svc.Session.Subscribe(s.onSession)
	s.svc.Inbox.OnChange(func([]notify.Record) { s.Publish() })

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.unwatch = unwatch
	s.mu.Unlock()

	go s.run(ctx, done)
}

// Stop cancels the loop and waits for it to exit. In-flight results are
// dropped.
func (s *Syncer) Stop() {
	s.mu.Lock()
	cancel, done, unwatch := s.cancel, s.done, s.unwatch
	s.cancel, s.done, s.unwatch = nil, nil, nil
	s.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	s.svc.Inbox.OnChange(nil)
	if cancel != nil {
		cancel()
		<-done
	}
}

// Refresh asks the loop to sync now instead of waiting for the next tick.
func (s *Syncer) Refresh() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Publish pushes the stores' current contents without a remote round trip.
func (s *Syncer) Publish() {
	s.svc.State.Replace(s.svc.Snapshot())
}

func (s *Syncer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		wait := calculateBackoff(s.svc.State.Snapshot().ConsecutiveFailures, s.interval)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.kick:
			timer.Stop()
		case <-timer.C:
		}
		s.syncOnce(ctx)
	}
}

func (s *Syncer) syncOnce(ctx context.Context) {
	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		return s.svc.Session.RefreshUser(ctx)
	})
	p.Go(func(ctx context.Context) error {
		return s.svc.Enrollment.LoadEnrollments(ctx)
	})
	p.Go(func(ctx context.Context) error {
		s.svc.Wishlist.Load(ctx)
		return nil
	})
	err := p.Wait()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Printf("[sync] refresh failed: %v", err)
	}
	s.svc.State.Update(s.svc.Snapshot(), err)
}

// onSession reacts to sign-in and sign-out. A new user reloads everything; a
// sign-out clears the user-scoped stores.
func (s *Syncer) onSession(sess session.Session) {
	id := userID(sess)

	s.mu.Lock()
	changed := id != s.lastUserID
	s.lastUserID = id
	s.mu.Unlock()
	if !changed {
		return
	}

	s.svc.Inbox.SwitchUser(id)
	if id == "" {
		log.Printf("[sync] signed out, clearing user data")
		s.svc.Wishlist.Reset()
		s.svc.Enrollment.Reset()
		s.Publish()
		return
	}
	log.Printf("[sync] user %s signed in, reloading", id)
	s.Publish()
	s.Refresh()
}
