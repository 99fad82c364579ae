package optimistic

import (
	"context"
	"log"
	"sort"
	"sync"
)

// Remote is the authoritative side of a Set.
type Remote[K comparable] interface {
	List(ctx context.Context) ([]K, error)
	Add(ctx context.Context, key K) error
	Remove(ctx context.Context, key K) error
}

// Result describes how a toggle settled.
type Result struct {
	// Added is true when the toggle asked for membership.
	Added bool
	// Err is the remote failure, if any. Local state has already been
	// reconciled when it is set.
	Err error
	// Superseded is true when a Load replaced membership while the remote
	// call was running. The completion left local state alone and OnResult
	// was not called.
	Superseded bool
}

// Set is a membership set whose toggles apply locally before the remote
// confirms them and roll back when the remote refuses.
//
// Overlapping toggles on one key are not serialized. Each toggle takes a
// per-key sequence number. A success is recorded as the confirmed state only
// if no later toggle on that key has already been confirmed. While calls are
// in flight the latest intent is shown; when the last one settles the key is
// set to the confirmed state. A Load discards the bookkeeping of calls
// started before it.
type Set[K comparable] struct {
	remote Remote[K]
	less   func(a, b K) bool
	name   string

	mu        sync.Mutex
	members   map[K]struct{}
	confirmed map[K]struct{}
	inflight  map[K]int
	issued    map[K]uint64
	settled   map[K]uint64
	gen       uint64
	onResult  func(K, Result)
}

// Option customises a Set.
type Option[K comparable] func(*Set[K])

// WithLess orders the output of Items.
func WithLess[K comparable](less func(a, b K) bool) Option[K] {
	return func(s *Set[K]) {
		s.less = less
	}
}

// WithName sets the component tag used in log lines.
func WithName[K comparable](name string) Option[K] {
	return func(s *Set[K]) {
		if name != "" {
			s.name = name
		}
	}
}

// New returns an empty set backed by remote.
func New[K comparable](remote Remote[K], opts ...Option[K]) *Set[K] {
	s := &Set[K]{
		remote:    remote,
		name:      "optimistic",
		members:   make(map[K]struct{}),
		confirmed: make(map[K]struct{}),
		inflight:  make(map[K]int),
		issued:    make(map[K]uint64),
		settled:   make(map[K]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnResult registers fn to run after each toggle settles.
func (s *Set[K]) OnResult(fn func(K, Result)) {
	s.mu.Lock()
	s.onResult = fn
	s.mu.Unlock()
}

// Load replaces the set with the remote list. A failed fetch leaves the set
// empty; the error is logged, never returned.
func (s *Set[K]) Load(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	var keys []K
	if s.remote != nil {
		var err error
		keys, err = s.remote.List(ctx)
		if err != nil {
			log.Printf("[%s] load failed: %v", s.name, err)
			keys = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.gen++
	s.members = make(map[K]struct{}, len(keys))
	s.confirmed = make(map[K]struct{}, len(keys))
	s.inflight = make(map[K]int)
	s.issued = make(map[K]uint64)
	s.settled = make(map[K]uint64)
	for _, k := range keys {
		s.members[k] = struct{}{}
		s.confirmed[k] = struct{}{}
	}
}

// Reset empties the set without a remote call.
func (s *Set[K]) Reset() {
	s.mu.Lock()
	s.gen++
	s.members = make(map[K]struct{})
	s.confirmed = make(map[K]struct{})
	s.inflight = make(map[K]int)
	s.issued = make(map[K]uint64)
	s.settled = make(map[K]uint64)
	s.mu.Unlock()
}

// Contains reports current local membership.
func (s *Set[K]) Contains(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[key]
	return ok
}

// Len returns the number of members.
func (s *Set[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// Items returns a copy of the members, ordered when WithLess was given.
func (s *Set[K]) Items() []K {
	s.mu.Lock()
	out := make([]K, 0, len(s.members))
	for k := range s.members {
		out = append(out, k)
	}
	s.mu.Unlock()
	if s.less != nil {
		sort.Slice(out, func(i, j int) bool { return s.less(out[i], out[j]) })
	}
	return out
}

// Toggle flips membership of key immediately, then asks the remote to do the
// same. Membership is visible to Contains before the remote call starts.
func (s *Set[K]) Toggle(ctx context.Context, key K) Result {
	s.mu.Lock()
	_, was := s.members[key]
	if was {
		delete(s.members, key)
	} else {
		s.members[key] = struct{}{}
	}
	s.inflight[key]++
	s.issued[key]++
	seq := s.issued[key]
	gen := s.gen
	s.mu.Unlock()

	res := Result{Added: !was}
	switch {
	case s.remote == nil:
	case res.Added:
		res.Err = s.remote.Add(ctx, key)
	default:
		res.Err = s.remote.Remove(ctx, key)
	}

	s.mu.Lock()
	res.Superseded = s.gen != gen
	if !res.Superseded {
		if res.Err == nil && seq > s.settled[key] {
			s.settled[key] = seq
			if res.Added {
				s.confirmed[key] = struct{}{}
			} else {
				delete(s.confirmed, key)
			}
		}
		s.inflight[key]--
		if s.inflight[key] <= 0 {
			delete(s.inflight, key)
			if _, ok := s.confirmed[key]; ok {
				s.members[key] = struct{}{}
			} else {
				delete(s.members, key)
			}
		}
	}
	fn := s.onResult
	s.mu.Unlock()

	if res.Err != nil {
		log.Printf("[%s] toggle %v failed: %v", s.name, key, res.Err)
	}
	if fn != nil && !res.Superseded {
		fn(key, res)
	}
	return res
}
