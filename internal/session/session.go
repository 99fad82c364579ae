package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/cache"
)

// State is the auth state machine position.
type State int

const (
	Bootstrapping State = iota
	Authenticated
	Anonymous
	Refreshing
)

func (s State) String() string {
	switch s {
	case Bootstrapping:
		return "bootstrapping"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	case Refreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	rememberMeAge      = 30 * 24 * time.Hour
	sessionCookieAge   = 7 * 24 * time.Hour
	defaultRefreshWait = 10 * time.Second
	placeholderUserID  = "session-user"
)

// ErrNoToken is returned by operations that need a signed-in user.
var ErrNoToken = errors.New("no session token")

// Session is a point-in-time copy of the auth state.
type Session struct {
	Token string
	User  *api.UserProfile
}

// IsAuthenticated reports whether both a token and a user are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// Remote lists the api calls the session store makes.
type Remote interface {
	RecoverSession(ctx context.Context, cookie string) (string, error)
	CreateSession(ctx context.Context, token string, rememberMe bool) error
	DeleteSession(ctx context.Context, cookie string) error
	SignIn(ctx context.Context, email, password string) (string, *api.UserProfile, error)
	Profile(ctx context.Context, token string) (*api.UserProfile, error)
}

var _ Remote = (*api.Client)(nil)

// Store owns the token and user for the running client.
type Store struct {
	remote         Remote
	store          cache.Storage
	jar            *cache.CookieJar
	navigate       func()
	refreshTimeout time.Duration

	mu        sync.RWMutex
	token     string
	user      *api.UserProfile
	state     State
	loading   bool
	observers map[int]func(Session)
	nextID    int

	ready     chan struct{}
	readyOnce sync.Once
}

// Option customises a Store.
type Option func(*Store)

// WithNavigator sets the callback run after logout, typically switching the
// UI to its login view.
func WithNavigator(fn func()) Option {
	return func(s *Store) {
		s.navigate = fn
	}
}

// WithRefreshTimeout overrides the 10s deadline applied to RefreshUser.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

// New returns a store in the Bootstrapping state. Call Bootstrap once before use.
func New(remote Remote, store cache.Storage, jar *cache.CookieJar, opts ...Option) *Store {
	if store == nil {
		store = cache.Nop{}
	}
	if jar == nil {
		jar = cache.NewCookieJar(store)
	}
	s := &Store{
		remote:         remote,
		store:          store,
		jar:            jar,
		refreshTimeout: defaultRefreshWait,
		state:          Bootstrapping,
		loading:        true,
		observers:      make(map[int]func(Session)),
		ready:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap decides whether a user is already signed in. Cached credentials
// win without touching the network; otherwise the auth cookie is exchanged for
// a token. Every failure leaves the store Anonymous.
func (s *Store) Bootstrap(ctx context.Context) {
	defer s.finishLoading()

	token, _ := s.store.Get(cache.KeyToken)
	token = strings.TrimSpace(token)
	user := s.cachedUser()
	if token != "" && user != nil {
		s.adopt(token, user)
		return
	}

	if s.remote == nil {
		s.setAnonymous()
		return
	}
	cookie, _ := s.jar.Cookie(cache.AuthCookie)
	recovered, err := s.remote.RecoverSession(ctx, cookie)
	if err != nil {
		log.Printf("[session] recover session failed: %v", err)
		s.setAnonymous()
		return
	}
	if recovered == "" {
		s.setAnonymous()
		return
	}
	if user == nil {
		user = placeholderUser(recovered)
	}
	s.persist(recovered, user)
	s.adopt(recovered, user)
}

// Login stores the credentials, sets the auth cookie and registers the
// session remotely. Any failure is returned and nothing is kept.
func (s *Store) Login(ctx context.Context, token string, user *api.UserProfile, rememberMe bool) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	if user == nil {
		return fmt.Errorf("login: user required")
	}
	user = cloneUser(user)

	s.persist(token, user)
	maxAge := sessionCookieAge
	if rememberMe {
		maxAge = rememberMeAge
	}
	s.jar.SetCookie(cache.AuthCookie, token, maxAge)

	if s.remote != nil {
		if err := s.remote.CreateSession(ctx, token, rememberMe); err != nil {
			s.forget()
			return fmt.Errorf("create session: %w", err)
		}
	}
	s.adopt(token, user)
	return nil
}

// SignIn exchanges credentials for a token and then logs in with it.
func (s *Store) SignIn(ctx context.Context, email, password string, rememberMe bool) error {
	if s.remote == nil {
		return fmt.Errorf("sign in: no remote")
	}
	token, user, err := s.remote.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return s.Login(ctx, token, user, rememberMe)
}

// Logout clears every cached credential, ends the remote session on a best
// effort basis and navigates to the login screen.
func (s *Store) Logout(ctx context.Context) {
	cookie, ok := s.jar.Cookie(cache.AuthCookie)
	if !ok {
		cookie = s.Token()
	}
	s.forget()

	if s.remote != nil {
		if err := s.remote.DeleteSession(ctx, cookie); err != nil {
			log.Printf("[session] delete session failed: %v", err)
		}
	}
	s.setAnonymous()
	if s.navigate != nil {
		s.navigate()
	}
}

// RefreshUser re-fetches the profile. Only a 401 signs the user out; other
// failures keep the current session and are returned.
func (s *Store) RefreshUser(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	if token == "" || s.remote == nil {
		s.mu.Unlock()
		return nil
	}
	s.state = Refreshing
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()
	profile, err := s.remote.Profile(ctx, token)

	if err != nil {
		if api.IsUnauthorized(err) {
			log.Printf("[session] token rejected, signing out")
			if s.invalidate(token) {
				s.setAnonymous()
			}
			return fmt.Errorf("refresh user: %w", err)
		}
		s.restoreAuthenticated(token)
		return fmt.Errorf("refresh user: %w", err)
	}

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return nil
	}
	merged := cloneUser(s.user)
	if merged == nil {
		merged = &api.UserProfile{}
	}
	mergeProfile(merged, *profile)
	s.user = merged
	s.state = Authenticated
	s.mu.Unlock()

	cache.SetJSON(s.store, cache.KeyUser, merged)
	s.broadcast()
	return nil
}

// UpdateUser merges the non-empty fields of partial into the current user and
// re-persists it. No remote call is made.
func (s *Store) UpdateUser(partial api.UserProfile) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNoToken
	}
	merged := cloneUser(s.user)
	mergeProfile(merged, partial)
	s.user = merged
	s.mu.Unlock()

	cache.SetJSON(s.store, cache.KeyUser, merged)
	s.broadcast()
	return nil
}

// Subscribe registers fn to receive the session after each change.
func (s *Store) Subscribe(fn func(Session)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{Token: s.token, User: cloneUser(s.user)}
}

// Token returns the current token, empty when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the current state machine position.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading reports whether Bootstrap has not finished yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ready is closed once Bootstrap finishes.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) finishLoading() {
	s.readyOnce.Do(func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		close(s.ready)
	})
}

func (s *Store) cachedUser() *api.UserProfile {
	if _, ok := s.store.Get(cache.KeyUser); !ok {
		return nil
	}
	user, ok := cache.GetJSON[api.UserProfile](s.store, cache.KeyUser)
	if !ok || user.ID == "" {
		s.store.Remove(cache.KeyUser)
		return nil
	}
	return &user
}

func (s *Store) persist(token string, user *api.UserProfile) {
	s.store.Set(cache.KeyToken, token)
	cache.SetJSON(s.store, cache.KeyUser, user)
}

func (s *Store) forget() {
	s.store.Remove(cache.KeyToken)
	s.store.Remove(cache.KeyUser)
	s.store.Remove(cache.KeyUserProfile)
	s.jar.DeleteCookie(cache.AuthCookie)
}

func (s *Store) adopt(token string, user *api.UserProfile) {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.state = Authenticated
	s.mu.Unlock()
	s.broadcast()
}

func (s *Store) setAnonymous() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.state = Anonymous
	s.mu.Unlock()
	s.broadcast()
}

func (s *Store) restoreAuthenticated(token string) {
	s.mu.Lock()
	if s.token == token && s.state == Refreshing {
		s.state = Authenticated
	}
	s.mu.Unlock()
}

// invalidate drops token and user when they still belong to token.
func (s *Store) invalidate(token string) bool {
	s.mu.RLock()
	current := s.token
	s.mu.RUnlock()
	if current != token {
		return false
	}
	s.store.Remove(cache.KeyToken)
	s.store.Remove(cache.KeyUser)
	return true
}

func (s *Store) broadcast() {
	s.mu.RLock()
	snap := Session{Token: s.token, User: cloneUser(s.user)}
	observers := make([]func(Session), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(snap)
	}
}

// placeholderUser builds a minimal user from the token's claims. The token is
// not verified; the server already vouched for it.
func placeholderUser(token string) *api.UserProfile {
	user := &api.UserProfile{ID: placeholderUserID}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return user
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		user.ID = sub
	} else if id := stringClaim(claims, "id"); id != "" {
		user.ID = id
	} else if id := stringClaim(claims, "userId"); id != "" {
		user.ID = id
	}
	user.Email = stringClaim(claims, "email")
	user.Name = stringClaim(claims, "name")
	return user
}

func stringClaim(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func mergeProfile(dst *api.UserProfile, src api.UserProfile) {
	if src.ID != "" {
		dst.ID = src.ID
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Avatar != "" {
		dst.Avatar = src.Avatar
	}
	if src.Bio != "" {
		dst.Bio = src.Bio
	}
	if src.Role != "" {
		dst.Role = src.Role
	}
	if src.Stats != nil {
		stats := *src.Stats
		dst.Stats = &stats
	}
}

func cloneUser(u *api.UserProfile) *api.UserProfile {
	if u == nil {
		return nil
	}
	dup := *u
	if u.Stats != nil {
		stats := *u.Stats
		dup.Stats = &stats
	}
	return &dup
}
