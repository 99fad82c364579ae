package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/cache"
	"github.com/skillfinite/skillfinite/internal/cart"
	"github.com/skillfinite/skillfinite/internal/enrollment"
	"github.com/skillfinite/skillfinite/internal/notify"
	"github.com/skillfinite/skillfinite/internal/session"
	"github.com/skillfinite/skillfinite/internal/state"
	"github.com/skillfinite/skillfinite/internal/wishlist"
)

type fakeRemote struct {
	mu        sync.Mutex
	wishlist  map[string]bool
	details   map[string]api.CourseRef
	signInErr error
}

func (f *fakeRemote) RecoverSession(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeRemote) CreateSession(context.Context, string, bool) error {
	return nil
}

func (f *fakeRemote) DeleteSession(context.Context, string) error {
	return nil
}

func (f *fakeRemote) Profile(context.Context, string) (*api.UserProfile, error) {
	return &api.UserProfile{ID: "u1"}, nil
}

func (f *fakeRemote) SignIn(_ context.Context, email, _ string) (string, *api.UserProfile, error) {
	if f.signInErr != nil {
		return "", nil, f.signInErr
	}
	return "tok", &api.UserProfile{ID: "u1", Email: email, Name: "Amy"}, nil
}

func (f *fakeRemote) Wishlist(context.Context, string) ([]api.CourseRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var courses []api.CourseRef
	for id := range f.wishlist {
		c := f.details[id]
		c.ID = id
		courses = append(courses, c)
	}
	return courses, nil
}

func (f *fakeRemote) AddToWishlist(_ context.Context, _, id string) error {
	f.mu.Lock()
	f.wishlist[id] = true
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) RemoveFromWishlist(_ context.Context, _, id string) error {
	f.mu.Lock()
	delete(f.wishlist, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) InWishlist(_ context.Context, _, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wishlist[id], nil
}

func (f *fakeRemote) EnrolledCourses(context.Context, string) ([]api.Enrollment, error) {
	return []api.Enrollment{
		{ID: "e1", Course: &api.CourseRef{ID: "go-101", Title: "Go Basics", Price: "$20"}},
		{ID: "e2", Course: &api.CourseRef{ID: "k8s", Title: "Kubernetes"}},
	}, nil
}

func (f *fakeRemote) CourseProgress(_ context.Context, _, courseID string) (api.CourseProgress, error) {
	return api.CourseProgress{CourseID: courseID}, nil
}

// fakeSyncer publishes straight from the stores, like the app syncer does.
type fakeSyncer struct {
	publish   func()
	refreshes int
}

func (f *fakeSyncer) Refresh() { f.refreshes++ }
func (f *fakeSyncer) Publish() { f.publish() }

type harness struct {
	remote  *fakeRemote
	storage *cache.Memory
	session *session.Store
	wish    *wishlist.Store
	cart    *cart.Store
	enroll  *enrollment.Store
	inbox   *notify.Inbox
	bus     *notify.Bus
	store   *state.Store
	syncer  *fakeSyncer
	fs      afero.Fs
}

func newHarness(t *testing.T, signedIn bool) *harness {
	t.Helper()
	h := &harness{
		remote:  &fakeRemote{wishlist: map[string]bool{}},
		storage: cache.NewMemory(),
		bus:     notify.NewBus(),
		store:   &state.Store{},
		fs:      afero.NewMemMapFs(),
	}
	if signedIn {
		h.storage.Set(cache.KeyToken, "tok")
		cache.SetJSON(h.storage, cache.KeyUser, api.UserProfile{ID: "u1", Name: "Amy"})
	}
	h.session = session.New(h.remote, h.storage, nil)
	h.session.Bootstrap(context.Background())
	h.wish = wishlist.New(h.remote, h.session, h.bus)
	h.cart = cart.New(h.storage, h.bus)
	h.enroll = enrollment.New(h.remote, h.session)
	h.inbox = notify.NewInbox(h.storage, "u1", nil)
	h.inbox.Attach(h.bus)
	t.Cleanup(h.inbox.Detach)

	if signedIn {
		if err := h.enroll.LoadEnrollments(context.Background()); err != nil {
			t.Fatalf("LoadEnrollments: %v", err)
		}
	}
	h.syncer = &fakeSyncer{publish: h.publish}
	h.publish()
	return h
}

func (h *harness) publish() {
	h.store.Replace(state.Snapshot{
		Session:       h.session.Snapshot(),
		Wishlist:      h.wish.Items(),
		Cart:          h.cart.Items(),
		CartTotal:     h.cart.TotalPrice(),
		CartOriginal:  h.cart.DiscountedTotal(),
		Enrollments:   h.enroll.Courses(),
		Notifications: h.inbox.Records(),
		Unread:        h.inbox.Unread(),
	})
}

func (h *harness) model() Model {
	m := New(Options{
		Session:    h.session,
		Wishlist:   h.wish,
		Cart:       h.cart,
		Enrollment: h.enroll,
		Inbox:      h.inbox,
		Store:      h.store,
		Cache:      h.storage,
		Syncer:     h.syncer,
		Files:      h.fs,
		LogPath:    "/logs/skillfinite.log",
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and follows the returned commands, feeding each message
// back into the model until the chain ends or fans out into a batch.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for i := 0; i < 5 && msg != nil; i++ {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd == nil {
			break
		}
		msg = cmd()
		if _, ok := msg.(tea.BatchMsg); ok {
			break
		}
	}
	return m
}

// typeText feeds keys to a focused text input without running the cursor
// blink commands it returns.
func typeText(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestNew_AnonymousStartsOnAccount(t *testing.T) {
	h := newHarness(t, false)
	m := h.model()
	if m.currentView != ViewAccount {
		t.Fatalf("currentView = %v, want Account", m.currentView)
	}
	if !strings.Contains(m.View(), "Sign in to Skillfinite") {
		t.Fatalf("View should show the sign-in form")
	}
}

func TestNew_SignedInStartsOnCourses(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	if m.currentView != ViewCourses {
		t.Fatalf("currentView = %v, want Courses", m.currentView)
	}
	view := m.View()
	if !strings.Contains(view, "Go Basics") || !strings.Contains(view, "Amy") {
		t.Fatalf("View missing courses or user:\n%s", view)
	}
}

func TestTabCyclesViews(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()

	want := []View{ViewWishlist, ViewCart, ViewNotifications, ViewLogs, ViewAccount, ViewCourses}
	for _, v := range want {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.currentView != v {
			t.Fatalf("after tab currentView = %v, want %v", m.currentView, v)
		}
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.currentView != ViewAccount {
		t.Fatalf("shift+tab from Courses = %v, want Account", m.currentView)
	}
}

func TestQuit(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("ctrl+c should quit")
	}
}

func TestCycleThemePersists(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	m = press(t, m, runes("T"))
	if m.theme.Name != "Nightfox" {
		t.Fatalf("theme = %q, want Nightfox", m.theme.Name)
	}
	if got, _ := h.storage.Get(cache.KeyTheme); got != "Nightfox" {
		t.Fatalf("stored theme = %q, want Nightfox", got)
	}
}

func TestHelpOverlay(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	m = press(t, m, runes("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m = press(t, m, runes("j"))
	if m.showHelp {
		t.Fatalf("any key should close help")
	}
}

func TestRefreshKicksSyncer(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	m = press(t, m, runes("r"))
	if h.syncer.refreshes != 1 {
		t.Fatalf("refreshes = %d, want 1", h.syncer.refreshes)
	}
	if m.status != "Refreshing..." {
		t.Fatalf("status = %q", m.status)
	}
}

func TestCoursesToggleWishlist(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()

	m = press(t, m, runes("j")) // select k8s
	m = press(t, m, runes("w"))
	if !h.wish.IsInWishlist("k8s") {
		t.Fatalf("k8s should be wishlisted")
	}
	if m.status != "Added to wishlist" {
		t.Fatalf("status = %q, want Added to wishlist", m.status)
	}
	if got := m.snapshot.Wishlist; len(got) != 1 || got[0] != "k8s" {
		t.Fatalf("snapshot wishlist = %v, want [k8s]", got)
	}
	if m.snapshot.Unread != 1 {
		t.Fatalf("toggle should raise a notification, unread = %d", m.snapshot.Unread)
	}
}

func TestWishlistToggleSignedOutWarns(t *testing.T) {
	h := newHarness(t, false)
	m := h.model()
	cmd := m.toggleWishlist(api.CourseRef{ID: "go-101"})
	msg, ok := cmd().(actionMsg)
	if !ok || !errors.Is(msg.err, wishlist.ErrNotSignedIn) {
		t.Fatalf("toggle signed out = %#v, want ErrNotSignedIn", msg)
	}
}

func TestWishlistAddToCart(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()

	m = press(t, m, runes("w")) // go-101 from Courses
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, runes("a"))
	if !h.cart.IsInCart("go-101") {
		t.Fatalf("go-101 should be in the cart")
	}
	if len(m.snapshot.Cart) != 1 {
		t.Fatalf("snapshot cart = %#v", m.snapshot.Cart)
	}
	course := m.snapshot.Cart[0].Course
	if course.Title != "Go Basics" || course.Price != "$20" {
		t.Fatalf("cart course = %#v, want Go Basics at $20", course)
	}
	if m.snapshot.CartTotal != 20 || m.snapshot.CartOriginal != 100 {
		t.Fatalf("totals = %d/%d, want 20/100", m.snapshot.CartTotal, m.snapshot.CartOriginal)
	}

	m = press(t, m, runes("a"))
	if m.status != "Already in cart" || h.cart.CartCount() != 1 {
		t.Fatalf("duplicate add: status=%q count=%d", m.status, h.cart.CartCount())
	}
}

func TestWishlistAddToCartUsesServerDetails(t *testing.T) {
	h := newHarness(t, true)
	h.remote.wishlist["rust"] = true
	h.remote.details = map[string]api.CourseRef{"rust": {Title: "Rust in Depth", Price: "$35"}}
	h.wish.Load(context.Background())
	h.publish()
	m := h.model()

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if !strings.Contains(m.View(), "Rust in Depth") {
		t.Fatalf("wishlist view should show the course title")
	}
	m = press(t, m, runes("a"))
	if got := h.cart.TotalPrice(); got != 35 {
		t.Fatalf("TotalPrice = %d, want 35", got)
	}
	if m.snapshot.CartTotal != 35 {
		t.Fatalf("snapshot CartTotal = %d, want 35", m.snapshot.CartTotal)
	}
}

func TestCartKeys(t *testing.T) {
	h := newHarness(t, true)
	for _, c := range []api.CourseRef{{ID: "a", Price: "$10"}, {ID: "b", Price: "$20"}, {ID: "c", Price: "Free"}} {
		if err := h.cart.AddToCart(c); err != nil {
			t.Fatalf("AddToCart: %v", err)
		}
	}
	h.publish()
	m := h.model()
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}) // Cart
	if m.currentView != ViewCart {
		t.Fatalf("currentView = %v, want Cart", m.currentView)
	}
	if m.snapshot.CartTotal != 30 || m.snapshot.CartOriginal != 150 {
		t.Fatalf("totals = %d/%d, want 30/150", m.snapshot.CartTotal, m.snapshot.CartOriginal)
	}

	m = press(t, m, runes("j"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if items := h.cart.Items(); items[1].Selected {
		t.Fatalf("space should unselect b")
	}

	m = press(t, m, runes("x"))
	if h.cart.IsInCart("b") || m.snapshot.CartTotal != 10 {
		t.Fatalf("x should remove b; total = %d", m.snapshot.CartTotal)
	}

	m = press(t, m, runes("X"))
	if h.cart.CartCount() != 0 || len(m.snapshot.Cart) != 0 {
		t.Fatalf("X should clear the cart")
	}
}

func TestNotificationKeys(t *testing.T) {
	h := newHarness(t, true)
	h.bus.NotifyInfo("one", "first")
	h.bus.NotifyInfo("two", "second")
	h.publish()
	m := h.model()
	for m.currentView != ViewNotifications {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}

	m = press(t, m, runes("m"))
	if h.inbox.Unread() != 1 || m.snapshot.Unread != 1 {
		t.Fatalf("m should mark the newest read; unread = %d", h.inbox.Unread())
	}
	m = press(t, m, runes("d"))
	if len(h.inbox.Records()) != 1 {
		t.Fatalf("d should delete the selected record")
	}
	m = press(t, m, runes("M"))
	if h.inbox.Unread() != 0 {
		t.Fatalf("M should mark all read")
	}
	m = press(t, m, runes("D"))
	if len(h.inbox.Records()) != 0 || len(m.snapshot.Notifications) != 0 {
		t.Fatalf("D should clear all")
	}
}

func TestLoginForm(t *testing.T) {
	h := newHarness(t, false)
	m := h.model()

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // email -> password
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.login.err == nil {
		t.Fatalf("empty submit should fail validation")
	}

	m.login.focus(0)
	m = typeText(m, runes("amy@example.com"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(m, runes("secret"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if !m.login.rememberMe {
		t.Fatalf("ctrl+r should toggle remember me")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.currentView != ViewCourses || m.status != "Signed in" {
		t.Fatalf("after sign in: view=%v status=%q err=%v", m.currentView, m.status, m.login.err)
	}
	if !m.snapshot.Session.IsAuthenticated() || h.session.Token() != "tok" {
		t.Fatalf("session not established")
	}
}

func TestLoginFormRejected(t *testing.T) {
	h := newHarness(t, false)
	h.remote.signInErr = api.ErrRejected
	m := h.model()
	m.login.inputs[0].SetValue("amy@example.com")
	m.login.inputs[1].SetValue("wrong")
	m.login.focus(1)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.login.err == nil || m.currentView != ViewAccount {
		t.Fatalf("rejected sign in should stay on the form")
	}
	if got := loginError(m.login.err); got != "Invalid email or password" {
		t.Fatalf("loginError = %q", got)
	}
}

func TestLoggedOutReturnsToAccount(t *testing.T) {
	h := newHarness(t, true)
	m := h.model()
	h.session.Logout(context.Background())
	h.publish()

	m = press(t, m, loggedOutMsg{})
	if m.currentView != ViewAccount || m.snapshot.Session.IsAuthenticated() {
		t.Fatalf("loggedOut: view=%v authenticated=%v", m.currentView, m.snapshot.Session.IsAuthenticated())
	}
}

func TestLogsViewReadsAndSearches(t *testing.T) {
	h := newHarness(t, true)
	lines := "2025/03/01 12:00:00 [session] restored\n" +
		"2025/03/01 12:00:01 [wishlist] toggle failed: network failure\n" +
		"2025/03/01 12:00:02 [sync] refresh ok\n"
	if err := afero.WriteFile(h.fs, "/logs/skillfinite.log", []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	m := h.model()
	for m.currentView != ViewLogs {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	if len(m.logState.rawLines) != 3 {
		t.Fatalf("rawLines = %d, want 3", len(m.logState.rawLines))
	}

	m = typeText(m, runes("/"))
	if !m.logState.searchActive {
		t.Fatalf("/ should start a search")
	}
	m = typeText(m, runes("wishlist"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.logState.searchMatches) != 1 || m.logState.searchMatches[0] != 1 {
		t.Fatalf("searchMatches = %v, want [1]", m.logState.searchMatches)
	}
	if m.logState.follow {
		t.Fatalf("jumping to a match should stop following")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.logState.searchRegex != nil {
		t.Fatalf("esc should clear the search")
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.logState.follow {
		t.Fatalf("space should resume following")
	}

	m = press(t, m, runes("F"))
	if m.logState.component != "session" || len(m.logState.visible()) != 1 {
		t.Fatalf("F should filter to session, got %q with %d lines", m.logState.component, len(m.logState.visible()))
	}
	m = press(t, m, runes("F"))
	m = press(t, m, runes("F"))
	if m.logState.component != "wishlist" {
		t.Fatalf("component = %q, want wishlist", m.logState.component)
	}
	m = press(t, m, runes("F"))
	if m.logState.component != "" || len(m.logState.visible()) != 3 {
		t.Fatalf("F should cycle back to all lines")
	}
}
