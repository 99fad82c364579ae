package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
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

// View represents the current active view.
type View int

const (
	ViewCourses View = iota
	ViewWishlist
	ViewCart
	ViewNotifications
	ViewLogs
	ViewAccount
)

var viewOrder = []View{ViewCourses, ViewWishlist, ViewCart, ViewNotifications, ViewLogs, ViewAccount}

func (v View) String() string {
	switch v {
	case ViewCourses:
		return "Courses"
	case ViewWishlist:
		return "Wishlist"
	case ViewCart:
		return "Cart"
	case ViewNotifications:
		return "Notifications"
	case ViewLogs:
		return "Logs"
	case ViewAccount:
		return "Account"
	default:
		return "?"
	}
}

// Syncer is the background refresher the UI can poke.
type Syncer interface {
	Refresh()
	Publish()
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Session    *session.Store
	Wishlist   *wishlist.Store
	Cart       *cart.Store
	Enrollment *enrollment.Store
	Inbox      *notify.Inbox
	Store      *state.Store
	Cache      cache.Storage
	Syncer     Syncer
	LoggedOut  <-chan struct{}
	Files      afero.Fs
	LogPath    string
	ThemeName  string
	PollTick   time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	session    *session.Store
	wishlist   *wishlist.Store
	cart       *cart.Store
	enrollment *enrollment.Store
	inbox      *notify.Inbox
	store      *state.Store
	cache      cache.Storage
	syncer     Syncer
	loggedOut  <-chan struct{}
	files      afero.Fs
	logPath    string
	pollTick   time.Duration

	// UI state
	keys        keyMap
	help        help.Model
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	cursor      map[View]int

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	status      string
	statusErr   bool

	logViewport viewport.Model
	logState    logState

	login loginForm
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	files := opts.Files
	if files == nil {
		files = afero.NewOsFs()
	}

	m := Model{
		ctx:        ctx,
		session:    opts.Session,
		wishlist:   opts.Wishlist,
		cart:       opts.Cart,
		enrollment: opts.Enrollment,
		inbox:      opts.Inbox,
		store:      opts.Store,
		cache:      opts.Cache,
		syncer:     opts.Syncer,
		loggedOut:  opts.LoggedOut,
		files:      files,
		logPath:    opts.LogPath,
		pollTick:   pollTick,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		theme:      GetTheme(opts.ThemeName),
		cursor:     make(map[View]int),
		logState:   newLogState(),
		login:      newLoginForm(),
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	if !m.snapshot.Session.IsAuthenticated() {
		m.currentView = ViewAccount
		m.login.focus(0)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		waitForLogout(m.loggedOut),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		return m, nil

	case actionMsg:
		m.setStatus(msg.done, msg.err)
		return m, m.publish()

	case progressMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
		} else {
			m.setStatus("Progress loaded", nil)
		}
		return m, nil

	case loginMsg:
		m.login.submitting = false
		if msg.err != nil {
			m.login.err = msg.err
			return m, nil
		}
		m.login.reset()
		m.currentView = ViewCourses
		m.setStatus("Signed in", nil)
		return m, m.publish()

	case loggedOutMsg:
		m.currentView = ViewAccount
		m.login.focus(0)
		m.setStatus("Signed out", nil)
		return m, tea.Batch(m.publish(), waitForLogout(m.loggedOut))

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	// Text inputs get the keyboard first
	if m.currentView == ViewAccount && !m.snapshot.Session.IsAuthenticated() {
		return m.handleLoginKey(msg)
	}
	if m.currentView == ViewLogs && m.logState.searchActive {
		return m.handleLogSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.cache != nil {
			m.cache.Set(cache.KeyTheme, m.theme.Name)
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(1)

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(-1)

	case key.Matches(msg, m.keys.Refresh):
		if m.syncer != nil {
			m.syncer.Refresh()
		}
		m.setStatus("Refreshing...", nil)
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		if m.session == nil || !m.snapshot.Session.IsAuthenticated() {
			return m, nil
		}
		return m, logoutCmd(m.ctx, m.session)
	}

	switch m.currentView {
	case ViewCourses:
		return m.handleCoursesKey(msg)
	case ViewWishlist:
		return m.handleWishlistKey(msg)
	case ViewCart:
		return m.handleCartKey(msg)
	case ViewNotifications:
		return m.handleNotificationsKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

// switchView cycles through views by delta.
func (m Model) switchView(delta int) (tea.Model, tea.Cmd) {
	idx := 0
	for i, v := range viewOrder {
		if v == m.currentView {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(viewOrder)) % len(viewOrder)
	m.currentView = viewOrder[idx]

	switch m.currentView {
	case ViewLogs:
		return m, m.refreshLogs() // Fetch immediately when entering logs
	case ViewAccount:
		if !m.snapshot.Session.IsAuthenticated() {
			m.login.focus(0)
		}
	}
	return m, nil
}

func (m Model) handleCoursesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	courses := m.snapshot.Enrollments
	if m.moveCursor(msg, len(courses)) {
		return m, nil
	}
	if len(courses) == 0 {
		return m, nil
	}
	course := courses[m.selected(len(courses))]

	switch {
	case key.Matches(msg, m.keys.ToggleWishlist):
		return m, m.toggleWishlist(course)
	case key.Matches(msg, m.keys.Progress):
		if m.enrollment == nil {
			return m, nil
		}
		m.setStatus("Loading progress...", nil)
		return m, loadProgressCmd(m.ctx, m.enrollment, course.ID)
	}
	return m, nil
}

func (m Model) handleWishlistKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.wishlistItems()
	if m.moveCursor(msg, len(items)) {
		return m, nil
	}
	if len(items) == 0 {
		return m, nil
	}
	id := items[m.selected(len(items))]

	switch {
	case key.Matches(msg, m.keys.ToggleWishlist):
		return m, m.toggleWishlist(m.courseRef(id))
	case key.Matches(msg, m.keys.AddToCart):
		if m.cart == nil {
			return m, nil
		}
		err := m.cart.AddToCart(m.courseRef(id))
		if errors.Is(err, cart.ErrAlreadyInCart) {
			m.setStatus("Already in cart", nil)
			return m, nil
		}
		m.setStatus("Added to cart", err)
		return m, m.publish()
	}
	return m, nil
}

func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.snapshot.Cart
	if m.moveCursor(msg, len(items)) {
		return m, nil
	}
	if m.cart == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.ClearCart):
		m.cart.ClearCart()
		m.setStatus("Cart cleared", nil)
		return m, m.publish()
	}
	if len(items) == 0 {
		return m, nil
	}
	id := items[m.selected(len(items))].Course.ID

	switch {
	case key.Matches(msg, m.keys.RemoveFromCart):
		if m.cart.RemoveFromCart(id) {
			m.setStatus("Removed from cart", nil)
		}
		return m, m.publish()
	case key.Matches(msg, m.keys.ToggleSelected):
		m.cart.ToggleSelected(id)
		return m, m.publish()
	}
	return m, nil
}

func (m Model) handleNotificationsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	records := m.snapshot.Notifications
	if m.moveCursor(msg, len(records)) {
		return m, nil
	}
	if m.inbox == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.MarkAllRead):
		m.inbox.MarkAllRead()
		return m, m.publish()
	case key.Matches(msg, m.keys.ClearAll):
		m.inbox.ClearAll()
		return m, m.publish()
	}
	if len(records) == 0 {
		return m, nil
	}
	id := records[m.selected(len(records))].ID

	switch {
	case key.Matches(msg, m.keys.MarkRead):
		m.inbox.MarkRead(id)
		return m, m.publish()
	case key.Matches(msg, m.keys.Delete):
		m.inbox.Delete(id)
		return m, m.publish()
	}
	return m, nil
}

// moveCursor applies navigation keys to the current view's cursor.
func (m *Model) moveCursor(msg tea.KeyMsg, count int) bool {
	if count == 0 {
		return false
	}
	cur := m.selected(count)
	switch {
	case key.Matches(msg, m.keys.Down):
		if cur < count-1 {
			cur++
		}
	case key.Matches(msg, m.keys.Up):
		if cur > 0 {
			cur--
		}
	case key.Matches(msg, m.keys.Top):
		cur = 0
	case key.Matches(msg, m.keys.Bottom):
		cur = count - 1
	default:
		return false
	}
	m.cursor[m.currentView] = cur
	return true
}

// selected returns the cursor of the current view clamped to count.
func (m Model) selected(count int) int {
	cur := m.cursor[m.currentView]
	if cur >= count {
		cur = count - 1
	}
	if cur < 0 {
		cur = 0
	}
	return cur
}

func (m Model) toggleWishlist(course api.CourseRef) tea.Cmd {
	if m.wishlist == nil {
		return nil
	}
	wl, ctx := m.wishlist, m.ctx
	return func() tea.Msg {
		res := wl.ToggleCourse(ctx, course)
		if res.Added {
			return actionMsg{done: "Added to wishlist", err: res.Err}
		}
		return actionMsg{done: "Removed from wishlist", err: res.Err}
	}
}

// wishlistItems reads the live wishlist so optimistic toggles show at once.
func (m Model) wishlistItems() []string {
	if m.wishlist != nil {
		return m.wishlist.Items()
	}
	return m.snapshot.Wishlist
}

func (m Model) inWishlist(id string) bool {
	if m.wishlist != nil {
		return m.wishlist.IsInWishlist(id)
	}
	for _, w := range m.snapshot.Wishlist {
		if w == id {
			return true
		}
	}
	return false
}

// courseRef gathers what is known about a course from the wishlist, the
// enrollments and the cart. The title falls back to the id.
func (m Model) courseRef(id string) api.CourseRef {
	ref := api.CourseRef{ID: id}
	if m.wishlist != nil {
		if c, ok := m.wishlist.Course(id); ok {
			fillCourse(&ref, c)
		}
	}
	for _, c := range m.snapshot.Enrollments {
		if c.ID == id {
			fillCourse(&ref, c)
		}
	}
	for _, item := range m.snapshot.Cart {
		if item.Course.ID == id {
			fillCourse(&ref, item.Course)
		}
	}
	if strings.TrimSpace(ref.Title) == "" {
		ref.Title = id
	}
	return ref
}

// fillCourse copies the fields of src that dst lacks.
func fillCourse(dst *api.CourseRef, src api.CourseRef) {
	if strings.TrimSpace(dst.Title) == "" {
		dst.Title = src.Title
	}
	if strings.TrimSpace(dst.Instructor) == "" {
		dst.Instructor = src.Instructor
	}
	if strings.TrimSpace(dst.Price) == "" {
		dst.Price = src.Price
	}
	if strings.TrimSpace(dst.Thumbnail) == "" {
		dst.Thumbnail = src.Thumbnail
	}
}

func (m *Model) setStatus(done string, err error) {
	if err != nil {
		m.status = err.Error()
		m.statusErr = true
		return
	}
	m.status = done
	m.statusErr = false
}

// publish pushes local edits to the store and re-reads it.
func (m Model) publish() tea.Cmd {
	if m.syncer != nil {
		m.syncer.Publish()
	}
	if m.store == nil {
		return nil
	}
	return fetchSnapshotCmd(m.store)
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	// Refresh logs if in log view and following
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type actionMsg struct {
	done string
	err  error
}

type progressMsg struct {
	courseID string
	err      error
}

type loginMsg struct{ err error }

type loggedOutMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func waitForLogout(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return loggedOutMsg{}
	}
}

func logoutCmd(ctx context.Context, s *session.Store) tea.Cmd {
	return func() tea.Msg {
		s.Logout(ctx)
		return nil
	}
}

func loadProgressCmd(ctx context.Context, store *enrollment.Store, courseID string) tea.Cmd {
	return func() tea.Msg {
		_, err := store.LoadProgress(ctx, courseID)
		return progressMsg{courseID: courseID, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
