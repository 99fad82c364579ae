package ui

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skillfinite/skillfinite/internal/logtail"
)

// logState holds all log-related state.
type logState struct {
	rawLines  []string
	follow    bool
	err       error
	component string // empty shows every component

	// Search
	searchActive   bool
	searchQuery    string
	searchRegex    *regexp.Regexp
	searchInput    textinput.Model
	searchMatches  []int // Line indices that match
	searchMatchIdx int
}

type logLinesMsg struct {
	lines []string
	err   error
}

func newLogState() logState {
	ti := textinput.New()
	ti.Placeholder = "Search logs..."
	ti.CharLimit = 100
	return logState{follow: true, searchInput: ti}
}

// refreshLogs reads the tail of the client log.
func (m Model) refreshLogs() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	fs, path := m.files, m.logPath
	return func() tea.Msg {
		lines, err := logtail.Read(fs, path, LogBufferLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.rawLines = msg.lines
		m.findSearchMatches()
	}
	m.updateLogViewport()
}

// updateLogViewport sizes the viewport and re-renders its content.
func (m *Model) updateLogViewport() {
	width, height := m.width-4, m.height-6
	if width < 10 {
		width = 10
	}
	if height < 3 {
		height = 3
	}
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())

	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent colors each line by its parts.
func (m *Model) renderLogContent() string {
	styles := m.theme.Styles()
	if m.logState.err != nil {
		return styles.DangerText.Render(fmt.Sprintf("Failed to read %s: %v", m.logPath, m.logState.err))
	}
	lines := m.logState.visible()
	if len(lines) == 0 {
		if m.logState.component != "" {
			return styles.FaintText.Render("No lines from [" + m.logState.component + "]")
		}
		return styles.FaintText.Render("No log output yet")
	}

	current := -1
	if len(m.logState.searchMatches) > 0 {
		current = m.logState.searchMatches[m.logState.searchMatchIdx]
	}
	highlight := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.SelectionBg)).
		Foreground(lipgloss.Color(m.theme.SelectionText))

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if i == current {
			out = append(out, highlight.Render(line))
			continue
		}
		out = append(out, m.colorizeLine(line, styles))
	}
	return strings.Join(out, "\n")
}

func (m *Model) colorizeLine(line string, styles Styles) string {
	entry := logtail.Parse(line)
	if entry.Time.IsZero() {
		return styles.Text.Render(line)
	}

	var b strings.Builder
	b.WriteString(styles.FaintText.Render(entry.Time.Format("15:04:05")))
	b.WriteString(" ")
	if entry.Component != "" {
		b.WriteString(styles.AccentText.Render(fmt.Sprintf("%-10s", entry.Component)))
		b.WriteString(" ")
	}
	msgStyle := styles.Text
	lower := strings.ToLower(entry.Message)
	switch {
	case strings.Contains(lower, "failed"), strings.Contains(lower, "error"):
		msgStyle = styles.DangerText
	case strings.Contains(lower, "warn"), strings.Contains(lower, "rejected"):
		msgStyle = styles.WarningText
	}
	if m.logState.searchRegex != nil && m.logState.searchRegex.MatchString(line) {
		msgStyle = msgStyle.Underline(true)
	}
	b.WriteString(msgStyle.Render(entry.Message))
	return b.String()
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := "Log " + truncateMiddle(m.logPath, 60)
	box := m.renderBox(title, m.logViewport.View(), true)

	var status string
	switch {
	case m.logState.searchActive:
		status = m.logState.searchInput.View()
	case m.logState.searchQuery != "":
		status = styles.MutedText.Render(fmt.Sprintf("/%s  %d matches", m.logState.searchQuery, len(m.logState.searchMatches)))
	default:
		follow := "paused"
		if m.logState.follow {
			follow = "following"
		}
		status = styles.MutedText.Render(fmt.Sprintf("%d lines, %s", len(m.logState.visible()), follow))
	}
	if m.logState.component != "" {
		status += "  " + styles.AccentText.Render("["+m.logState.component+"]")
	}
	return box + "\n" + status
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.logState.searchActive = true
		m.logState.searchInput.SetValue("")
		return m, m.logState.searchInput.Focus()

	case key.Matches(msg, m.keys.Filter):
		m.logState.component = nextComponent(m.logState.rawLines, m.logState.component)
		m.findSearchMatches()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.NextMatch):
		m.stepSearchMatch(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.stepSearchMatch(-1)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.logState.searchRegex != nil {
			m.clearLogSearch()
			m.updateLogViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logState.follow = false
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logState.follow = true
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.logViewport.LineDown(1)
		m.logState.follow = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.logViewport.LineUp(1)
		m.logState.follow = false
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.HalfViewDown()
		m.logState.follow = false
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.HalfViewUp()
		m.logState.follow = false
		return m, nil
	}
	return m, nil
}

// handleLogSearchInput handles keyboard input during log search.
func (m Model) handleLogSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := m.logState.searchInput.Value()
		m.logState.searchActive = false
		m.logState.searchInput.Blur()
		if query == "" {
			return m, nil
		}

		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			// Fall back to a literal match
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
		}
		m.logState.searchRegex = re
		m.logState.searchQuery = query
		m.findSearchMatches()
		if len(m.logState.searchMatches) > 0 {
			m.logState.searchMatchIdx = 0
			m.scrollToSearchMatch()
		}
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.logState.searchActive = false
		m.logState.searchInput.Blur()
		m.logState.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.logState.searchInput, cmd = m.logState.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) clearLogSearch() {
	m.logState.searchRegex = nil
	m.logState.searchQuery = ""
	m.logState.searchMatches = nil
	m.logState.searchMatchIdx = 0
}

func (m *Model) findSearchMatches() {
	m.logState.searchMatches = nil
	if m.logState.searchRegex == nil {
		return
	}
	for i, line := range m.logState.visible() {
		if m.logState.searchRegex.MatchString(line) {
			m.logState.searchMatches = append(m.logState.searchMatches, i)
		}
	}
	if m.logState.searchMatchIdx >= len(m.logState.searchMatches) {
		m.logState.searchMatchIdx = 0
	}
}

func (m *Model) stepSearchMatch(delta int) {
	n := len(m.logState.searchMatches)
	if n == 0 {
		return
	}
	m.logState.searchMatchIdx = (m.logState.searchMatchIdx + delta + n) % n
	m.scrollToSearchMatch()
	m.updateLogViewport()
}

// scrollToSearchMatch centers the current match when possible.
func (m *Model) scrollToSearchMatch() {
	if len(m.logState.searchMatches) == 0 {
		return
	}
	target := m.logState.searchMatches[m.logState.searchMatchIdx]
	m.logState.follow = false
	m.logViewport.SetYOffset(max(target-m.logViewport.Height/2, 0))
}

// visible returns the lines that pass the component filter.
func (s logState) visible() []string {
	return logtail.Filter(s.rawLines, s.component)
}

// nextComponent cycles through the components seen in lines, in sorted
// order, ending with the unfiltered view.
func nextComponent(lines []string, current string) string {
	seen := make(map[string]struct{})
	for _, line := range lines {
		if c := logtail.Parse(line).Component; c != "" {
			seen[c] = struct{}{}
		}
	}
	components := make([]string, 0, len(seen))
	for c := range seen {
		components = append(components, c)
	}
	sort.Strings(components)

	if current == "" {
		if len(components) == 0 {
			return ""
		}
		return components[0]
	}
	for i, c := range components {
		if c == current && i+1 < len(components) {
			return components[i+1]
		}
	}
	return ""
}
