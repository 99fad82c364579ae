package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/skillfinite/skillfinite/internal/api"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	parts := []string{styles.Logo.Render("skillfinite")}

	if snap.Session.IsAuthenticated() {
		parts = append(parts, styles.SuccessText.Render("● "+displayName(snap.Session.User)))
	} else {
		parts = append(parts, styles.MutedText.Render("○ signed out"))
	}

	if snap.IsOffline() {
		parts = append(parts, styles.DangerText.Render("OFFLINE "+classifyError(snap.LastError)))
	}

	count := func(label, short string, n int, style lipgloss.Style) string {
		if compact {
			label = short
		}
		return styles.MutedText.Render(label+":") + " " + style.Render(fmt.Sprintf("%d", n))
	}
	unreadStyle := styles.Text
	if snap.Unread > 0 {
		unreadStyle = styles.WarningText.Bold(true)
	}
	parts = append(parts,
		count("Courses", "C", len(snap.Enrollments), styles.Text),
		count("Wishlist", "W", len(m.wishlistItems()), styles.Text),
		count("Cart", "$", len(snap.Cart), styles.Text),
		count("Unread", "N", snap.Unread, unreadStyle),
	)

	if !snap.LastUpdated.IsZero() && !compact {
		parts = append(parts, styles.FaintText.Render("synced "+snap.LastUpdated.Format("15:04:05")))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

// renderCommandBar lists the views and the keys of the current one.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()

	tabs := make([]string, 0, len(viewOrder))
	for _, v := range viewOrder {
		if v == m.currentView {
			tabs = append(tabs, styles.Selected.Render(" "+v.String()+" "))
		} else {
			tabs = append(tabs, styles.MutedText.Render(" "+v.String()+" "))
		}
	}

	type cmd struct{ key, desc string }
	var commands []cmd
	switch m.currentView {
	case ViewCourses:
		commands = []cmd{{"j/k", "Navigate"}, {"w", "Wishlist"}, {"enter", "Progress"}}
	case ViewWishlist:
		commands = []cmd{{"j/k", "Navigate"}, {"w", "Remove"}, {"a", "Add to cart"}}
	case ViewCart:
		commands = []cmd{{"Space", "Select"}, {"x", "Remove"}, {"X", "Clear"}}
	case ViewNotifications:
		commands = []cmd{{"m", "Read"}, {"M", "All read"}, {"d", "Delete"}, {"D", "Clear"}}
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{{"Space", followLabel}, {"/", "Search"}, {"n/N", "Next/Prev"}, {"F", "Filter"}}
	case ViewAccount:
		if !m.snapshot.Session.IsAuthenticated() {
			commands = []cmd{{"tab", "Field"}, {"enter", "Sign in"}, {"esc", "Back"}}
		} else {
			commands = []cmd{{"L", "Log out"}}
		}
	}
	commands = append(commands, cmd{"r", "Refresh"}, cmd{"?", "More"})

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, styles.AccentText.Render(c.key)+":"+styles.MutedText.Render(c.desc))
	}
	segments = append(segments, styles.AccentText.Render("T")+":"+styles.FaintText.Render(m.theme.Name))

	return styles.Header.Width(m.width).Render(strings.Join(tabs, "") + "  " + strings.Join(segments, "  "))
}

// renderFooter shows the result of the last action.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.status == "" {
		return styles.Footer.Width(m.width).Render("")
	}
	style := styles.Footer
	if m.statusErr {
		style = style.Foreground(lipgloss.Color(m.theme.Danger))
	}
	return style.Width(m.width).Render(m.status)
}

// classifyError shortens a sync error for the header.
func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case api.IsTimeout(err):
		return "TIMEOUT"
	case errors.Is(err, api.ErrNetwork):
		return "UNREACHABLE"
	case api.IsUnauthorized(err):
		return "SIGNED OUT"
	default:
		return "ERROR"
	}
}
