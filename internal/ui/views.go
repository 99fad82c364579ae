package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/skillfinite/skillfinite/internal/cart"
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCourses:
		return m.renderCourses()
	case ViewWishlist:
		return m.renderWishlist()
	case ViewCart:
		return m.renderCart()
	case ViewNotifications:
		return m.renderNotifications()
	case ViewLogs:
		return m.renderLogs()
	case ViewAccount:
		return m.renderAccount()
	default:
		return ""
	}
}

// renderBox draws content inside a titled rounded border.
func (m Model) renderBox(title, content string, focused bool) string {
	border := m.theme.Border
	if focused {
		border = m.theme.BorderFocus
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	heading := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Accent)).
		Bold(true).
		Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(width).
		Padding(0, 1).
		Render(heading + "\n" + content)
}

// renderRows highlights the selected row and trims to the visible height.
func (m Model) renderRows(rows []string) string {
	styles := m.theme.Styles()
	cur := m.selected(len(rows))

	visible := m.height - 7
	if visible < 1 {
		visible = 1
	}
	start := 0
	if cur >= visible {
		start = cur - visible + 1
	}
	end := min(start+visible, len(rows))

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if i == cur {
			out = append(out, styles.Selected.Render(rows[i]))
		} else {
			out = append(out, rows[i])
		}
	}
	return strings.Join(out, "\n")
}

func (m Model) renderCourses() string {
	styles := m.theme.Styles()
	courses := m.snapshot.Enrollments
	if len(courses) == 0 {
		msg := "No enrolled courses"
		if !m.snapshot.Session.IsAuthenticated() {
			msg = "Sign in to see your courses"
		}
		return m.renderBox("Courses", styles.FaintText.Render(msg), true)
	}

	titleWidth := max(m.width-40, 20)
	rows := make([]string, 0, len(courses))
	for _, c := range courses {
		heart := "  "
		if m.inWishlist(c.ID) {
			heart = "♥ "
		}
		progress := "   -"
		if m.enrollment != nil {
			if sum, ok := m.enrollment.CachedProgress(c.ID); ok {
				progress = fmt.Sprintf("%3d%%", sum.Percent)
			}
		}
		rows = append(rows, fmt.Sprintf("%s%-*s %s  %s",
			heart, titleWidth, truncate(courseLabel(c.Title, c.ID), titleWidth), progress, truncate(c.Instructor, 20)))
	}

	content := m.renderRows(rows)
	if detail := m.renderCourseDetail(); detail != "" {
		content += "\n\n" + detail
	}
	return m.renderBox(fmt.Sprintf("Courses (%d)", len(courses)), content, true)
}

// renderCourseDetail shows loaded progress for the selected course.
func (m Model) renderCourseDetail() string {
	courses := m.snapshot.Enrollments
	if len(courses) == 0 || m.enrollment == nil {
		return ""
	}
	course := courses[m.selected(len(courses))]
	sum, ok := m.enrollment.CachedProgress(course.ID)
	if !ok {
		return m.theme.Styles().FaintText.Render("enter to load progress")
	}

	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(progressBar(sum.Percent, 30, styles))
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %d/%d lessons", sum.Completed, sum.Total)))
	b.WriteString("\n")
	switch {
	case sum.Done:
		b.WriteString(styles.SuccessText.Render("Course completed"))
	case sum.Next != nil:
		b.WriteString(styles.MutedText.Render("Next: "))
		b.WriteString(styles.Text.Render(fmt.Sprintf("%s (%s)", sum.Next.Title, sum.Next.Type)))
	}
	for _, mod := range sum.Modules {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("  %-30s %3d%%", truncate(mod.Title, 30), mod.Percent)))
	}
	return b.String()
}

func (m Model) renderWishlist() string {
	styles := m.theme.Styles()
	items := m.wishlistItems()
	if len(items) == 0 {
		msg := "Your wishlist is empty"
		if !m.snapshot.Session.IsAuthenticated() {
			msg = "Sign in to use the wishlist"
		}
		return m.renderBox("Wishlist", styles.FaintText.Render(msg), true)
	}

	rows := make([]string, 0, len(items))
	for _, id := range items {
		marker := "  "
		if m.inCart(id) {
			marker = "$ "
		}
		rows = append(rows, fmt.Sprintf("♥ %s %s", marker, m.courseRef(id).Title))
	}
	return m.renderBox(fmt.Sprintf("Wishlist (%d)", len(items)), m.renderRows(rows), true)
}

func (m Model) renderCart() string {
	styles := m.theme.Styles()
	items := m.snapshot.Cart
	if len(items) == 0 {
		return m.renderBox("Cart", styles.FaintText.Render("Your cart is empty"), true)
	}

	titleWidth := max(m.width-30, 20)
	rows := make([]string, 0, len(items))
	selectedTotal := 0
	for _, item := range items {
		check := "[ ]"
		if item.Selected {
			check = "[x]"
			selectedTotal += cart.ParsePrice(item.Course.Price) * item.Quantity
		}
		rows = append(rows, fmt.Sprintf("%s %-*s %10s",
			check, titleWidth, truncate(courseLabel(item.Course.Title, item.Course.ID), titleWidth), formatPrice(item.Course.Price)))
	}

	var b strings.Builder
	b.WriteString(m.renderRows(rows))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Strikethrough(true).Render(formatAmount(m.snapshot.CartOriginal)))
	b.WriteString("  ")
	b.WriteString(styles.Text.Bold(true).Render("Total " + formatAmount(m.snapshot.CartTotal)))
	b.WriteString("  ")
	b.WriteString(styles.MutedText.Render("Selected " + formatAmount(selectedTotal)))
	return m.renderBox(fmt.Sprintf("Cart (%d)", len(items)), b.String(), true)
}

func (m Model) renderNotifications() string {
	styles := m.theme.Styles()
	records := m.snapshot.Notifications
	if len(records) == 0 {
		return m.renderBox("Notifications", styles.FaintText.Render("No notifications"), true)
	}

	rows := make([]string, 0, len(records))
	for _, rec := range records {
		dot := " "
		if !rec.Read {
			dot = "●"
		}
		age := ""
		if ts := rec.ParsedTime(); !ts.IsZero() {
			age = humanizeDuration(time.Since(ts))
		}
		badge := styles.TypeStyle(rec.Type).Render(fmt.Sprintf("%-11s", rec.Type))
		rows = append(rows, fmt.Sprintf("%s %s %s  %s %s",
			dot, badge, truncate(rec.Title, 30), truncate(rec.Message, max(m.width-70, 20)), age))
	}
	title := fmt.Sprintf("Notifications (%d unread)", m.snapshot.Unread)
	return m.renderBox(title, m.renderRows(rows), true)
}

func (m Model) inCart(id string) bool {
	for _, item := range m.snapshot.Cart {
		if item.Course.ID == id {
			return true
		}
	}
	return false
}

// progressBar draws a fixed-width completion bar.
func progressBar(percent, width int, styles Styles) string {
	percent = max(0, min(percent, 100))
	filled := percent * width / 100
	return styles.SuccessText.Render(strings.Repeat("█", filled)) +
		styles.FaintText.Render(strings.Repeat("░", width-filled)) +
		styles.Text.Render(fmt.Sprintf(" %d%%", percent))
}

func courseLabel(title, id string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return id
}
