package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/session"
)

// loginForm holds the sign-in inputs.
type loginForm struct {
	inputs     [2]textinput.Model // email, password
	focusIdx   int
	rememberMe bool
	submitting bool
	err        error
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return loginForm{inputs: [2]textinput.Model{email, password}}
}

func (f *loginForm) focus(idx int) {
	f.focusIdx = (idx + len(f.inputs)) % len(f.inputs)
	for i := range f.inputs {
		if i == f.focusIdx {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f *loginForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.err = nil
	f.submitting = false
	f.focus(0)
}

func (f loginForm) credentials() (string, string) {
	return strings.TrimSpace(f.inputs[0].Value()), f.inputs[1].Value()
}

// handleLoginKey routes keys to the sign-in form.
func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewCourses
		return m, nil

	case key.Matches(msg, m.keys.Tab), msg.String() == "down":
		m.login.focus(m.login.focusIdx + 1)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab), msg.String() == "up":
		m.login.focus(m.login.focusIdx - 1)
		return m, nil

	case key.Matches(msg, m.keys.ToggleRememberMe):
		m.login.rememberMe = !m.login.rememberMe
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if m.login.focusIdx == 0 {
			m.login.focus(1)
			return m, nil
		}
		if m.login.submitting || m.session == nil {
			return m, nil
		}
		email, password := m.login.credentials()
		if email == "" || password == "" {
			m.login.err = errors.New("email and password are required")
			return m, nil
		}
		m.login.err = nil
		m.login.submitting = true
		return m, signInCmd(m.ctx, m.session, email, password, m.login.rememberMe)
	}

	var cmd tea.Cmd
	idx := m.login.focusIdx
	m.login.inputs[idx], cmd = m.login.inputs[idx].Update(msg)
	return m, cmd
}

func signInCmd(ctx context.Context, s *session.Store, email, password string, rememberMe bool) tea.Cmd {
	return func() tea.Msg {
		return loginMsg{err: s.SignIn(ctx, email, password, rememberMe)}
	}
}

// renderAccount shows the profile, or the sign-in form when signed out.
func (m Model) renderAccount() string {
	styles := m.theme.Styles()
	var b strings.Builder

	sess := m.snapshot.Session
	if sess.IsAuthenticated() {
		user := sess.User
		b.WriteString(styles.AccentText.Bold(true).Render(displayName(user)))
		b.WriteString("\n\n")
		writeField(&b, styles, "Email", user.Email)
		writeField(&b, styles, "Role", user.Role)
		writeField(&b, styles, "Bio", user.Bio)
		if user.Stats != nil {
			writeField(&b, styles, "Enrolled", fmt.Sprintf("%d", user.Stats.CoursesEnrolled))
			writeField(&b, styles, "Completed", fmt.Sprintf("%d", user.Stats.CoursesCompleted))
			writeField(&b, styles, "Certificates", fmt.Sprintf("%d", user.Stats.Certificates))
		}
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("L to log out"))
		return m.renderBox("Account", b.String(), true)
	}

	b.WriteString(styles.Text.Bold(true).Render("Sign in to Skillfinite"))
	b.WriteString("\n\n")
	for _, in := range m.login.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	check := "[ ]"
	if m.login.rememberMe {
		check = "[x]"
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(check + " Remember me (ctrl+r)"))
	b.WriteString("\n\n")

	switch {
	case m.login.submitting:
		b.WriteString(styles.WarningText.Render("Signing in..."))
	case m.login.err != nil:
		b.WriteString(styles.DangerText.Render(loginError(m.login.err)))
	default:
		b.WriteString(styles.FaintText.Render("enter to submit, esc to browse signed out"))
	}
	return m.renderBox("Sign in", b.String(), true)
}

func writeField(b *strings.Builder, styles Styles, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%-13s", label)))
	b.WriteString(styles.Text.Render(value))
	b.WriteString("\n")
}

// loginError turns a sign-in failure into a short message.
func loginError(err error) string {
	switch {
	case api.IsUnauthorized(err), errors.Is(err, api.ErrRejected):
		return "Invalid email or password"
	case api.IsTimeout(err):
		return "Sign in timed out, try again"
	case errors.Is(err, api.ErrNetwork):
		return "Cannot reach Skillfinite"
	default:
		return err.Error()
	}
}

func displayName(user *api.UserProfile) string {
	if user == nil {
		return ""
	}
	if name := strings.TrimSpace(user.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(user.Email); email != "" {
		return email
	}
	return user.ID
}
