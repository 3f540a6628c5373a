package ui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/route"
)

const (
	fieldUsername = iota
	fieldPassword
)

const loginFormWidth = 40

// loginState holds the login form.
type loginState struct {
	inputs  [2]textinput.Model
	focus   int
	message string
	pending bool
}

type loginResultMsg struct {
	resp api.LoginResponse
	err  error
}

func newLoginState() loginState {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Prompt = "› "

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.Prompt = "› "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return loginState{inputs: [2]textinput.Model{user, pass}}
}

// focusField focuses input i and blurs the other.
func (l *loginState) focusField(i int) tea.Cmd {
	l.focus = i
	var cmd tea.Cmd
	for j := range l.inputs {
		if j == i {
			cmd = l.inputs[j].Focus()
		} else {
			l.inputs[j].Blur()
		}
	}
	return cmd
}

func (l *loginState) blurAll() {
	for j := range l.inputs {
		l.inputs[j].Blur()
	}
}

// reset clears the password but keeps the username for the next attempt.
func (l *loginState) reset() {
	l.inputs[fieldPassword].SetValue("")
	l.pending = false
}

func (l loginState) blink() tea.Cmd {
	return textinput.Blink
}

// update forwards msg to the focused input.
func (l *loginState) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.inputs[l.focus], cmd = l.inputs[l.focus].Update(msg)
	return cmd
}

func (m *Model) resizeLogin() {
	w := min(loginFormWidth, max(m.width-12, 10))
	for j := range m.login.inputs {
		m.login.inputs[j].Width = w
	}
}

// handleLoginKey processes keyboard input for the login form.
func (m *Model) handleLoginKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		if m.login.focus == fieldUsername && m.login.inputs[fieldPassword].Value() == "" {
			return m.login.focusField(fieldPassword)
		}
		return m.submitLogin()
	case key.Matches(msg, m.keys.NextField):
		return m.login.focusField((m.login.focus + 1) % len(m.login.inputs))
	case key.Matches(msg, m.keys.PrevField):
		return m.login.focusField((m.login.focus + len(m.login.inputs) - 1) % len(m.login.inputs))
	}
	return m.login.update(msg)
}

// submitLogin validates the form locally and sends the credentials.
func (m *Model) submitLogin() tea.Cmd {
	if m.login.pending {
		return nil
	}
	username := strings.TrimSpace(m.login.inputs[fieldUsername].Value())
	password := m.login.inputs[fieldPassword].Value()
	if username == "" || password == "" {
		m.login.message = "Username and password are required"
		return nil
	}
	if m.client == nil {
		m.login.message = "No server configured"
		return nil
	}

	m.login.pending = true
	m.login.message = ""
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		resp, err := client.Login(ctx, username, password)
		return loginResultMsg{resp: resp, err: err}
	}
}

// handleLoginResult stores the token and moves on, or shows why not.
func (m *Model) handleLoginResult(msg loginResultMsg) tea.Cmd {
	m.login.pending = false
	if msg.err != nil {
		slog.Warn("login failed", "error", msg.err)
		m.login.message = api.ErrorMessage(msg.err, "Login failed")
		return nil
	}
	token := strings.TrimSpace(msg.resp.Token)
	if token == "" {
		m.login.message = msg.resp.Message
		if m.login.message == "" {
			m.login.message = "Login failed"
		}
		return nil
	}
	if m.session == nil {
		slog.Error("login succeeded without a session store")
		m.login.message = "No session store configured"
		return nil
	}
	if err := m.session.Set(token); err != nil {
		slog.Error("store session failed", "error", err)
		m.login.message = "Could not save session: " + err.Error()
		return nil
	}

	slog.Info("login succeeded", "username", msg.resp.Username)
	m.login.message = ""
	m.login.inputs[fieldPassword].SetValue("")
	return m.navigate(route.Movies)
}

// renderLogin renders the login form centred in the content box.
func (m Model) renderLogin() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Sign in to " + m.config.ServerHost()))
	b.WriteString("\n\n")
	b.WriteString(m.fieldLabel("Username", fieldUsername, styles))
	b.WriteString("\n")
	b.WriteString(m.login.inputs[fieldUsername].View())
	b.WriteString("\n\n")
	b.WriteString(m.fieldLabel("Password", fieldPassword, styles))
	b.WriteString("\n")
	b.WriteString(m.login.inputs[fieldPassword].View())
	b.WriteString("\n\n")

	switch {
	case m.login.pending:
		b.WriteString(styles.WarningText.Render("Logging in..."))
	case m.login.message != "":
		b.WriteString(styles.DangerText.Render(m.login.message))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter log in · tab switch field · ctrl+l diagnostics · ctrl+c quit"))

	height := m.contentHeight()
	inner := lipgloss.Place(max(m.width-4, 0), max(height-2, 0), lipgloss.Center, lipgloss.Center, b.String())
	box := m.renderBox(route.Login.Title(), inner, m.width, height, true)
	return box + "\n" + NewBgStyle(m.theme.Background).FillLine("", m.width)
}

func (m Model) fieldLabel(label string, field int, styles Styles) string {
	if m.login.focus == field {
		return styles.AccentText.Render(label)
	}
	return styles.MutedText.Render(label)
}
