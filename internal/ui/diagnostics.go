package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/logtail"
	"github.com/five82/marquee/internal/route"
)

// diagState holds the diagnostics log view.
type diagState struct {
	viewport    viewport.Model
	lines       []string
	level       logtail.Level
	follow      bool
	lastRefresh time.Time
	err         error
}

type logLoadedMsg struct {
	lines []string
	err   error
}

// Level filter cycle: everything, then each severity and above.
var levelCycle = []logtail.Level{
	logtail.LevelUnknown,
	logtail.LevelInfo,
	logtail.LevelWarn,
	logtail.LevelError,
}

func newDiagState() diagState {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle()
	return diagState{viewport: vp, follow: true}
}

func levelLabel(l logtail.Level) string {
	if l <= logtail.LevelDebug {
		return "All"
	}
	return l.String() + "+"
}

// refreshLog re-reads the log tail. Unforced reads are throttled.
func (m *Model) refreshLog(force bool) tea.Cmd {
	path := m.config.LogPath
	if path == "" {
		return nil
	}
	if !force && time.Since(m.diag.lastRefresh) < LogRefreshInterval {
		return nil
	}
	m.diag.lastRefresh = time.Now()
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		return logLoadedMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogLoaded(msg logLoadedMsg) {
	m.diag.err = msg.err
	if msg.err == nil {
		m.diag.lines = msg.lines
	}
	m.refreshLogViewport()
}

// refreshLogViewport re-renders the filtered, level-coloured lines.
func (m *Model) refreshLogViewport() {
	styles := m.theme.Styles()
	lines := logtail.Filter(m.diag.lines, m.diag.level)

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(levelStyle(logtail.ParseLevel(line), styles).Render(line))
	}
	if len(lines) == 0 {
		b.WriteString(styles.FaintText.Render("No log entries."))
	}

	m.diag.viewport.SetContent(b.String())
	if m.diag.follow {
		m.diag.viewport.GotoBottom()
	}
}

// levelStyle returns the style for a log level.
func levelStyle(level logtail.Level, styles Styles) lipgloss.Style {
	switch level {
	case logtail.LevelInfo:
		return styles.Text
	case logtail.LevelWarn:
		return styles.WarningText
	case logtail.LevelError:
		return styles.DangerText
	case logtail.LevelDebug:
		return styles.FaintText
	default:
		return styles.MutedText
	}
}

func (m *Model) resizeDiagnostics() {
	// Box inner = box height - 2 (top and bottom borders)
	m.diag.viewport.Width = max(m.width-4, 10)
	m.diag.viewport.Height = max(m.contentHeight()-2, 1)
	if m.diag.follow {
		m.diag.viewport.GotoBottom()
	}
}

// handleDiagnosticsKey processes keyboard input for the diagnostics view.
func (m *Model) handleDiagnosticsKey(msg tea.KeyMsg) tea.Cmd {
	vp := &m.diag.viewport
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.diag.follow = !m.diag.follow
		if m.diag.follow {
			vp.GotoBottom()
			return m.refreshLog(true)
		}
		return nil

	case key.Matches(msg, m.keys.CycleLevel):
		for i, l := range levelCycle {
			if l == m.diag.level {
				m.diag.level = levelCycle[(i+1)%len(levelCycle)]
				break
			}
		}
		m.refreshLogViewport()
		return nil

	case key.Matches(msg, m.keys.Top):
		m.diag.follow = false
		vp.GotoTop()
		return nil

	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
		return nil

	case key.Matches(msg, m.keys.Up):
		m.diag.follow = false
		vp.ScrollUp(1)
		return nil

	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
		return nil

	case key.Matches(msg, m.keys.PageUp):
		m.diag.follow = false
		vp.PageUp()
		return nil

	case key.Matches(msg, m.keys.PageDown):
		vp.PageDown()
		return nil

	case key.Matches(msg, m.keys.HalfPageUp):
		m.diag.follow = false
		vp.HalfPageUp()
		return nil

	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfPageDown()
		return nil
	}
	return nil
}

// renderDiagnostics renders the log view.
func (m Model) renderDiagnostics() string {
	title := route.Diagnostics.Title()
	if path := m.config.LogPath; path != "" {
		title += " · " + truncateMiddle(path, max(m.width/2, 10))
	}
	box := m.renderBox(title, m.diag.viewport.View(), m.width, m.contentHeight(), true)
	return box + "\n" + m.renderDiagnosticsStatus()
}

// renderDiagnosticsStatus renders follow state, filter and scroll position.
func (m Model) renderDiagnosticsStatus() string {
	bg := NewBgStyle(m.theme.Background)
	st := m.theme.Styles().WithBackground(m.theme.Background)

	follow := bg.Render("PAUSED", st.WarningText)
	if m.diag.follow {
		follow = bg.Render("FOLLOW", st.SuccessText)
	}
	parts := []string{
		follow,
		bg.Render("Level", st.MutedText) + bg.Space() + bg.Render(levelLabel(m.diag.level), st.AccentText),
		bg.Render(fmt.Sprintf("%d lines", len(m.diag.lines)), st.MutedText),
		bg.Render(fmt.Sprintf("%3.0f%%", m.diag.viewport.ScrollPercent()*100), st.FaintText),
	}
	switch {
	case m.config.LogPath == "":
		parts = append(parts, bg.Render("No log file configured", st.WarningText))
	case m.diag.err != nil:
		parts = append(parts, bg.Render(truncate(m.diag.err.Error(), 60), st.DangerText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}
