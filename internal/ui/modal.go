package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/movies"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// alertModal blocks all input until it is acknowledged.
type alertModal struct {
	title   string
	message string
}

func newAlert(title, message string) alertModal {
	return alertModal{title: title, message: message}
}

func (a alertModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil, false
	}
	if km.Type == tea.KeyCtrlC {
		return a, tea.Quit, true
	}
	if key.Matches(km, keys.Confirm, keys.Escape, keys.ToggleFollow) {
		return a, nil, true
	}
	return a, nil, false
}

func (a alertModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	modalWidth := min(60, max(width-4, 20))
	var b strings.Builder
	b.WriteString(styles.DangerText.Render(a.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Width(modalWidth - 6).Render(a.message))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter to dismiss"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// movieDetailModal shows every field of one catalogue record.
type movieDetailModal struct {
	movie api.Movie
}

func newMovieDetail(mv api.Movie) movieDetailModal {
	return movieDetailModal{movie: mv}
}

func (d movieDetailModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil, false
	}
	if km.Type == tea.KeyCtrlC {
		return d, tea.Quit, true
	}
	if key.Matches(km, keys.Confirm, keys.Escape) {
		return d, nil, true
	}
	return d, nil, false
}

func (d movieDetailModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	modalWidth := min(80, max(width-4, 30))
	inner := modalWidth - 6

	labelWidth := 0
	for _, c := range movies.Columns {
		labelWidth = max(labelWidth, lipgloss.Width(c.Title))
	}

	title := d.movie.Title.String()
	if title == "" {
		title = d.movie.ShowID.String()
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(truncate(title, inner)))
	b.WriteString("\n")
	for _, c := range movies.Columns {
		if c.Key == "title" {
			continue
		}
		value := strings.Join(strings.Fields(c.Value(d.movie)), " ")
		if value == "" {
			value = "-"
		}
		label := styles.MutedText.Width(labelWidth + 2).Render(c.Title)
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label,
			styles.Text.Width(max(inner-labelWidth-2, 10)).Render(value)))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter or esc to close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
