package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/api"
)

// Theme is a named palette. Colours are hex strings so they can be passed
// straight to lipgloss.Color.
type Theme struct {
	Name string

	Background string // screen and status lines
	Surface    string // header and command bar

	Border      string
	BorderMuted string // table header rule
	BorderFocus string // focused box

	SelectionBg   string
	SelectionText string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string

	// Job badge colours keyed by api.JobStatus.
	StatusColors map[string]string
}

// Styles are the text styles derived from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header lipgloss.Style
	Logo   lipgloss.Style

	statusColors map[string]string
	badgeText    string
	fallback     string
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles builds the lipgloss styles for t.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),

		Header: fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:   fg(t.Warning).Bold(true),

		statusColors: t.StatusColors,
		badgeText:    t.Background,
		fallback:     t.Muted,
	}
}

// WithBackground returns a copy where every style paints bgColor explicitly,
// so segments joined on a coloured bar do not leave terminal-default gaps.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText,
		&out.Header, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

// StatusStyle returns a badge style for a job status.
func (s Styles) StatusStyle(status api.JobStatus) lipgloss.Style {
	color, ok := s.statusColors[string(status.Normalize())]
	if !ok {
		color = s.fallback
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.badgeText)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

var themeOrder = []Theme{
	{
		// https://github.com/EdenEast/nightfox.nvim
		Name:       "Nightfox",
		Background: "#131a24", Surface: "#192330",
		Border: "#39506d", BorderMuted: "#212e3f", BorderFocus: "#719cd6",
		SelectionBg: "#2b3b51", SelectionText: "#cdcecf",
		Text: "#cdcecf", Muted: "#738091", Faint: "#71839b",
		Accent: "#719cd6", Success: "#81b29a", Warning: "#dbc074", Danger: "#c94f6d",
		StatusColors: map[string]string{
			"pending": "#738091", "in_progress": "#719cd6",
			"processed": "#81b29a", "failed": "#c94f6d",
		},
	},
	{
		// https://github.com/morhetz/gruvbox (dark, medium contrast)
		Name:       "Gruvbox",
		Background: "#1d2021", Surface: "#282828",
		Border: "#504945", BorderMuted: "#3c3836", BorderFocus: "#fabd2f",
		SelectionBg: "#458588", SelectionText: "#fbf1c7",
		Text: "#ebdbb2", Muted: "#a89984", Faint: "#7c6f64",
		Accent: "#83a598", Success: "#b8bb26", Warning: "#fabd2f", Danger: "#fb4934",
		StatusColors: map[string]string{
			"pending": "#928374", "in_progress": "#83a598",
			"processed": "#b8bb26", "failed": "#fb4934",
		},
	},
	{
		// https://github.com/folke/tokyonight.nvim (night)
		Name:       "Tokyo Night",
		Background: "#16161e", Surface: "#1a1b26",
		Border: "#3b4261", BorderMuted: "#292e42", BorderFocus: "#7aa2f7",
		SelectionBg: "#283457", SelectionText: "#c0caf5",
		Text: "#c0caf5", Muted: "#9aa5ce", Faint: "#565f89",
		Accent: "#7aa2f7", Success: "#9ece6a", Warning: "#e0af68", Danger: "#f7768e",
		StatusColors: map[string]string{
			"pending": "#565f89", "in_progress": "#7dcfff",
			"processed": "#9ece6a", "failed": "#f7768e",
		},
	},
}

// GetTheme returns the named theme, or the first theme when unknown.
func GetTheme(name string) Theme {
	for _, t := range themeOrder {
		if t.Name == name {
			return t
		}
	}
	return themeOrder[0]
}

// NextTheme returns the theme name after current, wrapping around.
func NextTheme(current string) string {
	for i, t := range themeOrder {
		if t.Name == current {
			return themeOrder[(i+1)%len(themeOrder)].Name
		}
	}
	return themeOrder[0].Name
}

// ThemeNames returns the theme names in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themeOrder))
	for i, t := range themeOrder {
		names[i] = t.Name
	}
	return names
}
