package ui

import (
	"strings"

	"github.com/five82/marquee/internal/route"
)

const appName = "marquee"

// navRoutes lists the tabs shown in the header for the current session.
func (m Model) navRoutes() []route.Route {
	if m.session != nil && m.session.LoggedIn() {
		return []route.Route{route.Movies, route.Upload, route.Diagnostics}
	}
	return []route.Route{route.Login, route.Diagnostics}
}

// renderHeader renders the nav bar: logo, view tabs, server and session state.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render(appName, styles.Logo)}

	tabs := make([]string, 0, 3)
	for _, r := range m.navRoutes() {
		label := r.Title()
		if r == m.route {
			tabs = append(tabs, bg.Render("["+label+"]", styles.AccentText.Bold(true)))
		} else {
			tabs = append(tabs, bg.Render(label, styles.MutedText))
		}
	}
	parts = append(parts, strings.Join(tabs, bg.Spaces(1)))

	if !compact {
		parts = append(parts,
			bg.Render("Server:", styles.MutedText)+bg.Space()+
				bg.Render(truncateMiddle(m.config.ServerHost(), 40), styles.Text))
	}

	if m.session != nil && m.session.LoggedIn() {
		parts = append(parts, bg.Render("● Logged in", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("○ Logged out", styles.MutedText))
	}

	if m.route == route.Upload && m.upload.snapshot.IsOffline() {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText.Bold(true)))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.route {
	case route.Login:
		commands = []cmd{
			{"Enter", "Log in"},
			{"Tab", "Field"},
			{"^L", "Log"},
			{"^C", "Quit"},
		}
	case route.Upload:
		commands = []cmd{
			{"Enter", "Select"},
			{"u", "Upload"},
			{"r", "Refresh"},
			{"R", "Reload"},
			{"Tab", "Focus"},
			{"m", "Movies"},
			{"l", "Log"},
			{"X", "Logout"},
			{"?", "More"},
		}
	case route.Diagnostics:
		followLabel := "Pause"
		if !m.diag.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"f", levelLabel(m.diag.level)},
			{"j/k", "Scroll"},
			{"Esc", "Back"},
			{"?", "More"},
		}
	default: // Movies
		commands = []cmd{
			{"←/→", "Page"},
			{"s", "Sort"},
			{"S", "Direction"},
			{"r", "Reload"},
			{"/", "Search"},
			{"Enter", "Details"},
			{"c", "Upload"},
			{"l", "Log"},
			{"X", "Logout"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}
