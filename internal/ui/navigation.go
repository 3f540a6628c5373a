package ui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/route"
)

// navigate moves to the view the guard allows for requested. Landing on the
// view already shown is a no-op, so session signals can re-run it freely.
func (m *Model) navigate(requested route.Route) tea.Cmd {
	next := m.guard.Resolve(requested)
	if next == m.route {
		return nil
	}
	slog.Debug("navigate", "from", string(m.route), "requested", string(requested), "to", string(next))

	m.leave(m.route)
	m.route = next
	m.showHelp = false
	return m.enter(next)
}

// leave releases whatever the outgoing view holds.
func (m *Model) leave(r route.Route) {
	switch r {
	case route.Upload:
		m.unmountUpload()
	case route.Login:
		m.login.blurAll()
	case route.Movies:
		m.stopSearch()
		m.movies.detailFor = ""
	}
}

// enter prepares the incoming view and returns the commands that load it.
func (m *Model) enter(r route.Route) tea.Cmd {
	switch r {
	case route.Login:
		m.login.reset()
		return m.login.focusField(0)
	case route.Movies:
		return m.loadMovies()
	case route.Upload:
		return m.mountUpload()
	case route.Diagnostics:
		return m.refreshLog(true)
	}
	return nil
}

// logout drops the session; the guard sends the user back to login.
func (m *Model) logout() tea.Cmd {
	slog.Info("logout")
	m.login.message = ""
	if err := m.session.Clear(); err != nil {
		slog.Warn("clear session failed", "error", err)
	}
	return m.navigate(m.route)
}

// expireSession handles a 401 from any view: the stored token is no longer
// accepted, so it is dropped and the user must log in again.
func (m *Model) expireSession() tea.Cmd {
	slog.Warn("session rejected by server")
	if m.session != nil {
		if err := m.session.Clear(); err != nil {
			slog.Warn("clear session failed", "error", err)
		}
	}
	m.login.message = "Session expired, please log in again"
	return m.navigate(m.route)
}
