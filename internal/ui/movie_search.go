package ui

import (
	"context"
	"log/slog"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/movies"
	"github.com/five82/marquee/internal/route"
)

type movieDetailMsg struct {
	id    string
	movie api.Movie
	err   error
}

// startSearch focuses the search input. Until it is applied or cancelled the
// input receives every key.
func (m *Model) startSearch() tea.Cmd {
	m.movies.searching = true
	m.movies.search.CursorEnd()
	return tea.Batch(m.movies.search.Focus(), textinput.Blink)
}

// stopSearch blurs the input and shows the applied term again.
func (m *Model) stopSearch() {
	m.movies.searching = false
	m.movies.search.Blur()
	k, term := m.movies.browser.Search()
	m.movies.searchKey = k
	m.movies.search.SetValue(term)
}

// handleSearchKey processes keyboard input while the search input is focused.
func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.stopSearch()
		return nil

	case key.Matches(msg, m.keys.Tab):
		keys := movies.SearchKeys()
		i := slices.Index(keys, m.movies.searchKey)
		m.movies.searchKey = keys[(i+1)%len(keys)]
		return nil

	case key.Matches(msg, m.keys.Confirm):
		b := m.movies.browser
		if !b.SetSearch(m.movies.searchKey, m.movies.search.Value()) {
			return nil
		}
		searchKey, term := b.Search()
		slog.Info("movie search", "key", searchKey, "term", term)
		m.stopSearch()
		m.refreshMovieTable()
		return m.loadMovies()
	}

	var cmd tea.Cmd
	m.movies.search, cmd = m.movies.search.Update(msg)
	return cmd
}

// searchTitle returns the display title of a search column.
func searchTitle(k string) string {
	if col, ok := movies.LookupColumn(k); ok {
		return col.Title
	}
	return k
}

// renderSearchBar renders the focused search input for the status line.
func (m Model) renderSearchBar(bg BgStyle, st Styles) string {
	return bg.Render("Search", st.MutedText) + bg.Space() +
		bg.Render(searchTitle(m.movies.searchKey), st.AccentText) + bg.Space() +
		m.movies.search.View() + bg.Spaces(2) +
		bg.Render("tab field · enter apply · esc cancel", st.FaintText)
}

// loadMovieDetail fetches the record under the table cursor.
func (m *Model) loadMovieDetail() tea.Cmd {
	records := m.movies.browser.Records()
	idx := m.movies.table.Cursor()
	if m.client == nil || m.movies.detailFor != "" || idx < 0 || idx >= len(records) {
		return nil
	}
	id := records[idx].ID
	if id == "" {
		return nil
	}
	m.movies.detailFor = id
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		movie, err := client.GetMovie(ctx, id)
		return movieDetailMsg{id: id, movie: movie, err: err}
	}
}

func (m *Model) handleMovieDetail(msg movieDetailMsg) tea.Cmd {
	if msg.id != m.movies.detailFor {
		return nil
	}
	m.movies.detailFor = ""
	if m.route != route.Movies {
		return nil
	}
	if msg.err != nil {
		slog.Warn("load movie failed", "id", msg.id, "error", msg.err)
		if api.IsUnauthorized(msg.err) {
			return m.expireSession()
		}
		m.modal = newAlert("Movie unavailable", api.ErrorMessage(msg.err, "Could not load movie details"))
		return nil
	}
	m.modal = newMovieDetail(msg.movie)
	return nil
}
