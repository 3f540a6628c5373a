package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/movies"
	"github.com/five82/marquee/internal/route"
)

// cellPadding is the horizontal padding bubbles/table puts around each cell.
const cellPadding = 2

// movieState holds the movie list view.
type movieState struct {
	browser *movies.Browser
	table   table.Model
	pager   paginator.Model
	loading bool
	err     string

	search    textinput.Model
	searching bool
	searchKey string
	detailFor string // id of the movie whose details are loading
}

type moviesLoadedMsg struct {
	seq  uint64
	page api.MoviePage
	err  error
}

func newMovieState(browser *movies.Browser) movieState {
	pager := paginator.New()
	pager.Type = paginator.Arabic

	t := table.New(
		table.WithColumns(movieColumns(browser, 0)),
		table.WithFocused(true),
	)
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search"
	search.CharLimit = 80
	search.Width = 30

	searchKey, term := browser.Search()
	search.SetValue(term)
	return movieState{browser: browser, table: t, pager: pager, search: search, searchKey: searchKey}
}

// movieColumns builds the table header, marking the sorted column. Widths
// shrink proportionally when the terminal is narrower than the natural
// layout; width 0 keeps the natural widths.
func movieColumns(b *movies.Browser, width int) []table.Column {
	natural := 0
	for _, c := range movies.Columns {
		natural += c.Width + cellPadding
	}
	scale := 1.0
	if width > 0 && natural > width {
		scale = float64(width) / float64(natural)
	}

	cols := make([]table.Column, 0, len(movies.Columns))
	for _, c := range movies.Columns {
		title := c.Title
		if c.Key == b.SortKey() {
			title += " " + b.SortDirection().Arrow()
		}
		w := max(int(float64(c.Width)*scale), 4)
		cols = append(cols, table.Column{Title: title, Width: w})
	}
	return cols
}

// movieRow flattens whitespace so multi-line fields stay on one row.
func movieRow(mv api.Movie) table.Row {
	row := movies.Row(mv)
	for i, v := range row {
		row[i] = strings.Join(strings.Fields(v), " ")
	}
	return row
}

// applyTableStyles colours both tables with the current theme.
func (m *Model) applyTableStyles() {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderMuted)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(m.theme.Accent))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(m.theme.SelectionText)).
		Background(lipgloss.Color(m.theme.SelectionBg)).
		Bold(false)
	m.movies.table.SetStyles(s)
	m.upload.jobs.SetStyles(s)
}

// loadMovies requests the browser's current page.
func (m *Model) loadMovies() tea.Cmd {
	if m.client == nil {
		return nil
	}
	seq, query := m.movies.browser.Query()
	m.movies.loading = true
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		page, err := client.ListMovies(ctx, query)
		return moviesLoadedMsg{seq: seq, page: page, err: err}
	}
}

// handleMoviesLoaded applies a page unless a newer request superseded it.
func (m *Model) handleMoviesLoaded(msg moviesLoadedMsg) tea.Cmd {
	b := m.movies.browser
	if !b.Current(msg.seq) {
		return nil
	}
	m.movies.loading = false

	if msg.err != nil {
		slog.Warn("load movies failed", "page", b.Page(), "sort_key", b.SortKey(), "error", msg.err)
		if api.IsUnauthorized(msg.err) {
			return m.expireSession()
		}
		m.movies.err = api.ErrorMessage(msg.err, "Could not load movies")
		return nil
	}

	m.movies.err = ""
	b.Apply(msg.seq, msg.page)
	m.refreshMovieTable()
	m.movies.table.GotoTop()
	return nil
}

// refreshMovieTable rebuilds columns, rows and the paginator from the browser.
func (m *Model) refreshMovieTable() {
	b := m.movies.browser
	records := b.Records()
	rows := make([]table.Row, 0, len(records))
	for _, mv := range records {
		rows = append(rows, movieRow(mv))
	}

	width := 0
	if m.ready {
		width = max(m.width-4, 10)
	}
	m.movies.table.SetColumns(movieColumns(b, width))
	m.movies.table.SetRows(rows)

	pages := b.TotalPages()
	m.movies.pager.TotalPages = pages
	m.movies.pager.Page = min(b.Page(), pages) - 1
}

func (m *Model) resizeMovies() {
	m.movies.table.SetWidth(max(m.width-4, 10))
	// Box inner = box height - 2 (top and bottom borders)
	m.movies.table.SetHeight(max(m.contentHeight()-2, 3))
	m.refreshMovieTable()
}

// handleMoviesKey processes keyboard input for the movie list.
func (m *Model) handleMoviesKey(msg tea.KeyMsg) tea.Cmd {
	b := m.movies.browser
	switch {
	case key.Matches(msg, m.keys.NextPage):
		if b.NextPage() {
			return m.loadMovies()
		}
		return nil

	case key.Matches(msg, m.keys.PrevPage):
		if b.PrevPage() {
			return m.loadMovies()
		}
		return nil

	case key.Matches(msg, m.keys.CycleSort):
		b.CycleSort()
		return m.sortChanged()

	case key.Matches(msg, m.keys.ToggleSort):
		b.ToggleSort(b.SortKey())
		return m.sortChanged()

	case key.Matches(msg, m.keys.Reload):
		return m.loadMovies()

	case key.Matches(msg, m.keys.Search):
		return m.startSearch()

	case key.Matches(msg, m.keys.Details):
		return m.loadMovieDetail()
	}

	var cmd tea.Cmd
	m.movies.table, cmd = m.movies.table.Update(msg)
	return cmd
}

// sortChanged persists the sort and reloads the current page.
func (m *Model) sortChanged() tea.Cmd {
	b := m.movies.browser
	m.prefs.SortKey = b.SortKey()
	m.prefs.SortDescending = b.SortDirection() == movies.Descending
	m.savePrefs()
	m.refreshMovieTable()
	return m.loadMovies()
}

// renderMovies renders the movie list view.
func (m Model) renderMovies() string {
	styles := m.theme.Styles()
	b := m.movies.browser

	var body strings.Builder
	switch {
	case !b.Loaded() && m.movies.loading:
		body.WriteString(styles.MutedText.Render("Loading movies..."))
	case b.Loaded() && len(b.Records()) == 0:
		body.WriteString(styles.MutedText.Render("No movies found."))
	default:
		body.WriteString(m.movies.table.View())
	}

	title := route.Movies.Title()
	if total, ok := b.Total(); ok {
		title = fmt.Sprintf("%s (%d)", title, total)
	}

	box := m.renderBox(title, body.String(), m.width, m.contentHeight(), true)
	return box + "\n" + m.renderMovieStatus(styles)
}

// renderMovieStatus renders the paging and sort line under the table.
func (m Model) renderMovieStatus(styles Styles) string {
	b := m.movies.browser
	bg := NewBgStyle(m.theme.Background)
	st := styles.WithBackground(m.theme.Background)

	sortTitle := b.SortKey()
	if col, ok := movies.LookupColumn(b.SortKey()); ok {
		sortTitle = col.Title
	}

	parts := []string{
		bg.Render("Page", st.MutedText) + bg.Space() + bg.Render(m.movies.pager.View(), st.Text),
		bg.Render("Sort", st.MutedText) + bg.Space() + bg.Render(sortTitle+" "+b.SortDirection().Arrow(), st.AccentText),
	}
	if b.HasPrev() || b.HasNext() {
		nav := ternary(b.HasPrev(), "←", " ") + " " + ternary(b.HasNext(), "→", " ")
		parts = append(parts, bg.Render(nav, st.FaintText))
	}
	if m.movies.searching {
		parts = []string{m.renderSearchBar(bg, st)}
	} else if _, term := b.Search(); term != "" {
		parts = append(parts, bg.Render("Search", st.MutedText)+bg.Space()+
			bg.Render(searchTitle(m.movies.searchKey)+": "+truncate(term, 30), st.AccentText))
	}
	if m.movies.loading || m.movies.detailFor != "" {
		parts = append(parts, bg.Render("Loading...", st.WarningText))
	}
	if m.movies.err != "" {
		parts = append(parts, bg.Render(truncate(m.movies.err, 60), st.DangerText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

// ternary returns a if cond is true, otherwise b.
func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
