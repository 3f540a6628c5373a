package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/config"
	"github.com/five82/marquee/internal/movies"
	"github.com/five82/marquee/internal/prefs"
	"github.com/five82/marquee/internal/route"
	"github.com/five82/marquee/internal/session"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    *api.Client
	Session   *session.Store
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    *api.Client
	session   *session.Store
	sessionCh <-chan struct{}
	guard     route.Guard
	config    config.Config
	prefs     prefs.Prefs
	prefsPath string

	// UI state
	keys    keyMap
	help    help.Model
	theme   Theme
	spinner spinner.Model
	route   route.Route
	width   int
	height  int
	ready   bool

	// Overlays
	showHelp bool
	modal    Modal

	// Views
	login  loginState
	movies movieState
	upload uploadState
	diag   diagState
}

// New creates a new Bubble Tea model. The initial view is whatever the
// route guard allows for the current session.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	browser := movies.NewBrowser(opts.Config.PageSize)
	if opts.Prefs.SortKey != "" {
		dir := movies.Ascending
		if opts.Prefs.SortDescending {
			dir = movies.Descending
		}
		browser.SetSort(opts.Prefs.SortKey, dir)
	}

	var (
		sessionCh <-chan struct{}
		guard     route.Guard
	)
	if opts.Session != nil {
		sessionCh = opts.Session.Subscribe()
		guard = route.NewGuard(opts.Session)
	}

	m := Model{
		ctx:       ctx,
		client:    opts.Client,
		session:   opts.Session,
		sessionCh: sessionCh,
		guard:     guard,
		config:    opts.Config,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		theme:     GetTheme(opts.Prefs.Theme),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		login:     newLoginState(),
		movies:    newMovieState(browser),
		upload:    newUploadState(),
		diag:      newDiagState(),
	}
	m.route = m.guard.Resolve(route.Root)
	switch m.route {
	case route.Login:
		m.login.focusField(0)
	case route.Movies:
		// Init issues the first page request
		m.movies.loading = opts.Client != nil
	}
	m.applyTableStyles()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(DefaultUIInterval),
		waitForSession(m.sessionCh),
	}
	switch m.route {
	case route.Movies:
		cmds = append(cmds, m.loadMovies())
	case route.Login:
		cmds = append(cmds, m.login.blink())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		if m.route != route.Upload {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshJobTable()
		return m, cmd

	case sessionChangedMsg:
		cmd := m.navigate(m.route)
		return m, tea.Batch(cmd, waitForSession(m.sessionCh))

	case loginResultMsg:
		return m, m.handleLoginResult(msg)

	case moviesLoadedMsg:
		return m, m.handleMoviesLoaded(msg)

	case movieDetailMsg:
		return m, m.handleMovieDetail(msg)

	case jobsChangedMsg:
		return m, m.handleJobsChanged(msg)

	case jobsLoadedMsg:
		return m, m.handleJobsLoaded(msg)

	case uploadResultMsg:
		return m, m.handleUploadResult(msg)

	case jobRefreshedMsg:
		return m, m.handleJobRefreshed(msg)

	case logLoadedMsg:
		m.handleLogLoaded(msg)
		return m, nil
	}

	return m.updateComponents(msg)
}

// updateComponents forwards internal messages (cursor blink, directory
// reads) to the widgets of the current view.
func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.route {
	case route.Login:
		cmd = m.login.update(msg)
	case route.Movies:
		if m.movies.searching {
			m.movies.search, cmd = m.movies.search.Update(msg)
		}
	case route.Upload:
		m.upload.picker, cmd = m.upload.picker.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input. Overlays swallow keys first; the login
// form and a focused movie search keep almost every key for their inputs.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.route == route.Login {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyCtrlL:
			return m, m.navigate(route.Diagnostics)
		}
		return m, m.handleLoginKey(msg)
	}

	if m.route == route.Movies && m.movies.searching {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		if m.session != nil && m.session.LoggedIn() {
			return m, m.logout()
		}
		return m, nil

	case key.Matches(msg, m.keys.ViewMovies):
		return m, m.navigate(route.Movies)

	case key.Matches(msg, m.keys.ViewUpload):
		return m, m.navigate(route.Upload)

	case key.Matches(msg, m.keys.ViewDiagnostics):
		return m, m.navigate(route.Diagnostics)

	case key.Matches(msg, m.keys.Escape):
		return m, m.navigate(route.Root)
	}

	switch m.route {
	case route.Movies:
		return m, m.handleMoviesKey(msg)
	case route.Upload:
		return m, m.handleUploadKey(msg)
	case route.Diagnostics:
		return m, m.handleDiagnosticsKey(msg)
	}

	return m, nil
}

// handleTick processes the UI refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Relative timestamps in the job table age with the clock
	if m.route == route.Upload {
		m.refreshJobTable()
	}

	if m.route == route.Diagnostics && m.diag.follow {
		if cmd := m.refreshLog(false); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(DefaultUIInterval))
	return m, tea.Batch(cmds...)
}

// cycleTheme switches to the next theme and persists the choice.
func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	m.applyTableStyles()
	m.savePrefs()
	m.refreshMovieTable()
	m.refreshJobTable()
	m.refreshLogViewport()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		slog.Warn("save preferences failed", "path", m.prefsPath, "error", err)
	}
}

// resize propagates the terminal size to every view.
func (m *Model) resize() {
	m.help.Width = m.width
	m.resizeLogin()
	m.resizeMovies()
	m.resizeUpload()
	m.resizeDiagnostics()
}

// contentHeight is the height available to the content box.
func (m Model) contentHeight() int {
	return max(m.height-chromeHeight, 3)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Main content
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the view selected by the route guard.
func (m Model) renderContent() string {
	switch m.route {
	case route.Movies:
		return m.renderMovies()
	case route.Upload:
		return m.renderUpload()
	case route.Diagnostics:
		return m.renderDiagnostics()
	default:
		return m.renderLogin()
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.Context = ctx
	m := New(opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.unmountUpload()
	}
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// Message types

type tickMsg time.Time

type sessionChangedMsg struct{}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForSession blocks until the session store signals a change. The
// channel is never closed, so the command is re-armed after each signal.
func waitForSession(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return sessionChangedMsg{}
	}
}
