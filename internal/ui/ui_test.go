package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/apitest"
	"github.com/five82/marquee/internal/config"
	"github.com/five82/marquee/internal/movies"
	"github.com/five82/marquee/internal/prefs"
	"github.com/five82/marquee/internal/route"
	"github.com/five82/marquee/internal/session"
)

type harness struct {
	backend   *apitest.Backend
	session   *session.Store
	prefsPath string
}

var catalogue = []api.Movie{
	{ID: "1", ShowID: "s1", Title: "Dick Johnson Is Dead", ReleaseYear: "2020"},
	{ID: "2", ShowID: "s2", Title: "Blood & Water", ReleaseYear: "2021"},
	{ID: "3", ShowID: "s3", Title: "Ganglands", ReleaseYear: "2021"},
}

func newHarness(t *testing.T, loggedIn bool) (Model, harness) {
	t.Helper()
	backend, srv := apitest.NewServer(t, apitest.WithMovies(catalogue))

	sess, err := session.Open("")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	if loggedIn {
		if err := sess.Set(backend.IssueToken("admin")); err != nil {
			t.Fatalf("set session: %v", err)
		}
	}
	client, err := api.NewClient(srv.URL, sess)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dir := t.TempDir()
	h := harness{backend: backend, session: sess, prefsPath: filepath.Join(dir, "prefs.toml")}
	m := New(Options{
		Context: ctx,
		Client:  client,
		Session: sess,
		Config: config.Config{
			ServerURL:    srv.URL,
			PageSize:     10,
			PollInterval: 10 * time.Millisecond,
			LogPath:      filepath.Join(dir, "marquee.log"),
		},
		Prefs:     prefs.Prefs{Theme: "Nightfox"},
		PrefsPath: h.prefsPath,
	})
	m, _ = update(m, tea.WindowSizeMsg{Width: 140, Height: 40})
	return m, h
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// exec runs a single (non-batched) command and feeds its message back.
func exec(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	return update(m, cmd())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeLogin(m Model, username, password string) Model {
	m, _ = update(m, runes(username))
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if password != "" {
		m, _ = update(m, runes(password))
	}
	return m
}

func TestNew_StartsOnLoginWhenLoggedOut(t *testing.T) {
	m, _ := newHarness(t, false)
	if m.route != route.Login {
		t.Fatalf("route = %q, want %q", m.route, route.Login)
	}
	view := m.View()
	if !strings.Contains(view, "Sign in to") {
		t.Fatalf("login view missing form:\n%s", view)
	}
}

func TestNew_StartsOnMoviesWhenLoggedIn(t *testing.T) {
	m, _ := newHarness(t, true)
	if m.route != route.Movies {
		t.Fatalf("route = %q, want %q", m.route, route.Movies)
	}
}

func TestLogin_StoresTokenAndOpensMovieList(t *testing.T) {
	m, h := newHarness(t, false)
	m = typeLogin(m, "admin", "admin")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.login.pending {
		t.Fatalf("expected login to be pending")
	}
	m, cmd = exec(t, m, cmd)

	if !h.session.LoggedIn() {
		t.Fatalf("expected token to be stored")
	}
	if m.route != route.Movies {
		t.Fatalf("route = %q, want %q", m.route, route.Movies)
	}
	if got := m.login.inputs[fieldPassword].Value(); got != "" {
		t.Fatalf("password not cleared: %q", got)
	}

	m, _ = exec(t, m, cmd)
	if got := len(m.movies.browser.Records()); got != len(catalogue) {
		t.Fatalf("records = %d, want %d", got, len(catalogue))
	}
	if total, ok := m.movies.browser.Total(); !ok || total != len(catalogue) {
		t.Fatalf("total = %d (%v), want %d", total, ok, len(catalogue))
	}
}

func TestLogin_FailureShowsServerMessage(t *testing.T) {
	m, h := newHarness(t, false)
	m = typeLogin(m, "admin", "wrong")

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = exec(t, m, cmd)

	if h.session.LoggedIn() {
		t.Fatalf("failed login stored a token")
	}
	if m.route != route.Login {
		t.Fatalf("route = %q, want %q", m.route, route.Login)
	}
	if m.login.message != "Invalid username or password" {
		t.Fatalf("message = %q", m.login.message)
	}
}

func TestLogin_MissingFieldSendsNoRequest(t *testing.T) {
	m, h := newHarness(t, false)
	m = typeLogin(m, "admin", "")

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("expected no command for an incomplete form")
	}
	if m.login.message != "Username and password are required" {
		t.Fatalf("message = %q", m.login.message)
	}
	if hits := h.backend.Hits("/api/user/login"); hits != 0 {
		t.Fatalf("login hits = %d, want 0", hits)
	}
}

func TestLogin_GlobalKeysAreTyped(t *testing.T) {
	m, _ := newHarness(t, false)
	m, _ = update(m, runes("mcXT"))

	if m.route != route.Login {
		t.Fatalf("route = %q, want %q", m.route, route.Login)
	}
	if got := m.login.inputs[fieldUsername].Value(); got != "mcXT" {
		t.Fatalf("username = %q, want mcXT", got)
	}
	if m.theme.Name != "Nightfox" {
		t.Fatalf("theme changed to %q while typing", m.theme.Name)
	}
}

func TestLogout_ReturnsToLogin(t *testing.T) {
	m, h := newHarness(t, true)
	m, _ = update(m, runes("X"))

	if h.session.LoggedIn() {
		t.Fatalf("expected session to be cleared")
	}
	if m.route != route.Login {
		t.Fatalf("route = %q, want %q", m.route, route.Login)
	}
}

func TestSessionChange_GuardRedirects(t *testing.T) {
	m, h := newHarness(t, true)
	if err := h.session.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	m, _ = update(m, sessionChangedMsg{})
	if m.route != route.Login {
		t.Fatalf("route = %q, want %q", m.route, route.Login)
	}

	// Protected views stay out of reach.
	m, _ = update(m, runes("c"))
	if m.route != route.Login {
		t.Fatalf("route = %q after upload key, want %q", m.route, route.Login)
	}
}

func TestMovies_SortKeysReloadAndPersist(t *testing.T) {
	m, h := newHarness(t, true)

	m, cmd := update(m, runes("S"))
	if m.movies.browser.SortDirection() != movies.Descending {
		t.Fatalf("direction = %v, want descending", m.movies.browser.SortDirection())
	}
	m, _ = exec(t, m, cmd)
	if first := m.movies.browser.Records()[0].ShowID.String(); first != "s3" {
		t.Fatalf("first show_id = %q, want s3", first)
	}
	if p := prefs.Load(h.prefsPath); !p.SortDescending || p.SortKey != "show_id" {
		t.Fatalf("prefs = %+v, want show_id descending", p)
	}

	m, cmd = update(m, runes("s"))
	if m.movies.browser.SortKey() != "date_added" {
		t.Fatalf("sort key = %q, want date_added", m.movies.browser.SortKey())
	}
	m, _ = exec(t, m, cmd)
	if p := prefs.Load(h.prefsPath); p.SortDescending || p.SortKey != "date_added" {
		t.Fatalf("prefs = %+v, want date_added ascending", p)
	}
	if m.movies.err != "" {
		t.Fatalf("unexpected error: %s", m.movies.err)
	}
}

func TestMovies_UnauthorizedExpiresSession(t *testing.T) {
	m, h := newHarness(t, true)
	h.backend.RevokeTokens()

	_, cmd := update(m, runes("r"))
	m, _ = exec(t, m, cmd)

	if h.session.LoggedIn() {
		t.Fatalf("expected session to be cleared")
	}
	if m.route != route.Login {
		t.Fatalf("route = %q, want %q", m.route, route.Login)
	}
	if !strings.Contains(m.login.message, "expired") {
		t.Fatalf("message = %q", m.login.message)
	}
}

func TestMovies_StaleResponseIgnored(t *testing.T) {
	m, _ := newHarness(t, true)

	m, _ = update(m, runes("r"))
	m, second := update(m, runes("r"))

	m, _ = exec(t, m, second)
	if !m.movies.browser.Loaded() {
		t.Fatalf("latest response not applied")
	}

	stale := moviesLoadedMsg{seq: 1, err: &api.Error{Status: 500, Message: "boom"}}
	m, _ = update(m, stale)
	if m.movies.err != "" {
		t.Fatalf("stale error surfaced: %q", m.movies.err)
	}
}

func TestAlertModal_SwallowsKeys(t *testing.T) {
	m, _ := newHarness(t, true)
	m.modal = newAlert("Upload failed", "Invalid file format")

	m, _ = update(m, runes("c"))
	if m.route != route.Movies || m.modal == nil {
		t.Fatalf("modal let a key through: route=%q modal=%v", m.route, m.modal)
	}
	if !strings.Contains(m.View(), "Invalid file format") {
		t.Fatalf("modal not rendered")
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != nil {
		t.Fatalf("enter should dismiss the alert")
	}
}

func TestCycleTheme_PersistsPrefs(t *testing.T) {
	m, h := newHarness(t, true)
	m, _ = update(m, runes("T"))

	if m.theme.Name != "Gruvbox" {
		t.Fatalf("theme = %q, want Gruvbox", m.theme.Name)
	}
	if got := prefs.Load(h.prefsPath).Theme; got != "Gruvbox" {
		t.Fatalf("saved theme = %q, want Gruvbox", got)
	}
}

func TestHelp_AnyKeyCloses(t *testing.T) {
	m, _ := newHarness(t, true)
	m, _ = update(m, runes("?"))
	if !m.showHelp {
		t.Fatalf("expected help overlay")
	}
	m, _ = update(m, runes("c"))
	if m.showHelp || m.route != route.Movies {
		t.Fatalf("help key leaked: showHelp=%v route=%q", m.showHelp, m.route)
	}
}

func TestUpload_SubmitWithoutFileShowsStatus(t *testing.T) {
	m, h := newHarness(t, true)
	m, _ = update(m, runes("c"))
	if m.route != route.Upload || m.upload.tracker == nil {
		t.Fatalf("upload view not mounted")
	}

	m, cmd := update(m, runes("u"))
	m, _ = exec(t, m, cmd)

	if m.upload.status != "Select a CSV file first" || !m.upload.statusErr {
		t.Fatalf("status = %q (err=%v)", m.upload.status, m.upload.statusErr)
	}
	if m.modal != nil {
		t.Fatalf("missing file should not raise an alert")
	}
	if hits := h.backend.Hits("/api/csv/upload"); hits != 0 {
		t.Fatalf("upload hits = %d, want 0", hits)
	}
}

func TestUpload_ServerErrorRaisesAlert(t *testing.T) {
	m, h := newHarness(t, true)
	m, _ = update(m, runes("c"))

	path := filepath.Join(t.TempDir(), "movies.csv")
	if err := os.WriteFile(path, []byte("show_id\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m.selectFile(path)
	if m.upload.tracker.Selected() != path {
		t.Fatalf("selection = %q, want %q", m.upload.tracker.Selected(), path)
	}

	h.backend.RevokeTokens()
	m, cmd := update(m, runes("u"))
	m, _ = exec(t, m, cmd)

	alert, ok := m.modal.(alertModal)
	if !ok {
		t.Fatalf("modal = %T, want alertModal", m.modal)
	}
	if alert.message != "Invalid token" {
		t.Fatalf("alert message = %q, want Invalid token", alert.message)
	}
	if m.route != route.Login || h.session.LoggedIn() {
		t.Fatalf("rejected token should end the session")
	}
}

func TestUpload_SubmitAddsJob(t *testing.T) {
	m, h := newHarness(t, true)
	m, _ = update(m, runes("c"))

	path := filepath.Join(t.TempDir(), "movies.csv")
	if err := os.WriteFile(path, []byte("show_id\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m.selectFile(path)

	m, cmd := update(m, runes("u"))
	m, _ = exec(t, m, cmd)

	if m.modal != nil {
		t.Fatalf("unexpected alert")
	}
	if got := len(m.upload.snapshot.Jobs); got != 1 {
		t.Fatalf("jobs = %d, want 1", got)
	}
	if jobs := h.backend.Jobs(); len(jobs) != 1 {
		t.Fatalf("backend jobs = %d, want 1", len(jobs))
	}
	if m.upload.tracker.Selected() != "" {
		t.Fatalf("selection should clear after upload")
	}
}

func TestUpload_LeavingViewStopsTracker(t *testing.T) {
	m, _ := newHarness(t, true)
	m, _ = update(m, runes("c"))
	tracker := m.upload.tracker

	m, _ = update(m, runes("m"))
	if m.upload.tracker != nil {
		t.Fatalf("tracker still mounted")
	}
	if n := tracker.ActivePolls(); n != 0 {
		t.Fatalf("active polls = %d, want 0", n)
	}
	if _, open := <-tracker.Changes(); open {
		// Drain a pending signal; the channel must close after it.
		if _, open = <-tracker.Changes(); open {
			t.Fatalf("changes channel not closed")
		}
	}

	// Messages from the old tracker are ignored.
	if _, cmd := update(m, jobsChangedMsg{tracker: tracker}); cmd != nil {
		t.Fatalf("stale tracker message re-armed a listener")
	}
}

func TestJobRow(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name     string
		job      api.UploadJob
		status   string
		progress string
	}{
		{"pending", api.UploadJob{Filename: "a.csv", Status: api.StatusPending}, "* Pending", "0 rows processed"},
		{"running", api.UploadJob{Filename: "a.csv", Status: api.StatusInProgress, Progress: 40}, "* In Progress", "40 rows processed"},
		{"processed", api.UploadJob{Filename: "a.csv", Status: api.StatusProcessed, Progress: 8807}, "✓ Processed", "8807 rows processed"},
		{"failed", api.UploadJob{Filename: "a.csv", Status: api.StatusFailed, Error: "Invalid header"}, "✗ Failed", "Invalid header"},
		{"capitalised processed", api.UploadJob{Filename: "a.csv", Status: " Processed ", Progress: 3}, "✓ Processed", "3 rows processed"},
		{"upper case failed", api.UploadJob{Filename: "a.csv", Status: "FAILED"}, "✗ Failed", "Processing failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := jobRow(tc.job, "*", now)
			if len(row) != 4 {
				t.Fatalf("row has %d cells, want 4", len(row))
			}
			if row[1] != tc.status {
				t.Fatalf("status = %q, want %q", row[1], tc.status)
			}
			if row[2] != tc.progress {
				t.Fatalf("progress = %q, want %q", row[2], tc.progress)
			}
		})
	}
}

func TestJobColumns_DropUpdatedWhenNarrow(t *testing.T) {
	if got := len(jobColumns(LayoutUpdatedWidth)); got != 4 {
		t.Fatalf("wide columns = %d, want 4", got)
	}
	if got := len(jobColumns(80)); got != 3 {
		t.Fatalf("narrow columns = %d, want 3", got)
	}
}

func TestDiagnostics_ReadsAndFiltersLog(t *testing.T) {
	m, _ := newHarness(t, false)
	log := strings.Join([]string{
		`time=2026-01-01T00:00:00Z level=INFO msg="login succeeded"`,
		`time=2026-01-01T00:00:01Z level=WARN msg="load movies failed"`,
		`time=2026-01-01T00:00:02Z level=ERROR msg="upload failed"`,
	}, "\n") + "\n"
	if err := os.WriteFile(m.config.LogPath, []byte(log), 0o644); err != nil {
		t.Fatal(err)
	}

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.route != route.Diagnostics {
		t.Fatalf("route = %q, want %q", m.route, route.Diagnostics)
	}
	m, _ = exec(t, m, cmd)
	if got := len(m.diag.lines); got != 3 {
		t.Fatalf("lines = %d, want 3", got)
	}

	// All -> INFO+ -> WARN+
	m, _ = update(m, runes("f"))
	m, _ = update(m, runes("f"))
	if levelLabel(m.diag.level) != "WARN+" {
		t.Fatalf("level = %q, want WARN+", levelLabel(m.diag.level))
	}
	if strings.Contains(m.diag.viewport.View(), "login succeeded") {
		t.Fatalf("INFO line survived the WARN filter")
	}

	// Escape goes home, which is login while logged out.
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.route != route.Login {
		t.Fatalf("route = %q, want %q", m.route, route.Login)
	}
}

func TestLoginResult_WithoutSessionStore(t *testing.T) {
	m := New(Options{Config: config.Config{PageSize: 10}, PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	m, _ = update(m, tea.WindowSizeMsg{Width: 140, Height: 40})
	if m.route != route.Login {
		t.Fatalf("route = %q, want login", m.route)
	}

	m, cmd := update(m, loginResultMsg{resp: api.LoginResponse{Username: "admin", Token: "abc"}})
	if cmd != nil {
		t.Fatalf("expected no command")
	}
	if m.route != route.Login {
		t.Fatalf("route = %q, want login", m.route)
	}
	if m.login.message != "No session store configured" {
		t.Fatalf("message = %q", m.login.message)
	}
}

func TestMovies_SearchCapturesKeysAndFilters(t *testing.T) {
	m, h := newHarness(t, true)

	m, _ = update(m, runes("/"))
	if !m.movies.searching {
		t.Fatalf("expected search input to be focused")
	}
	m, _ = update(m, runes("gang"))
	m, _ = update(m, runes("m"))
	if m.route != route.Movies {
		t.Fatalf("typed key navigated to %q", m.route)
	}
	if got := m.movies.search.Value(); got != "gangm" {
		t.Fatalf("search value = %q, want gangm", got)
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyBackspace})

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.movies.searchKey != "director" {
		t.Fatalf("search key = %q, want director after title", m.movies.searchKey)
	}
	for m.movies.searchKey != "title" {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	}

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.movies.searching {
		t.Fatalf("search still focused after enter")
	}
	m, _ = exec(t, m, cmd)

	records := m.movies.browser.Records()
	if len(records) != 1 || records[0].ShowID.String() != "s3" {
		t.Fatalf("records = %+v, want only s3", records)
	}
	if h.backend.Hits("/api/movies/list/") != 1 {
		t.Fatalf("list hits = %d, want 1", h.backend.Hits("/api/movies/list/"))
	}
	if !strings.Contains(m.View(), "Title: gang") {
		t.Fatalf("active search not shown in status line")
	}

	// An empty search clears the filter.
	m, _ = update(m, runes("/"))
	for range len("gang") {
		m, _ = update(m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = exec(t, m, cmd)
	if got := len(m.movies.browser.Records()); got != 3 {
		t.Fatalf("records = %d, want 3 after clearing search", got)
	}
}

func TestMovies_SearchEscapeKeepsAppliedTerm(t *testing.T) {
	m, _ := newHarness(t, true)

	m, _ = update(m, runes("/"))
	m, _ = update(m, runes("blood"))
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.movies.searching {
		t.Fatalf("escape did not close the search input")
	}
	if m.movies.search.Value() != "" {
		t.Fatalf("search value = %q, want the unapplied text dropped", m.movies.search.Value())
	}
	if _, term := m.movies.browser.Search(); term != "" {
		t.Fatalf("search term = %q, want none applied", term)
	}
}

func TestMovies_EnterShowsDetails(t *testing.T) {
	m, h := newHarness(t, true)
	_, cmd := update(m, runes("r"))
	m, _ = exec(t, m, cmd)

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.movies.detailFor != "1" {
		t.Fatalf("detailFor = %q, want 1", m.movies.detailFor)
	}
	m, _ = exec(t, m, cmd)

	if _, ok := m.modal.(movieDetailModal); !ok {
		t.Fatalf("modal = %T, want movieDetailModal", m.modal)
	}
	if h.backend.Hits("/api/movies/get/1") != 1 {
		t.Fatalf("detail fetches = %d, want 1", h.backend.Hits("/api/movies/get/1"))
	}
	if !strings.Contains(m.View(), "Dick Johnson Is Dead") {
		t.Fatalf("details not rendered:\n%s", m.View())
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal != nil {
		t.Fatalf("escape did not close details")
	}
}

func TestMovies_DetailsOfMissingMovieRaisesAlert(t *testing.T) {
	m, _ := newHarness(t, true)
	m.movies.detailFor = "gone"

	m, _ = update(m, movieDetailMsg{id: "gone", err: &api.Error{Status: 404}})
	alert, ok := m.modal.(alertModal)
	if !ok {
		t.Fatalf("modal = %T, want alertModal", m.modal)
	}
	if alert.message != "Could not load movie details" {
		t.Fatalf("alert message = %q", alert.message)
	}
	if m.movies.detailFor != "" {
		t.Fatalf("detail request still marked pending")
	}
}
