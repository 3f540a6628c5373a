package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/route"
	"github.com/five82/marquee/internal/state"
	"github.com/five82/marquee/internal/uploads"
)

type uploadFocus int

const (
	focusPicker uploadFocus = iota
	focusJobs
)

// Fixed job table column widths; filename and progress share the rest.
const (
	jobStatusWidth  = 16
	jobUpdatedWidth = 22
)

// uploadState holds the upload view. The tracker only exists while the view
// is mounted.
type uploadState struct {
	tracker    *uploads.Tracker
	picker     filepicker.Model
	jobs       table.Model
	focus      uploadFocus
	snapshot   state.Snapshot
	status     string
	statusErr  bool
	submitting bool
}

// Messages carry the tracker they belong to so results from a view that has
// since been left are dropped.
type (
	jobsChangedMsg struct {
		tracker *uploads.Tracker
	}
	jobsLoadedMsg struct {
		tracker *uploads.Tracker
		err     error
	}
	uploadResultMsg struct {
		tracker *uploads.Tracker
		job     api.UploadJob
		err     error
	}
	jobRefreshedMsg struct {
		tracker *uploads.Tracker
		job     api.UploadJob
		err     error
	}
)

func newUploadState() uploadState {
	picker := filepicker.New()
	picker.AllowedTypes = []string{".csv", ".CSV"}
	picker.AutoHeight = false
	picker.ShowPermissions = false
	if wd, err := os.Getwd(); err == nil {
		picker.CurrentDirectory = wd
	}

	jobs := table.New(table.WithColumns(jobColumns(0)))
	return uploadState{picker: picker, jobs: jobs}
}

// jobColumns lays out the job table. The Updated column is dropped on
// narrow terminals; width 0 means no size is known yet.
func jobColumns(width int) []table.Column {
	if width <= 0 {
		width = LayoutUpdatedWidth
	}
	showUpdated := width >= LayoutUpdatedWidth

	fixed := jobStatusWidth
	n := 3
	if showUpdated {
		fixed += jobUpdatedWidth
		n++
	}
	flex := max(width-fixed-n*cellPadding, 20)
	file := flex * 2 / 5

	cols := []table.Column{
		{Title: "Filename", Width: file},
		{Title: "Status", Width: jobStatusWidth},
		{Title: "Progress", Width: flex - file},
	}
	if showUpdated {
		cols = append(cols, table.Column{Title: "Updated", Width: jobUpdatedWidth})
	}
	return cols
}

// jobRow renders a job. Rows always carry every column so the column count
// can change without re-rendering rows.
func jobRow(job api.UploadJob, frame string, now time.Time) table.Row {
	name := job.Filename
	if name == "" {
		name = job.ID
	}

	normalized := job.Status.Normalize()
	status := titleCase(string(normalized))
	switch normalized {
	case api.StatusProcessed:
		status = "✓ " + status
	case api.StatusFailed:
		status = "✗ " + status
	default:
		status = frame + " " + status
	}

	progress := fmt.Sprintf("%d rows processed", job.Progress)
	if normalized == api.StatusFailed {
		progress = job.Error
		if progress == "" {
			progress = "Processing failed"
		}
	}

	return table.Row{name, status, progress, relativeTime(now, job.ParsedUpdatedAt())}
}

// mountUpload starts a tracker for the view and loads the job list.
func (m *Model) mountUpload() tea.Cmd {
	m.unmountUpload()
	m.upload.snapshot = state.Snapshot{}
	m.upload.status = ""
	m.upload.statusErr = false
	m.upload.submitting = false
	m.setUploadFocus(focusPicker)
	if m.client == nil || m.session == nil {
		return nil
	}

	t := uploads.NewTracker(m.ctx, m.client, m.session, uploads.Options{PollInterval: m.config.PollInterval})
	m.upload.tracker = t
	slog.Debug("upload view mounted")
	m.refreshJobTable()

	return tea.Batch(
		m.loadJobs(),
		waitForJobs(t),
		m.spinner.Tick,
		m.upload.picker.Init(),
	)
}

// unmountUpload stops every poll loop of the current tracker.
func (m *Model) unmountUpload() {
	if m.upload.tracker == nil {
		return
	}
	m.upload.tracker.Close()
	m.upload.tracker = nil
	slog.Debug("upload view unmounted")
}

// waitForJobs blocks until the tracker reports a change. It returns nil once
// the tracker is closed, which ends the listen loop.
func waitForJobs(t *uploads.Tracker) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-t.Changes(); !ok {
			return nil
		}
		return jobsChangedMsg{tracker: t}
	}
}

func (m *Model) loadJobs() tea.Cmd {
	t := m.upload.tracker
	if t == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		return jobsLoadedMsg{tracker: t, err: t.Load(ctx)}
	}
}

func (m *Model) handleJobsChanged(msg jobsChangedMsg) tea.Cmd {
	if msg.tracker != m.upload.tracker {
		return nil
	}
	m.refreshJobTable()
	if api.IsUnauthorized(m.upload.snapshot.LastError) {
		return m.expireSession()
	}
	return waitForJobs(msg.tracker)
}

func (m *Model) handleJobsLoaded(msg jobsLoadedMsg) tea.Cmd {
	if msg.tracker != m.upload.tracker {
		return nil
	}
	m.refreshJobTable()
	if msg.err == nil {
		return nil
	}
	slog.Warn("load uploads failed", "error", msg.err)
	if api.IsUnauthorized(msg.err) {
		return m.expireSession()
	}
	m.setUploadStatus(api.ErrorMessage(msg.err, "Could not load uploads"), true)
	return nil
}

// submitUpload sends the selected file. Missing preconditions are reported
// by the tracker without any request being made.
func (m *Model) submitUpload() tea.Cmd {
	t := m.upload.tracker
	if t == nil || m.upload.submitting {
		return nil
	}
	if sel := t.Selected(); sel != "" {
		m.setUploadStatus("Uploading "+filepath.Base(sel)+"...", false)
	}
	m.upload.submitting = true
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
		defer cancel()
		job, err := t.Submit(ctx)
		return uploadResultMsg{tracker: t, job: job, err: err}
	}
}

func (m *Model) handleUploadResult(msg uploadResultMsg) tea.Cmd {
	if msg.tracker != m.upload.tracker {
		return nil
	}
	m.upload.submitting = false

	switch {
	case msg.err == nil:
		m.setUploadStatus("Uploaded "+msg.job.Filename, false)
		m.refreshJobTable()
		m.upload.jobs.GotoTop()
		return nil

	case errors.Is(msg.err, uploads.ErrNoFile):
		m.setUploadStatus("Select a CSV file first", true)
		return nil

	case errors.Is(msg.err, uploads.ErrNoSession):
		return m.expireSession()
	}

	slog.Error("upload failed", "error", msg.err)
	m.setUploadStatus("", false)
	m.modal = newAlert("Upload failed", api.ErrorMessage(msg.err, "An error occurred during file upload"))
	if api.IsUnauthorized(msg.err) {
		return m.expireSession()
	}
	return nil
}

// refreshSelectedJob re-fetches the job under the table cursor.
func (m *Model) refreshSelectedJob() tea.Cmd {
	t := m.upload.tracker
	jobs := m.upload.snapshot.Jobs
	idx := m.upload.jobs.Cursor()
	if t == nil || idx < 0 || idx >= len(jobs) {
		return nil
	}
	id := jobs[idx].ID
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
		job, err := t.Refresh(ctx, id)
		return jobRefreshedMsg{tracker: t, job: job, err: err}
	}
}

func (m *Model) handleJobRefreshed(msg jobRefreshedMsg) tea.Cmd {
	if msg.tracker != m.upload.tracker {
		return nil
	}
	m.refreshJobTable()
	if msg.err == nil {
		return nil
	}
	slog.Warn("refresh upload failed", "error", msg.err)
	if api.IsUnauthorized(msg.err) {
		return m.expireSession()
	}
	m.setUploadStatus(api.ErrorMessage(msg.err, "Could not refresh upload"), true)
	return nil
}

func (m *Model) setUploadStatus(text string, isErr bool) {
	m.upload.status = text
	m.upload.statusErr = isErr
}

func (m *Model) setUploadFocus(f uploadFocus) {
	m.upload.focus = f
	if f == focusJobs {
		m.upload.jobs.Focus()
	} else {
		m.upload.jobs.Blur()
	}
}

// refreshJobTable rebuilds the job rows from the tracker snapshot.
func (m *Model) refreshJobTable() {
	if t := m.upload.tracker; t != nil {
		m.upload.snapshot = t.Snapshot()
	}
	now := time.Now()
	frame := m.spinner.View()

	jobs := m.upload.snapshot.Jobs
	rows := make([]table.Row, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, jobRow(job, frame, now))
	}

	width := 0
	if m.ready {
		width = max(m.width-4, 10)
	}
	m.upload.jobs.SetColumns(jobColumns(width))
	m.upload.jobs.SetRows(rows)
}

// uploadHeights splits the content area between the picker and job boxes.
func (m Model) uploadHeights() (picker, jobs int) {
	total := m.contentHeight()
	picker = max(total*2/5, 6)
	return picker, max(total-picker, 3)
}

func (m *Model) resizeUpload() {
	pickerBox, jobsBox := m.uploadHeights()
	// Box borders plus the selected-file line
	m.upload.picker.Height = max(pickerBox-3, 1)
	m.upload.jobs.SetWidth(max(m.width-4, 10))
	m.upload.jobs.SetHeight(max(jobsBox-2, 2))
	m.refreshJobTable()
}

// handleUploadKey processes keyboard input for the upload view.
func (m *Model) handleUploadKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Tab):
		if m.upload.focus == focusPicker {
			m.setUploadFocus(focusJobs)
		} else {
			m.setUploadFocus(focusPicker)
		}
		return nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitUpload()

	case key.Matches(msg, m.keys.ReloadJobs):
		return m.loadJobs()

	case key.Matches(msg, m.keys.RefreshJob):
		return m.refreshSelectedJob()
	}

	if m.upload.focus == focusJobs {
		var cmd tea.Cmd
		m.upload.jobs, cmd = m.upload.jobs.Update(msg)
		return cmd
	}

	var cmd tea.Cmd
	m.upload.picker, cmd = m.upload.picker.Update(msg)
	if ok, path := m.upload.picker.DidSelectFile(msg); ok {
		m.selectFile(path)
	} else if ok, path := m.upload.picker.DidSelectDisabledFile(msg); ok {
		m.setUploadStatus(filepath.Base(path)+" is not a CSV file", true)
	}
	return cmd
}

// selectFile hands a picked path to the tracker.
func (m *Model) selectFile(path string) {
	t := m.upload.tracker
	if t == nil {
		return
	}
	if err := t.Select(path); err != nil {
		slog.Warn("select file rejected", "path", path, "error", err)
		m.setUploadStatus(err.Error(), true)
		return
	}
	slog.Info("file selected", "path", path)
	m.setUploadStatus("Selected "+filepath.Base(path)+", press u to upload", false)
}

// renderUpload renders the picker above the job table.
func (m Model) renderUpload() string {
	styles := m.theme.Styles()
	pickerBox, jobsBox := m.uploadHeights()

	selected := ""
	if t := m.upload.tracker; t != nil {
		selected = t.Selected()
	}
	var top strings.Builder
	if selected == "" {
		top.WriteString(styles.MutedText.Render("No file selected · enter picks a .csv file"))
	} else {
		top.WriteString(styles.MutedText.Render("Selected ") +
			styles.AccentText.Render(truncateMiddle(selected, max(m.width-16, 10))))
	}
	top.WriteString("\n")
	top.WriteString(m.upload.picker.View())

	var bottom string
	switch {
	case len(m.upload.snapshot.Jobs) == 0:
		bottom = styles.MutedText.Render("No uploads yet.")
	default:
		bottom = m.upload.jobs.View()
	}

	jobsTitle := "Uploaded Files"
	if pending := m.upload.snapshot.Pending(); pending > 0 {
		jobsTitle = fmt.Sprintf("%s (%d processing)", jobsTitle, pending)
	}

	return m.renderBox(route.Upload.Title(), top.String(), m.width, pickerBox, m.upload.focus == focusPicker) +
		"\n" +
		m.renderBox(jobsTitle, bottom, m.width, jobsBox, m.upload.focus == focusJobs) +
		"\n" +
		m.renderUploadStatus(styles)
}

// renderUploadStatus renders the status line under the job table.
func (m Model) renderUploadStatus(styles Styles) string {
	bg := NewBgStyle(m.theme.Background)
	st := styles.WithBackground(m.theme.Background)

	var parts []string
	if m.upload.submitting {
		parts = append(parts, bg.Render(m.spinner.View()+" Uploading", st.WarningText))
	}
	switch {
	case m.upload.status != "" && m.upload.statusErr:
		parts = append(parts, bg.Render(truncate(m.upload.status, 80), st.DangerText))
	case m.upload.status != "":
		parts = append(parts, bg.Render(truncate(m.upload.status, 80), st.Text))
	}
	parts = append(parts, jobBadges(m.upload.snapshot.Jobs, st)...)
	if snap := m.upload.snapshot; snap.IsOffline() {
		parts = append(parts, bg.Render("OFFLINE", st.DangerText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d failed polls", snap.ConsecutiveFailures), st.MutedText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

var badgeOrder = []api.JobStatus{
	api.StatusPending,
	api.StatusInProgress,
	api.StatusProcessed,
	api.StatusFailed,
}

// jobBadges renders one coloured count per status present in jobs.
func jobBadges(jobs []api.UploadJob, styles Styles) []string {
	counts := make(map[api.JobStatus]int, len(badgeOrder))
	for _, job := range jobs {
		counts[job.Status.Normalize()]++
	}
	var badges []string
	for _, status := range badgeOrder {
		if n := counts[status]; n > 0 {
			badges = append(badges, styles.StatusStyle(status).Render(fmt.Sprintf("%d %s", n, titleCase(string(status)))))
		}
	}
	return badges
}
