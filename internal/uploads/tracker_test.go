package uploads

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/apitest"
	"github.com/five82/marquee/internal/session"
)

const interval = 10 * time.Millisecond

const catalogue = "show_id,type,title,director,cast,country,date_added,release_year,rating,duration,listed_in,description\n" +
	"s1,Movie,Title,,,,,2020,,,,\n"

type fixture struct {
	backend *apitest.Backend
	session *session.Store
	tracker *Tracker
}

func newFixture(t *testing.T, opts ...apitest.Option) fixture {
	t.Helper()
	backend, srv := apitest.NewServer(t, opts...)

	sess, err := session.Open("")
	require.NoError(t, err)
	require.NoError(t, sess.Set(backend.IssueToken("admin")))

	client, err := api.NewClient(srv.URL, sess)
	require.NoError(t, err)

	tracker := NewTracker(context.Background(), client, sess, Options{PollInterval: interval})
	t.Cleanup(tracker.Close)
	return fixture{backend: backend, session: sess, tracker: tracker}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_PollsOnlyNonTerminalJobs(t *testing.T) {
	f := newFixture(t)
	f.backend.SetJob(api.UploadJob{ID: "B", Filename: "b.csv", Status: api.StatusProcessed})
	f.backend.SetJob(api.UploadJob{ID: "A", Filename: "a.csv", Status: api.StatusPending})

	require.NoError(t, f.tracker.Load(context.Background()))
	jobs := f.tracker.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "A", jobs[0].ID)

	assert.True(t, f.tracker.Polling("A"))
	assert.False(t, f.tracker.Polling("B"))

	require.Eventually(t, func() bool { return f.backend.Fetches("A") >= 2 }, 2*time.Second, interval)
	assert.Zero(t, f.backend.Fetches("B"))
}

func TestPoll_ContinuesWhileRunningAndStopsWhenTerminal(t *testing.T) {
	f := newFixture(t)
	f.backend.SetJob(api.UploadJob{ID: "A", Status: api.StatusInProgress, Progress: 5})

	require.NoError(t, f.tracker.Load(context.Background()))
	require.Eventually(t, func() bool { return f.backend.Fetches("A") >= 3 }, 2*time.Second, interval)

	f.backend.SetJob(api.UploadJob{ID: "A", Status: api.StatusFailed, Error: "Invalid header"})
	require.Eventually(t, func() bool { return !f.tracker.Polling("A") }, 2*time.Second, interval)

	fetches := f.backend.Fetches("A")
	time.Sleep(5 * interval)
	assert.Equal(t, fetches, f.backend.Fetches("A"), "no polls after a terminal status")

	jobs := f.tracker.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, api.StatusFailed, jobs[0].Status)
	assert.Equal(t, "Invalid header", jobs[0].Error)
}

func TestSubmit_WithoutFileSendsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Zero(t, f.backend.Hits("/api/csv/upload"))
}

func TestSubmit_WithoutSessionSendsNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tracker.Select(writeFile(t, "movies.csv", catalogue)))
	require.NoError(t, f.session.Clear())

	_, err := f.tracker.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, f.backend.Hits("/api/csv/upload"))
	assert.NotEmpty(t, f.tracker.Selected(), "selection survives a rejected submit")
}

func TestSubmit_PrependsJobAndPollsToCompletion(t *testing.T) {
	f := newFixture(t, apitest.WithAutoProcess(0))
	f.backend.SetJob(api.UploadJob{ID: "old", Status: api.StatusProcessed})
	require.NoError(t, f.tracker.Load(context.Background()))

	require.NoError(t, f.tracker.Select(writeFile(t, "movies.csv", catalogue)))
	job, err := f.tracker.Submit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.tracker.Selected())

	jobs := f.tracker.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, job.ID, jobs[0].ID)

	require.Eventually(t, func() bool {
		for _, j := range f.tracker.Jobs() {
			if j.ID == job.ID {
				return j.Status == api.StatusProcessed && j.Progress == 1
			}
		}
		return false
	}, 2*time.Second, interval)
	require.Eventually(t, func() bool { return !f.tracker.Polling(job.ID) }, 2*time.Second, interval)
}

func TestSubmit_ServerErrorIsReturned(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tracker.Select(writeFile(t, "movies.csv", catalogue)))
	f.backend.RevokeTokens()

	_, err := f.tracker.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, "Invalid token", api.ErrorMessage(err, "An error occurred during file upload"))
	assert.Empty(t, f.tracker.Jobs())
}

func TestRefresh_DoesNotDuplicatePollLoops(t *testing.T) {
	f := newFixture(t)
	f.backend.SetJob(api.UploadJob{ID: "A", Status: api.StatusPending})

	for i := 0; i < 3; i++ {
		_, err := f.tracker.Refresh(context.Background(), "A")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.tracker.ActivePolls())

	f.backend.SetJob(api.UploadJob{ID: "B", Status: api.StatusProcessed})
	job, err := f.tracker.Refresh(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, api.StatusProcessed, job.Status)
	assert.False(t, f.tracker.Polling("B"))
}

func TestClose_StopsPolling(t *testing.T) {
	f := newFixture(t)
	f.backend.SetJob(api.UploadJob{ID: "A", Status: api.StatusPending})
	require.NoError(t, f.tracker.Load(context.Background()))
	require.Eventually(t, func() bool { return f.backend.Fetches("A") >= 1 }, 2*time.Second, interval)

	f.tracker.Close()
	assert.Zero(t, f.tracker.ActivePolls())

	// A fetch cancelled by Close may still be counted by the server.
	time.Sleep(interval)
	fetches := f.backend.Fetches("A")
	time.Sleep(5 * interval)
	assert.Equal(t, fetches, f.backend.Fetches("A"))

	_, open := <-f.tracker.Changes()
	for open {
		_, open = <-f.tracker.Changes()
	}

	// Loading after Close starts nothing.
	require.NoError(t, f.tracker.Load(context.Background()))
	assert.Zero(t, f.tracker.ActivePolls())
}

func TestPoll_StopsOnUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.backend.SetJob(api.UploadJob{ID: "A", Status: api.StatusPending})
	require.NoError(t, f.tracker.Load(context.Background()))

	f.backend.RevokeTokens()
	require.Eventually(t, func() bool { return !f.tracker.Polling("A") }, 2*time.Second, interval)
	assert.True(t, api.IsUnauthorized(f.tracker.Snapshot().LastError))
}

func TestSelect(t *testing.T) {
	f := newFixture(t)

	err := f.tracker.Select(writeFile(t, "notes.txt", "x"))
	assert.ErrorIs(t, err, ErrNotCSV)

	dir := filepath.Join(t.TempDir(), "folder.csv")
	require.NoError(t, os.Mkdir(dir, 0o755))
	assert.ErrorIs(t, f.tracker.Select(dir), ErrNotCSV)

	assert.Error(t, f.tracker.Select(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Empty(t, f.tracker.Selected())

	upper := writeFile(t, "DATA.CSV", catalogue)
	require.NoError(t, f.tracker.Select(upper))
	assert.Equal(t, upper, f.tracker.Selected())

	f.tracker.ClearSelection()
	assert.Empty(t, f.tracker.Selected())
}

func TestChanges_SignalsOnLoad(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tracker.Load(context.Background()))

	select {
	case <-f.tracker.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}
}

// flakyBackend fails the first failures status fetches, then holds the next
// fetch until release is closed and answers processed.
type flakyBackend struct {
	failures int
	release  chan struct{}

	mu    sync.Mutex
	calls int
}

func (b *flakyBackend) UploadCSV(context.Context, string, io.Reader) (api.UploadJob, error) {
	return api.UploadJob{}, nil
}

func (b *flakyBackend) ListUploads(context.Context, int) ([]api.UploadJob, error) {
	return []api.UploadJob{{ID: "A", Status: api.StatusPending}}, nil
}

func (b *flakyBackend) GetUpload(ctx context.Context, id string) (api.UploadJob, error) {
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()

	if n <= b.failures {
		return api.UploadJob{}, &api.Error{Status: http.StatusInternalServerError, Message: "database unavailable", Path: "/api/csv/get/" + id}
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return api.UploadJob{}, ctx.Err()
	}
	return api.UploadJob{ID: id, Status: api.StatusProcessed, Progress: 3}, nil
}

func (b *flakyBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestPoll_ContinuesAfterServerErrors(t *testing.T) {
	backend := &flakyBackend{failures: 2, release: make(chan struct{})}
	sess, err := session.Open("")
	require.NoError(t, err)
	require.NoError(t, sess.Set("token"))

	tracker := NewTracker(context.Background(), backend, sess, Options{PollInterval: interval})
	t.Cleanup(tracker.Close)

	require.NoError(t, tracker.Load(context.Background()))
	require.Eventually(t, func() bool { return backend.Calls() == 3 }, 2*time.Second, interval)

	snap := tracker.Snapshot()
	assert.True(t, snap.IsOffline(), "two failed fetches mark the tracker offline")
	assert.Equal(t, 2, snap.ConsecutiveFailures)
	assert.True(t, tracker.Polling("A"))

	close(backend.release)
	require.Eventually(t, func() bool { return !tracker.Polling("A") }, 2*time.Second, interval)

	snap = tracker.Snapshot()
	assert.False(t, snap.IsOffline())
	require.Len(t, snap.Jobs, 1)
	assert.Equal(t, api.StatusProcessed, snap.Jobs[0].Status)
	assert.Equal(t, 3, backend.Calls())
}
