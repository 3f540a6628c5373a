// Package uploads drives the CSV upload view: it holds the selected file,
// submits it, and polls each job until the server reports a terminal status.
// Every poll loop belongs to the Tracker that started it and stops when the
// Tracker is closed.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/state"
)

var (
	// ErrNoFile is returned by Submit when no file is selected.
	ErrNoFile = errors.New("no file selected")
	// ErrNoSession is returned by Submit when there is no session token.
	ErrNoSession = errors.New("not logged in")
	// ErrNotCSV is returned by Select for anything but a regular .csv file.
	ErrNotCSV = errors.New("only .csv files can be uploaded")
)

const (
	defaultPollInterval = time.Second
	defaultListSize     = 100
)

// Backend is the part of the API the tracker uses. *api.Client implements it.
type Backend interface {
	UploadCSV(ctx context.Context, filename string, r io.Reader) (api.UploadJob, error)
	ListUploads(ctx context.Context, pageSize int) ([]api.UploadJob, error)
	GetUpload(ctx context.Context, id string) (api.UploadJob, error)
}

// Options tunes a Tracker. Zero values fall back to defaults.
type Options struct {
	PollInterval time.Duration
	ListSize     int
}

// Tracker owns the upload view's state and poll loops.
type Tracker struct {
	backend Backend
	tokens  api.TokenSource
	opts    Options
	store   state.Store

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu       sync.Mutex
	selected string
	polling  map[string]struct{}
	closed   bool
	changes  chan struct{}
}

// NewTracker returns a Tracker whose poll loops live until ctx is done or
// Close is called.
func NewTracker(ctx context.Context, backend Backend, tokens api.TokenSource, opts Options) *Tracker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.ListSize <= 0 {
		opts.ListSize = defaultListSize
	}
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	return &Tracker{
		backend: backend,
		tokens:  tokens,
		opts:    opts,
		ctx:     gctx,
		cancel:  cancel,
		group:   group,
		polling: make(map[string]struct{}),
		changes: make(chan struct{}, 1),
	}
}

// Select chooses the file to upload. Only a single existing regular file
// with a .csv extension is accepted.
func (t *Tracker) Select(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return fmt.Errorf("%w: %s", ErrNotCSV, filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("select file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotCSV, filepath.Base(path))
	}
	t.mu.Lock()
	t.selected = path
	t.mu.Unlock()
	return nil
}

// Selected returns the selected path, or "" when none is selected.
func (t *Tracker) Selected() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selected
}

// ClearSelection drops the selected file.
func (t *Tracker) ClearSelection() {
	t.mu.Lock()
	t.selected = ""
	t.mu.Unlock()
}

// Submit uploads the selected file. Without a file or a session it returns
// ErrNoFile or ErrNoSession and sends nothing. On success the new job is
// listed first, the selection is cleared and the job is polled after one
// interval.
func (t *Tracker) Submit(ctx context.Context) (api.UploadJob, error) {
	path := t.Selected()
	if path == "" {
		slog.Warn("upload skipped", "reason", "no file selected")
		return api.UploadJob{}, ErrNoFile
	}
	if t.tokens == nil || strings.TrimSpace(t.tokens.Token()) == "" {
		slog.Warn("upload skipped", "reason", "no session token", "file", path)
		return api.UploadJob{}, ErrNoSession
	}

	file, err := os.Open(path)
	if err != nil {
		return api.UploadJob{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	job, err := t.backend.UploadCSV(ctx, filepath.Base(path), file)
	if err != nil {
		return api.UploadJob{}, err
	}
	slog.Info("csv uploaded", "job_id", job.ID, "filename", job.Filename)

	t.store.Upsert(job)
	t.ClearSelection()
	t.notify()
	t.startPolling(job.ID)
	return job, nil
}

// Load fetches the job list once, replacing what is shown, and starts
// polling every job that is not finished.
func (t *Tracker) Load(ctx context.Context) error {
	jobs, err := t.backend.ListUploads(ctx, t.opts.ListSize)
	if err != nil {
		t.store.RecordError(err)
		t.notify()
		return err
	}
	t.store.Replace(jobs)
	t.notify()
	for _, job := range jobs {
		if !job.Status.Terminal() {
			t.startPolling(job.ID)
		}
	}
	return nil
}

// Refresh fetches one job now. If it is still running and not already being
// polled, a poll loop is started for it.
func (t *Tracker) Refresh(ctx context.Context, id string) (api.UploadJob, error) {
	job, err := t.backend.GetUpload(ctx, id)
	if err != nil {
		t.store.RecordError(err)
		t.notify()
		return api.UploadJob{}, err
	}
	t.store.Upsert(job)
	t.notify()
	if !job.Status.Terminal() {
		t.startPolling(job.ID)
	}
	return job, nil
}

// Jobs returns the known jobs, newest first.
func (t *Tracker) Jobs() []api.UploadJob {
	return t.store.Snapshot().Jobs
}

// Snapshot returns the jobs with fetch health.
func (t *Tracker) Snapshot() state.Snapshot {
	return t.store.Snapshot()
}

// Changes signals after every store update. Signals coalesce; the channel is
// closed by Close.
func (t *Tracker) Changes() <-chan struct{} {
	return t.changes
}

// Polling reports whether a poll loop is running for id.
func (t *Tracker) Polling(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.polling[id]
	return ok
}

// ActivePolls returns how many poll loops are running.
func (t *Tracker) ActivePolls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.polling)
}

// Close cancels every poll loop and waits for them to return.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	t.cancel()
	_ = t.group.Wait()

	t.mu.Lock()
	close(t.changes)
	t.mu.Unlock()
}

func (t *Tracker) startPolling(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	if _, ok := t.polling[id]; ok {
		return false
	}
	t.polling[id] = struct{}{}
	t.group.Go(func() error {
		defer t.stopPolling(id)
		t.poll(id)
		return nil
	})
	return true
}

func (t *Tracker) stopPolling(id string) {
	t.mu.Lock()
	delete(t.polling, id)
	t.mu.Unlock()
}

// poll waits one interval, fetches the job and repeats until the job is
// terminal, the session is gone, or the tracker is closed. Fetch errors are
// recorded and polling continues at the same pace.
func (t *Tracker) poll(id string) {
	timer := time.NewTimer(t.opts.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-timer.C:
		}

		job, err := t.backend.GetUpload(t.ctx, id)
		switch {
		case err != nil && t.ctx.Err() != nil:
			return
		case err != nil:
			slog.Warn("poll upload status failed", "job_id", id, "error", err)
			t.store.RecordError(err)
			t.notify()
			if api.IsUnauthorized(err) || errors.Is(err, api.ErrNoToken) {
				return
			}
		default:
			t.store.Upsert(job)
			t.notify()
			if job.Status.Terminal() {
				slog.Info("upload finished", "job_id", id, "status", job.Status, "progress", job.Progress)
				return
			}
		}
		timer.Reset(t.opts.PollInterval)
	}
}

func (t *Tracker) notify() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.changes <- struct{}{}:
	default:
	}
}
