// Package apitest is an in-memory implementation of the catalogue API. Tests
// run clients against it through httptest, and cmd/marquee-mock serves it for
// local demos.
package apitest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/marquee/internal/api"
)

const (
	defaultPageSize  = 100
	defaultChunkSize = 100
)

// Low cost keeps per-test setup fast.
var hashCost = bcrypt.MinCost

type movieRecord struct {
	movie api.Movie
	seq   int // insertion order, stands in for created_at
}

// Backend holds users, tokens, movies and upload jobs.
type Backend struct {
	mu      sync.Mutex
	users   map[string][]byte
	tokens  map[string]string
	movies  []movieRecord
	jobs    []*api.UploadJob // newest first
	files   map[string][]byte
	hits    map[string]int
	nextSeq int

	autoProcess bool
	stepDelay   time.Duration
	chunkSize   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Backend.
type Option func(*Backend) error

// WithUser adds a user with a bcrypt-hashed password.
func WithUser(username, password string) Option {
	return func(b *Backend) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		b.users[username] = hash
		return nil
	}
}

// WithMovies preloads the catalogue.
func WithMovies(movies []api.Movie) Option {
	return func(b *Backend) error {
		for _, m := range movies {
			b.addMovieLocked(m)
		}
		return nil
	}
}

// WithAutoProcess ingests every uploaded file in the background, pausing
// step between chunks so pollers can observe intermediate progress.
func WithAutoProcess(step time.Duration) Option {
	return func(b *Backend) error {
		b.autoProcess = true
		b.stepDelay = step
		return nil
	}
}

// WithChunkSize sets how many rows are ingested between progress updates.
func WithChunkSize(n int) Option {
	return func(b *Backend) error {
		if n <= 0 {
			return fmt.Errorf("chunk size must be positive")
		}
		b.chunkSize = n
		return nil
	}
}

// New builds a Backend seeded with the admin/admin account.
func New(opts ...Option) (*Backend, error) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Backend{
		users:     make(map[string][]byte),
		tokens:    make(map[string]string),
		files:     make(map[string][]byte),
		hits:      make(map[string]int),
		chunkSize: defaultChunkSize,
		ctx:       ctx,
		cancel:    cancel,
	}
	opts = append([]Option{WithUser("admin", "admin")}, opts...)
	for _, opt := range opts {
		if err := opt(b); err != nil {
			cancel()
			return nil, err
		}
	}
	return b, nil
}

// NewServer starts an httptest server for b and stops both when the test ends.
func NewServer(t testing.TB, opts ...Option) (*Backend, *httptest.Server) {
	t.Helper()
	b, err := New(opts...)
	if err != nil {
		t.Fatalf("apitest.New: %v", err)
	}
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(func() {
		srv.Close()
		b.Close()
	})
	return b, srv
}

// Close stops background processing and waits for it.
func (b *Backend) Close() {
	b.cancel()
	b.wg.Wait()
}

// IssueToken returns a valid token for username without a login round trip.
func (b *Backend) IssueToken(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := uuid.NewString()
	b.tokens[token] = username
	return token
}

// RevokeTokens invalidates every issued token.
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.tokens)
}

// SetJob stores job, replacing the one with the same id or adding it as newest.
func (b *Backend) SetJob(job api.UploadJob) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.jobs {
		if existing.ID == job.ID {
			copied := job
			b.jobs[i] = &copied
			return
		}
	}
	copied := job
	b.jobs = append([]*api.UploadJob{&copied}, b.jobs...)
}

// Job returns the stored job with id.
func (b *Backend) Job(id string) (api.UploadJob, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if job := b.findJobLocked(id); job != nil {
		return *job, true
	}
	return api.UploadJob{}, false
}

// Jobs returns every stored job, newest first.
func (b *Backend) Jobs() []api.UploadJob {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]api.UploadJob, len(b.jobs))
	for i, job := range b.jobs {
		out[i] = *job
	}
	return out
}

// Hits returns how many requests were made to path.
func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

// Fetches returns how many times the job with id was fetched.
func (b *Backend) Fetches(id string) int {
	return b.Hits("/api/csv/get/" + id)
}

// MovieCount returns the catalogue size.
func (b *Backend) MovieCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.movies)
}

// LoadMoviesCSV appends the rows of a catalogue CSV and returns how many
// were added. The header must match the expected columns.
func (b *Backend) LoadMoviesCSV(r io.Reader) (int, error) {
	n := 0
	err := ingestCSV(r, 0, func(batch []api.Movie) error {
		b.mu.Lock()
		for _, m := range batch {
			b.addMovieLocked(m)
		}
		b.mu.Unlock()
		n += len(batch)
		return nil
	})
	return n, err
}

func (b *Backend) addMovieLocked(m api.Movie) {
	b.nextSeq++
	if strings.TrimSpace(m.ID) == "" {
		m.ID = uuid.NewString()
	}
	b.movies = append(b.movies, movieRecord{movie: m, seq: b.nextSeq})
}

func (b *Backend) findJobLocked(id string) *api.UploadJob {
	for _, job := range b.jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (b *Backend) updateJob(id string, fn func(job *api.UploadJob)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if job := b.findJobLocked(id); job != nil {
		fn(job)
		job.UpdatedAt = timestamp(time.Now())
	}
}

func timestamp(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
