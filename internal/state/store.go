package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/marquee/internal/api"
)

// Snapshot represents the upload jobs known to the client.
type Snapshot struct {
	Jobs                []api.UploadJob
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // failed fetches since the last successful one
}

// IsOffline returns true when the API has been unreachable for multiple fetches.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Pending counts jobs that have not reached a terminal status.
func (s Snapshot) Pending() int {
	n := 0
	for _, job := range s.Jobs {
		if !job.Status.Terminal() {
			n++
		}
	}
	return n
}

// Store coordinates concurrent updates to the job list. Writers replace
// entries by id, so concurrent pollers for different jobs never conflict and
// the last arrival wins for a given job.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Replace swaps in a freshly fetched job list.
func (s *Store) Replace(jobs []api.UploadJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Jobs = cloneJobs(jobs)
	s.markSuccessLocked()
}

// Upsert replaces the job with the same id in place, or prepends it when the
// id is new.
func (s *Store) Upsert(job api.UploadJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.snapshot.Jobs {
		if s.snapshot.Jobs[i].ID == job.ID {
			s.snapshot.Jobs[i] = job
			replaced = true
			break
		}
	}
	if !replaced {
		jobs := make([]api.UploadJob, 0, len(s.snapshot.Jobs)+1)
		jobs = append(jobs, job)
		s.snapshot.Jobs = append(jobs, s.snapshot.Jobs...)
	}
	s.markSuccessLocked()
}

// Get returns the job with id.
func (s *Store) Get(id string) (api.UploadJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, job := range s.snapshot.Jobs {
		if job.ID == id {
			return job, true
		}
	}
	return api.UploadJob{}, false
}

// RecordError keeps the current jobs but records err for visibility.
func (s *Store) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures++
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Jobs = cloneJobs(s.snapshot.Jobs)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) markSuccessLocked() {
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

func cloneJobs(jobs []api.UploadJob) []api.UploadJob {
	if len(jobs) == 0 {
		return nil
	}
	dup := make([]api.UploadJob, len(jobs))
	copy(dup, jobs)
	return dup
}
