// Package state holds the upload jobs shared between per-job pollers and the UI.
//
// # Overview
//
// Each upload job in flight is polled by its own goroutine. Those goroutines
// write into a single Store, and the UI reads copies of it when rendering:
//
//	Pollers (one per job):          UI:
//	┌────────────────────┐         ┌──────────────────┐
//	│ GetUpload(id)      │         │                  │
//	│      ↓             │         │                  │
//	│ store.Upsert(job)  │────────→│ store.Snapshot() │
//	│      ↓             │ (mutex) │      ↓           │
//	│ stop when terminal │         │  render table    │
//	└────────────────────┘         └──────────────────┘
//
// # Semantics
//
// Upsert replaces an entry by id in place, so updates for different jobs
// never clobber each other and the most recent response for a job wins. Jobs
// the client has not seen before are prepended, matching the newest-first
// order of the upload list.
//
// RecordError keeps the last known jobs and increments ConsecutiveFailures;
// any successful write resets it. IsOffline reports two or more failures in
// a row.
//
// Snapshot returns a copy, so callers may mutate the result freely.
package state
