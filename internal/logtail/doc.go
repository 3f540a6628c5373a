// Package logtail reads the end of the client's log file for the diagnostics view.
//
// Read keeps a ring buffer of maxLines entries, so memory stays bounded no
// matter how large the file grows. A missing file is not an error; it simply
// means nothing has been logged yet.
//
// The log is written by a log/slog text handler, so lines look like:
//
//	time=2025-10-08T21:01:05.123Z level=ERROR msg="request failed" path=/api/csv/get/42 status=401
//
// ParseLevel pulls the level=... field out of such a line and Filter drops
// lines below a minimum level. The UI maps levels to theme colours; this
// package knows nothing about rendering.
package logtail
