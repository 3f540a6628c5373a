package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutUpdatedWidth is the minimum width to show job timestamps.
	LayoutUpdatedWidth = 120
)

// Chrome rows around the content box: header, command bar and status line.
const chromeHeight = 3

// Diagnostics limits.
const (
	// LogTailLines is how many log lines the diagnostics view keeps.
	LogTailLines = 1000

	// LogRefreshInterval is the minimum time between log file reads.
	LogRefreshInterval = 2 * time.Second
)

// Timing constants.
const (
	// FetchTimeout bounds login, movie list and job list requests.
	FetchTimeout = 15 * time.Second

	// UploadTimeout bounds a CSV upload, which streams the whole file.
	UploadTimeout = 5 * time.Minute

	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
