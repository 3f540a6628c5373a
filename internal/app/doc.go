// Package app is the composition root of marquee.
//
// Run loads the TOML config (with .env and environment overrides), routes
// log/slog to the log file, opens the session file, builds the API client
// and hands everything to the Bubble Tea UI. It blocks until the user quits
// or the context is cancelled.
//
// Fatal errors (returned from Run):
//   - Config file unreadable or invalid
//   - Log file or session file cannot be opened
//   - Server URL cannot be parsed
//
// Everything after startup, including an unreachable server, is reported
// inside the UI and logged.
package app
