// Package ui provides the Bubble Tea terminal interface for marquee.
//
// The root Model owns one state struct per view and switches between them
// through the route guard, so every navigation and every session change is
// checked against the stored token:
//
//   - Login: username and password form. A token from the server is stored
//     in the session and the movie list opens.
//   - Movie List: a page of the catalogue in a table, paged, sorted and
//     searched by the server. The sort survives restarts through prefs.
//     Enter opens the full record of the selected movie in a modal.
//   - Upload CSV: a file picker limited to .csv files above the job table.
//     Entering the view mounts an uploads.Tracker whose poll loops end when
//     the view is left.
//   - Diagnostics: the tail of marquee's own log file, coloured by level.
//
// All network calls run inside tea.Cmds with a timeout. A 401 from any view
// clears the session and lands on the login form. Upload failures raise a
// modal alert that swallows input until dismissed.
//
// # Key Bindings
//
//   - m / c / l: Movie list, upload, diagnostics
//   - ←/→ or [ ]: Previous and next page
//   - s / S: Sort by next column, flip direction
//   - / then Tab / Enter: Search, cycle search column, apply
//   - Enter: Movie details
//   - u / r / R: Upload, refresh selected job, reload job list
//   - Space / f: Follow log, cycle level filter
//   - T: Cycle theme
//   - X: Log out
//   - ?: Help
//   - e or Ctrl+C: Exit
package ui
