// Package route decides which view the user actually sees.
package route

import "strings"

// Route names a top-level view.
type Route string

const (
	Root        Route = "/"
	Login       Route = "/login"
	Movies      Route = "/movie_list"
	Upload      Route = "/upload"
	Diagnostics Route = "/diagnostics"
)

// Protected reports whether r requires a session.
func (r Route) Protected() bool {
	switch r {
	case Movies, Upload:
		return true
	}
	return false
}

// Title is the label shown in the navigation bar.
func (r Route) Title() string {
	switch r {
	case Login:
		return "Login"
	case Movies:
		return "Movie List"
	case Upload:
		return "Upload CSV"
	case Diagnostics:
		return "Diagnostics"
	}
	return strings.TrimPrefix(string(r), "/")
}

// Resolve maps a requested route to the one to render given the login state.
// Protected routes fall back to Login when logged out, Login forwards to
// Movies when already logged in, and Root and unknown routes land on
// whichever of the two applies.
func Resolve(requested Route, loggedIn bool) Route {
	switch requested {
	case Movies, Upload:
		if !loggedIn {
			return Login
		}
		return requested
	case Diagnostics:
		return Diagnostics
	case Login:
		if loggedIn {
			return Movies
		}
		return Login
	}
	if loggedIn {
		return Movies
	}
	return Login
}

// Authenticator is the slice of session state the guard needs.
type Authenticator interface {
	LoggedIn() bool
}

// Guard checks the session on every navigation.
type Guard struct {
	auth Authenticator
}

// NewGuard returns a Guard backed by auth.
func NewGuard(auth Authenticator) Guard {
	return Guard{auth: auth}
}

// Resolve is Resolve with the current login state.
func (g Guard) Resolve(requested Route) Route {
	loggedIn := g.auth != nil && g.auth.LoggedIn()
	return Resolve(requested, loggedIn)
}
