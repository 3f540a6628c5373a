package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/marquee/internal/session"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		requested Route
		loggedIn  bool
		want      Route
	}{
		{"root logged out", Root, false, Login},
		{"root logged in", Root, true, Movies},
		{"movies logged out", Movies, false, Login},
		{"movies logged in", Movies, true, Movies},
		{"upload logged out", Upload, false, Login},
		{"upload logged in", Upload, true, Upload},
		{"login logged out", Login, false, Login},
		{"login logged in", Login, true, Movies},
		{"diagnostics is public", Diagnostics, false, Diagnostics},
		{"unknown logged out", Route("/nope"), false, Login},
		{"unknown logged in", Route("/nope"), true, Movies},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.requested, tt.loggedIn))
		})
	}
}

func TestGuard_LogoutRedirectsSubsequentNavigation(t *testing.T) {
	s, err := session.Open("")
	require.NoError(t, err)
	g := NewGuard(s)

	require.NoError(t, s.Set("tok"))
	assert.Equal(t, Upload, g.Resolve(Upload))

	require.NoError(t, s.Clear())
	assert.Equal(t, Login, g.Resolve(Upload))
	assert.Equal(t, Login, g.Resolve(Movies))
}

func TestGuard_NilAuthenticatorIsLoggedOut(t *testing.T) {
	assert.Equal(t, Login, NewGuard(nil).Resolve(Movies))
}

func TestProtectedAndTitle(t *testing.T) {
	assert.True(t, Movies.Protected())
	assert.True(t, Upload.Protected())
	assert.False(t, Login.Protected())
	assert.False(t, Diagnostics.Protected())
	assert.Equal(t, "Upload CSV", Upload.Title())
}
