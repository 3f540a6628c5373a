package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/api"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Gruvbox" || names[2] != "Tokyo Night" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Gruvbox Tokyo Night]", names)
	}
}

func TestNextTheme(t *testing.T) {
	cases := map[string]string{
		"Nightfox":    "Gruvbox",
		"Gruvbox":     "Tokyo Night",
		"Tokyo Night": "Nightfox",
		"Unknown":     "Nightfox",
	}
	for in, want := range cases {
		if got := NextTheme(in); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestGetTheme_FallsBackToDefault(t *testing.T) {
	if got := GetTheme("Gruvbox").Name; got != "Gruvbox" {
		t.Fatalf("GetTheme(Gruvbox).Name = %q, want Gruvbox", got)
	}
	if got := GetTheme("nope").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(nope).Name = %q, want Nightfox", got)
	}
}

func TestThemes_ColourEveryJobStatus(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range []string{"pending", "in_progress", "processed", "failed"} {
			if th.StatusColors[status] == "" {
				t.Fatalf("%s: no colour for %s", name, status)
			}
		}
	}
}

func TestStatusStyle_NormalizesStatus(t *testing.T) {
	th := GetTheme("Nightfox")
	st := th.Styles()
	if got := st.StatusStyle(" FAILED ").GetBackground(); got != lipgloss.Color(th.Danger) {
		t.Fatalf("StatusStyle(FAILED) background = %v, want %v", got, th.Danger)
	}
	if got := st.StatusStyle("archived").GetBackground(); got != lipgloss.Color(th.Muted) {
		t.Fatalf("StatusStyle(archived) background = %v, want fallback %v", got, th.Muted)
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("/home/user/imports/netflix_titles_2021.csv", 20)
	if len([]rune(got)) > 20 {
		t.Fatalf("got %q (%d runes), want <=20", got, len([]rune(got)))
	}
	if got[len(got)-4:] != ".csv" {
		t.Fatalf("extension not preserved: %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("in_progress"); got != "In Progress" {
		t.Fatalf("titleCase = %q, want In Progress", got)
	}
}

func TestJobBadges_CountPresentStatuses(t *testing.T) {
	jobs := []api.UploadJob{
		{ID: "a", Status: api.StatusProcessed},
		{ID: "b", Status: api.StatusProcessed},
		{ID: "c", Status: api.StatusFailed},
	}
	badges := jobBadges(jobs, GetTheme("Nightfox").Styles())
	if len(badges) != 2 {
		t.Fatalf("badges = %d, want 2", len(badges))
	}
	if !strings.Contains(badges[0], "2 Processed") || !strings.Contains(badges[1], "1 Failed") {
		t.Fatalf("badges = %q", badges)
	}
}
