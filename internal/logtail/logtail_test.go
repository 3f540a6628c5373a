package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Level
	}{
		{"empty", "", LevelUnknown},
		{"info", `time=2025-10-08T21:01:05.000Z level=INFO msg="movies loaded" page=1`, LevelInfo},
		{"error", `time=2025-10-08T21:01:05.000Z level=ERROR msg="request failed" status=401`, LevelError},
		{"warn offset", `time=x level=WARN+2 msg=slow`, LevelWarn},
		{"debug lowercase", `level=debug msg=x`, LevelDebug},
		{"no level field", `plain text line`, LevelUnknown},
		{"unknown value", `level=TRACE msg=x`, LevelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		"level=DEBUG msg=a",
		"level=INFO msg=b",
		"continuation",
		"level=ERROR msg=c",
	}

	got := Filter(lines, LevelWarn)
	want := []string{"continuation", "level=ERROR msg=c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Filter(warn) = %v, want %v", got, want)
	}
	if got := Filter(lines, LevelDebug); len(got) != len(lines) {
		t.Fatalf("Filter(debug) dropped lines: %v", got)
	}
}
