package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Level is the severity parsed from a log line.
type Level int

const (
	LevelUnknown Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return ""
}

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// ParseLevel extracts the level from a slog text handler line
// (`time=... level=INFO msg=...`). Levels with offsets such as WARN+2 map to
// their base level.
func ParseLevel(line string) Level {
	for _, field := range strings.Fields(line) {
		value, ok := strings.CutPrefix(field, "level=")
		if !ok {
			continue
		}
		if i := strings.IndexAny(value, "+-"); i > 0 {
			value = value[:i]
		}
		switch strings.ToUpper(value) {
		case "DEBUG":
			return LevelDebug
		case "INFO":
			return LevelInfo
		case "WARN", "WARNING":
			return LevelWarn
		case "ERROR":
			return LevelError
		}
		return LevelUnknown
	}
	return LevelUnknown
}

// Filter keeps lines at or above min. Lines without a level are kept so
// multi-line entries stay readable.
func Filter(lines []string, min Level) []string {
	if min <= LevelDebug {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		level := ParseLevel(line)
		if level == LevelUnknown || level >= min {
			out = append(out, line)
		}
	}
	return out
}
