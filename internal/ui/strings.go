package ui

import (
	"fmt"
	"strings"
	"time"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle shortens a string by removing characters from the middle,
// preserving both the beginning and end. For paths, it preserves file extensions.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}

	ellipsis := []rune("…/")
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}

	// Smart path truncation: preserve file extension if it looks like a path
	isPath := strings.Contains(value, "/") || strings.Contains(value, "\\")
	if isPath {
		lastDot := strings.LastIndex(value, ".")
		lastSlash := max(strings.LastIndex(value, "/"), strings.LastIndex(value, "\\"))

		// Only preserve extension if the dot comes after the last slash
		if lastDot > lastSlash && lastDot > 0 {
			ext := value[lastDot:]
			extRunes := []rune(ext)

			if len(extRunes) < 10 && len(extRunes) < limit/2 {
				baseRunes := []rune(value[:lastDot])
				baseLimit := limit - len(extRunes) - len(ellipsis)
				if baseLimit > 0 && len(baseRunes) > baseLimit {
					prefix := baseLimit / 2
					suffix := baseLimit - prefix
					return string(baseRunes[:prefix]) + string(ellipsis) + string(baseRunes[len(baseRunes)-suffix:]) + ext
				}
			}
		}
	}

	// Default middle truncation
	keep := limit - len(ellipsis)
	prefix := keep / 2
	suffix := keep - prefix
	return string(runes[:prefix]) + string(ellipsis) + string(runes[len(runes)-suffix:])
}

// titleCase converts an underscore-separated string to title case.
func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Split(value, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

// relativeTime formats t as a clock time with a coarse age suffix.
func relativeTime(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	since := now.Sub(t)
	switch {
	case since < time.Minute:
		return t.Format("15:04:05") + " (now)"
	case since < time.Hour:
		return t.Format("15:04") + fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		return t.Format("15:04") + fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return t.Format("2006-01-02 15:04")
}
