package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Text is a string field that tolerates numbers and null on the wire. The
// catalogue is loaded from arbitrary CSV files, so columns such as
// release_year arrive as numbers, floats, or strings depending on the upload.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*t = Text(data)
		return nil
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		*t = Text(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*t = Text(n.String())
	return nil
}

// String returns the trimmed value.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// Movie mirrors a catalogue record from /api/movies/list/.
type Movie struct {
	ID          string `json:"_id"`
	ShowID      Text   `json:"show_id"`
	Type        Text   `json:"type"`
	Title       Text   `json:"title"`
	Director    Text   `json:"director"`
	Cast        Text   `json:"cast"`
	Country     Text   `json:"country"`
	DateAdded   Text   `json:"date_added"`
	ReleaseYear Text   `json:"release_year"`
	Rating      Text   `json:"rating"`
	Duration    Text   `json:"duration"`
	ListedIn    Text   `json:"listed_in"`
	Description Text   `json:"description"`
}

// MoviePage is one page of the movie listing.
type MoviePage struct {
	Data       []Movie `json:"data"`
	TotalCount *int    `json:"total_count"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	Skip       int     `json:"skip"`
}

// MovieQuery configures /api/movies/list/ requests.
type MovieQuery struct {
	Page       int
	PageSize   int
	SortKey    string
	SortValue  int // 1 ascending, -1 descending
	TotalCount bool

	// SearchTerm is matched case-insensitively against SearchKey. The server
	// ignores the pair unless both are set and the key is searchable.
	SearchKey  string
	SearchTerm string
}

// JobStatus is the server-side processing state of an uploaded file.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusInProgress JobStatus = "in_progress"
	StatusProcessed  JobStatus = "processed"
	StatusFailed     JobStatus = "failed"
)

// Normalize lowercases and trims s so it compares equal to the Status
// constants.
func (s JobStatus) Normalize() JobStatus {
	return JobStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

// Terminal reports whether no further transition is expected. Unknown
// statuses are treated as still running so they keep being polled.
func (s JobStatus) Terminal() bool {
	switch s.Normalize() {
	case StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// UploadJob mirrors a csv_files record.
type UploadJob struct {
	ID          string    `json:"_id"`
	Filename    string    `json:"filename"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	Error       string    `json:"error,omitempty"`
	FileSize    int64     `json:"file_size,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty"`
	UpdatedAt   string    `json:"updated_at,omitempty"`
	ProcessedAt string    `json:"processed_at,omitempty"`
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (j UploadJob) ParsedUpdatedAt() time.Time {
	return parseTime(j.UpdatedAt)
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (j UploadJob) ParsedCreatedAt() time.Time {
	return parseTime(j.CreatedAt)
}

// LoginResponse mirrors /api/user/login. Token is empty on failure.
type LoginResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	Message  string `json:"message"`
}

type uploadResponse struct {
	Message string     `json:"message"`
	Data    *UploadJob `json:"data"`
}

type uploadListResponse struct {
	TotalCount *int        `json:"total_count"`
	Data       []UploadJob `json:"data"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	// Flask's jsonify renders datetimes in RFC 1123 form.
	for _, layout := range []string{http.TimeFormat, time.RFC1123Z, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
