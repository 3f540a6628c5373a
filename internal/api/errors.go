package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoToken is returned by authenticated calls when no session token is set.
// No request is sent in that case.
var ErrNoToken = errors.New("not logged in")

// ErrEmptyUpload is returned when the upload endpoint answers 2xx without a job record.
var ErrEmptyUpload = errors.New("upload response carried no job")

const maxErrorBody = 200

// Error is a non-2xx answer from the API.
type Error struct {
	Status    int
	Message   string
	Path      string
	RequestID string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
}

// newError extracts the server message from body. The backend is not
// consistent about the shape: auth failures use {"error"}, login failures
// use {"message"}, and some validation failures are plain text.
func newError(status int, path, requestID string, body []byte) *Error {
	e := &Error{Status: status, Path: path, RequestID: requestID}

	var payload struct {
		Error   any `json:"error"`
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = firstNonEmpty(stringify(payload.Error), stringify(payload.Message))
		return e
	}

	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "<") {
		// HTML error pages carry nothing worth showing.
		return e
	}
	if runes := []rune(text); len(runes) > maxErrorBody {
		text = string(runes[:maxErrorBody]) + "..."
	}
	e.Message = text
	return e
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// ErrorMessage returns the server-supplied message carried by err, or
// fallback when there is none.
func ErrorMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
