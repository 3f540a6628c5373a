// Package api provides an HTTP client for the movie catalogue backend.
//
// # Overview
//
// The backend exposes login, a paginated movie listing, and a CSV ingestion
// pipeline whose jobs are processed asynchronously. This package wraps those
// endpoints with typed requests and responses; it holds no state beyond the
// base URL and a TokenSource.
//
// # Endpoints
//
//	POST /api/user/login            {username, password} -> {token} | {message}
//	GET  /api/movies/list/          page, page_size, sort_key, sort_value, total_count
//	POST /api/csv/upload            multipart: file, filename -> {data: job}
//	GET  /api/csv/list/             page_size -> {data: [job]}
//	GET  /api/csv/get/{id}          -> job
//
// Every request carries a fresh X-Request-ID. Authenticated requests carry
// "Authorization: Bearer <token>" taken from the TokenSource at send time, so
// a login or logout is visible to the very next call. When the source has no
// token the call fails with ErrNoToken and nothing is sent.
//
// # Errors
//
// Non-2xx responses become *Error. The backend is inconsistent about where it
// puts the explanation, so the message is taken from the JSON "error" field,
// then "message", then the plain-text body. Callers use ErrorMessage to pick
// it up with a fallback and IsUnauthorized to detect an expired session.
//
// Failures are logged through log/slog (with the request id) before being
// returned unchanged. There are no retries; callers bound each call with a
// context.
package api
