package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TokenSource supplies the bearer token for authenticated requests.
// *session.Store implements it.
type TokenSource interface {
	Token() string
}

// Client talks to the movie catalogue HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
}

const (
	defaultServerURL = "http://127.0.0.1:5000"
	defaultUserAgent = "marquee/0.1"
)

// NewClient builds a Client for serverURL. tokens may be nil when only Login
// is needed.
func NewClient(serverURL string, tokens TokenSource) (*Client, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{},
		tokens:    tokens,
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalised server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Login exchanges credentials for a token. A rejected login is returned as an
// *Error whose Message is the server's explanation.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("encode login: %w", err)
	}
	var payload LoginResponse
	err = c.send(ctx, request{
		method:      http.MethodPost,
		rel:         &url.URL{Path: "/api/user/login"},
		body:        bytes.NewReader(body),
		contentType: "application/json",
	}, &payload)
	if err != nil {
		return LoginResponse{}, err
	}
	return payload, nil
}

// ListMovies retrieves one page of the catalogue.
func (c *Client) ListMovies(ctx context.Context, query MovieQuery) (MoviePage, error) {
	values := url.Values{}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(query.PageSize))
	}
	if key := strings.TrimSpace(query.SortKey); key != "" {
		values.Set("sort_key", key)
		if query.SortValue != 0 {
			values.Set("sort_value", strconv.Itoa(query.SortValue))
		}
	}
	if query.TotalCount {
		values.Set("total_count", "true")
	}
	if key, term := strings.TrimSpace(query.SearchKey), strings.TrimSpace(query.SearchTerm); key != "" && term != "" {
		values.Set("search_key", key)
		values.Set("search_term", term)
	}
	var payload MoviePage
	err := c.send(ctx, request{
		method: http.MethodGet,
		rel:    &url.URL{Path: "/api/movies/list/", RawQuery: values.Encode()},
		auth:   true,
	}, &payload)
	if err != nil {
		return MoviePage{}, err
	}
	return payload, nil
}

// GetMovie retrieves a single catalogue record by its _id.
func (c *Client) GetMovie(ctx context.Context, id string) (Movie, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Movie{}, fmt.Errorf("movie id required")
	}
	var payload Movie
	err := c.send(ctx, request{
		method: http.MethodGet,
		rel:    &url.URL{Path: "/api/movies/get/" + url.PathEscape(id)},
		auth:   true,
	}, &payload)
	if err != nil {
		return Movie{}, err
	}
	return payload, nil
}

// UploadCSV posts a CSV file as multipart form data and returns the job the
// server created for it. The body is streamed from r.
func (c *Client) UploadCSV(ctx context.Context, filename string, r io.Reader) (UploadJob, error) {
	if strings.TrimSpace(filename) == "" {
		return UploadJob{}, fmt.Errorf("filename required")
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = form.WriteField("filename", filename)
		}
		if err == nil {
			err = form.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	var payload uploadResponse
	err := c.send(ctx, request{
		method:      http.MethodPost,
		rel:         &url.URL{Path: "/api/csv/upload"},
		body:        pr,
		contentType: form.FormDataContentType(),
		auth:        true,
	}, &payload)
	_ = pr.Close()
	if err != nil {
		return UploadJob{}, err
	}
	if payload.Data == nil || payload.Data.ID == "" {
		return UploadJob{}, ErrEmptyUpload
	}
	return *payload.Data, nil
}

// ListUploads retrieves the most recent upload jobs.
func (c *Client) ListUploads(ctx context.Context, pageSize int) ([]UploadJob, error) {
	values := url.Values{}
	if pageSize > 0 {
		values.Set("page_size", strconv.Itoa(pageSize))
	}
	var payload uploadListResponse
	err := c.send(ctx, request{
		method: http.MethodGet,
		rel:    &url.URL{Path: "/api/csv/list/", RawQuery: values.Encode()},
		auth:   true,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// GetUpload retrieves a single upload job by id.
func (c *Client) GetUpload(ctx context.Context, id string) (UploadJob, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return UploadJob{}, fmt.Errorf("job id required")
	}
	var payload UploadJob
	err := c.send(ctx, request{
		method: http.MethodGet,
		rel:    &url.URL{Path: "/api/csv/get/" + url.PathEscape(id)},
		auth:   true,
	}, &payload)
	if err != nil {
		return UploadJob{}, err
	}
	return payload, nil
}

type request struct {
	method      string
	rel         *url.URL
	body        io.Reader
	contentType string
	auth        bool
}

func (c *Client) send(ctx context.Context, r request, dest any) error {
	requestID := uuid.NewString()
	err := c.exchange(ctx, r, requestID, dest)
	if err != nil {
		slog.Error("api request failed",
			"method", r.method,
			"path", r.rel.Path,
			"request_id", requestID,
			"error", err)
	}
	return err
}

func (c *Client) exchange(ctx context.Context, r request, requestID string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}

	var token string
	if r.auth {
		if c.tokens != nil {
			token = strings.TrimSpace(c.tokens.Token())
		}
		if token == "" {
			return ErrNoToken
		}
	}

	reqURL := c.baseURL.ResolveReference(r.rel)
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return newError(resp.StatusCode, r.rel.Path, requestID, body)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		trimmed = defaultServerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server url %q: missing host", serverURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
