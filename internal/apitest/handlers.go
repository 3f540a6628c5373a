package apitest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/marquee/internal/api"
)

// movieSortDefaults maps sortable keys to the direction used when the
// request omits sort_value.
var movieSortDefaults = map[string]int{
	"_id":          1,
	"show_id":      1,
	"created_at":   1,
	"updated_at":   1,
	"release_year": -1,
	"duration":     -1,
	"date_added":   -1,
}

var movieSearchFields = []string{"title", "type", "director", "country", "release_year"}

// Handler returns the HTTP API.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.count)

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/login", b.login)

		r.Group(func(r chi.Router) {
			r.Use(b.requireToken)
			r.Get("/movies/list/", b.listMovies)
			r.Get("/movies/get/{id}", b.getMovie)
			r.Post("/csv/upload", b.upload)
			r.Get("/csv/list/", b.listUploads)
			r.Get("/csv/get/{id}", b.getUpload)
		})
	})
	return r
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing token"})
			return
		}
		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}
		b.mu.Lock()
		_, ok := b.tokens[fields[1]]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&creds)
	if creds.Username == "" || creds.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	hash, ok := b.users[creds.Username]
	b.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		slog.Info("login rejected", "username", creds.Username)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
		return
	}

	token := b.IssueToken(creds.Username)
	writeJSON(w, http.StatusOK, api.LoginResponse{
		Username: creds.Username,
		Token:    token,
		Message:  "Login successful",
	})
}

type pageParams struct {
	page     int
	pageSize int
	skip     int
	count    bool
}

func parsePage(r *http.Request) (pageParams, error) {
	q := r.URL.Query()
	p := pageParams{page: 1, pageSize: defaultPageSize, count: q.Get("total_count") == "true"}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, errors.New("invalid page")
		}
		p.page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, errors.New("invalid page_size")
		}
		p.pageSize = n
	}
	p.skip = (p.page - 1) * p.pageSize
	return p, nil
}

func window[T any](items []T, p pageParams) []T {
	if p.skip >= len(items) {
		return []T{}
	}
	end := min(p.skip+p.pageSize, len(items))
	return items[p.skip:end]
}

type listEnvelope struct {
	TotalCount *int `json:"total_count"`
	Data       any  `json:"data"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Skip       int  `json:"skip"`
}

func envelope(p pageParams, total int, data any) listEnvelope {
	env := listEnvelope{Data: data, Page: p.page, PageSize: p.pageSize, Skip: p.skip}
	if p.count {
		env.TotalCount = &total
	}
	return env
}

func (b *Backend) listMovies(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	q := r.URL.Query()

	b.mu.Lock()
	records := slices.Clone(b.movies)
	b.mu.Unlock()

	if key, term := q.Get("search_key"), q.Get("search_term"); term != "" && slices.Contains(movieSearchFields, key) {
		match := searchPattern(term)
		records = slices.DeleteFunc(records, func(rec movieRecord) bool {
			return !match.MatchString(movieField(rec.movie, key))
		})
	}

	key := q.Get("sort_key")
	dir, sortable := movieSortDefaults[key]
	if v := q.Get("sort_value"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			dir = n
		}
	}
	if !sortable || dir == 0 {
		key, dir = "created_at", -1
	}
	slices.SortStableFunc(records, func(a, c movieRecord) int {
		return dir * compareMovies(a, c, key)
	})

	total := len(records)
	page := window(records, p)
	data := make([]api.Movie, len(page))
	for i, rec := range page {
		data[i] = rec.movie
	}
	writeJSON(w, http.StatusOK, envelope(p, total, data))
}

// searchPattern treats term as a case-insensitive regular expression, falling
// back to a literal match when it does not compile.
func searchPattern(term string) *regexp.Regexp {
	if re, err := regexp.Compile("(?i)" + term); err == nil {
		return re
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}

func (b *Backend) getMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range b.movies {
		if rec.movie.ID == id {
			writeJSON(w, http.StatusOK, rec.movie)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{})
}

func compareMovies(a, c movieRecord, key string) int {
	switch key {
	case "_id", "created_at", "updated_at":
		return a.seq - c.seq
	case "release_year":
		x, errX := strconv.Atoi(a.movie.ReleaseYear.String())
		y, errY := strconv.Atoi(c.movie.ReleaseYear.String())
		if errX == nil && errY == nil {
			return x - y
		}
	}
	return strings.Compare(movieField(a.movie, key), movieField(c.movie, key))
}

func movieField(m api.Movie, key string) string {
	switch key {
	case "show_id":
		return m.ShowID.String()
	case "type":
		return m.Type.String()
	case "title":
		return m.Title.String()
	case "director":
		return m.Director.String()
	case "country":
		return m.Country.String()
	case "date_added":
		return m.DateAdded.String()
	case "release_year":
		return m.ReleaseYear.String()
	case "duration":
		return m.Duration.String()
	}
	return ""
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file part"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file part"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No selected file"})
		return
	}
	if !strings.HasSuffix(header.Filename, ".csv") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid file format"})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	now := timestamp(time.Now())
	job := api.UploadJob{
		ID:        strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
		Filename:  formatFileName(header.Filename),
		Status:    api.StatusPending,
		Progress:  0,
		FileSize:  int64(len(data)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	b.mu.Lock()
	b.files[job.ID] = data
	copied := job
	b.jobs = append([]*api.UploadJob{&copied}, b.jobs...)
	b.mu.Unlock()

	slog.Info("csv uploaded", "job_id", job.ID, "filename", job.Filename, "bytes", len(data))
	if b.autoProcess {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.Process(b.ctx, job.ID)
		}()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "File uploaded successfully",
		"data":    job,
	})
}

func (b *Backend) listUploads(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	jobs := b.Jobs()
	writeJSON(w, http.StatusOK, envelope(p, len(jobs), window(jobs, p)))
}

func (b *Backend) getUpload(w http.ResponseWriter, r *http.Request) {
	job, ok := b.Job(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

var (
	unsafeChars = regexp.MustCompile(`[^\w\s-]`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

// formatFileName strips unsafe characters from the base name, collapses
// whitespace to hyphens and appends a short unique suffix.
func formatFileName(name string) string {
	parts := strings.Split(name, ".")
	base, ext := parts[0], parts[len(parts)-1]
	base = unsafeChars.ReplaceAllString(base, "")
	base = spaceRuns.ReplaceAllString(base, "-")
	return base + "-" + uuid.NewString()[:8] + "." + ext
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
