package apitest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/five82/marquee/internal/api"
)

// catalogueHeader is the header row every uploaded CSV must carry.
var catalogueHeader = []string{
	"show_id", "type", "title", "director", "cast", "country",
	"date_added", "release_year", "rating", "duration", "listed_in", "description",
}

var errInvalidHeader = errors.New("invalid header")

// ingestCSV reads catalogue rows from r and hands them to fn in batches of
// chunkSize.
func ingestCSV(r io.Reader, chunkSize int, fn func([]api.Movie) error) error {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(catalogueHeader)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errInvalidHeader
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
			return errInvalidHeader
		}
		return fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if !slices.Equal(header, catalogueHeader) {
		return errInvalidHeader
	}

	batch := make([]api.Movie, 0, chunkSize)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		batch = append(batch, movieFromRow(row))
		if len(batch) == chunkSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]api.Movie, 0, chunkSize)
		}
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

func movieFromRow(row []string) api.Movie {
	return api.Movie{
		ShowID:      api.Text(row[0]),
		Type:        api.Text(row[1]),
		Title:       api.Text(row[2]),
		Director:    api.Text(row[3]),
		Cast:        api.Text(row[4]),
		Country:     api.Text(row[5]),
		DateAdded:   api.Text(row[6]),
		ReleaseYear: api.Text(row[7]),
		Rating:      api.Text(row[8]),
		Duration:    api.Text(row[9]),
		ListedIn:    api.Text(row[10]),
		Description: api.Text(row[11]),
	}
}

// Process ingests the stored file of job id: the job moves to in_progress,
// progress advances per chunk, and it ends processed or failed. Rows are
// added to the catalogue as they are read.
func (b *Backend) Process(ctx context.Context, id string) {
	b.mu.Lock()
	data, ok := b.files[id]
	b.mu.Unlock()
	if !ok {
		b.finish(id, "File not found")
		return
	}

	b.updateJob(id, func(job *api.UploadJob) {
		job.Status = api.StatusInProgress
	})

	processed := 0
	err := ingestCSV(bytes.NewReader(data), b.chunkSize, func(batch []api.Movie) error {
		if err := sleep(ctx, b.stepDelay); err != nil {
			return err
		}
		b.mu.Lock()
		for _, m := range batch {
			b.addMovieLocked(m)
		}
		b.mu.Unlock()
		processed += len(batch)
		b.updateJob(id, func(job *api.UploadJob) {
			job.Progress = processed
		})
		slog.Debug("csv chunk ingested", "job_id", id, "progress", processed)
		return nil
	})

	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, errInvalidHeader):
		b.finish(id, "Invalid header")
	case err != nil:
		b.finish(id, err.Error())
	default:
		b.finish(id, "")
	}
}

// finish marks the job processed, or failed with message when it is set.
func (b *Backend) finish(id, message string) {
	now := timestamp(time.Now())
	b.updateJob(id, func(job *api.UploadJob) {
		if message != "" {
			job.Status = api.StatusFailed
			job.Error = message
		} else {
			job.Status = api.StatusProcessed
		}
		job.ProcessedAt = now
	})
	slog.Info("csv processing finished", "job_id", id, "error", message)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
