package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/marquee/internal/apitest"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:5000", "listen address")
	seed := flag.String("seed", "", "CSV file to preload into the catalogue (optional)")
	step := flag.Duration("step", 500*time.Millisecond, "pause between ingest chunks")
	chunk := flag.Int("chunk", 100, "rows ingested per progress update")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := serve(ctx, *addr, *seed, *step, *chunk); err != nil {
		fmt.Fprintf(os.Stderr, "marquee-mock: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, addr, seed string, step time.Duration, chunk int) error {
	backend, err := apitest.New(apitest.WithAutoProcess(step), apitest.WithChunkSize(chunk))
	if err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	defer backend.Close()

	if seed != "" {
		f, err := os.Open(seed)
		if err != nil {
			return fmt.Errorf("open seed: %w", err)
		}
		n, err := backend.LoadMoviesCSV(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		slog.Info("catalogue seeded", "file", seed, "movies", n)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mock server listening", "addr", addr, "user", "admin")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("mock server stopped")
	return nil
}
