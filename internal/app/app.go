package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/marquee/internal/api"
	"github.com/five82/marquee/internal/config"
	"github.com/five82/marquee/internal/prefs"
	"github.com/five82/marquee/internal/session"
	"github.com/five82/marquee/internal/ui"
)

// Options configure the marquee application. Zero values defer to the
// config file and environment.
type Options struct {
	ConfigPath string
	ServerURL  string        // overrides the configured server
	PrefsPath  string        // empty uses default ~/.config/marquee/prefs.toml
	PollEvery  time.Duration // upload status poll interval; zero uses config
	Debug      bool
}

// Run boots the marquee TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if server := strings.TrimSpace(opts.ServerURL); server != "" {
		cfg.ServerURL = server
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}

	closeLog, err := setupLogging(cfg.LogPath, opts.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Load(prefsPath)

	sess, err := session.Open(cfg.SessionPath)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	client, err := api.NewClient(cfg.ServerURL, sess)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	slog.Info("marquee starting",
		"server", client.BaseURL(),
		"session", sess.Path(),
		"logged_in", sess.LoggedIn(),
		"page_size", cfg.PageSize,
		"poll_interval", cfg.PollInterval,
	)
	defer slog.Info("marquee stopped")

	return ui.Run(ctx, ui.Options{
		Client:    client,
		Session:   sess,
		Config:    cfg,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
	})
}

// setupLogging points the default slog logger at the log file. The terminal
// belongs to the TUI, so without a path logs are discarded.
func setupLogging(path string, debug bool) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	if strings.TrimSpace(path) == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, opts)))
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(file, opts)))
	return func() { _ = file.Close() }, nil
}
