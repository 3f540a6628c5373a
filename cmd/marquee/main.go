package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/marquee/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override marquee config path (optional)")
	serverURL := flag.String("server", "", "movie server base URL (optional, overrides config)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	poll := flag.Duration("poll", 0, "upload status poll interval (optional, defaults to 1s)")
	debug := flag.Bool("debug", false, "write debug entries to the log file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		ServerURL:  *serverURL,
		PrefsPath:  *prefsPath,
		Debug:      *debug,
	}
	if d := *poll; d > 0 {
		opts.PollEvery = max(d, 100*time.Millisecond)
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "marquee: %v\n", err)
		return 1
	}
	return 0
}
