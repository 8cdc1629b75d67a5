package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"molehill-mcp/internal/automation"
	"molehill-mcp/internal/bridge"
	"molehill-mcp/internal/config"
	"molehill-mcp/internal/control"
	"molehill-mcp/internal/panel"
	"molehill-mcp/internal/selection"
	"molehill-mcp/internal/stats"
	"molehill-mcp/internal/storage"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath, "Path to the yaml configuration")
	hostFlag := flag.String("host", "", "Host to bind to (overrides server.host)")
	portFlag := flag.Int("port", 0, "Port to listen on (overrides server.port)")
	dbFlag := flag.String("db", "", "SQLite database path, \"\" for in-memory (overrides storage.path)")
	panelFlag := flag.Bool("panel", false, "Show the terminal panel")
	autoFlag := flag.Bool("auto-harvest", false, "Check and harvest periodically (overrides automation.auto_harvest)")
	writeConfig := flag.Bool("write-config", false, "Write the effective configuration to -config and exit")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	// flags only override what was given explicitly
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Server.Host = *hostFlag
		case "port":
			cfg.Server.Port = *portFlag
		case "db":
			cfg.Storage.Path = *dbFlag
		case "auto-harvest":
			cfg.Automation.AutoHarvest = *autoFlag
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if *writeConfig {
		if err := config.Write(*configFlag, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		fmt.Println("Configuration written to", *configFlag)
		return
	}

	closeLog, err := setupLogging(cfg, *panelFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *panelFlag); err != nil {
		slog.Error("molehill-mcp stopped", "error", err)
		closeLog()
		os.Exit(1)
	}
}

// setupLogging installs the default slog logger. While the panel owns the
// terminal, logs go to the configured log file.
func setupLogging(cfg config.Config, withPanel bool) (func(), error) {
	level, err := config.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return nil, err
	}
	var out io.Writer = os.Stderr
	closeFn := func() {}
	if withPanel {
		out = io.Discard
		if cfg.Server.LogFile != "" {
			f, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			out = f
			closeFn = func() { f.Close() }
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return closeFn, nil
}

func openStorage(path string) (storage.Blobs, func(), error) {
	if path == "" {
		slog.Warn("no storage path configured, selections and statistics are kept in memory")
		return storage.NewMemory(), func() {}, nil
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

func run(ctx context.Context, cfg config.Config, withPanel bool) error {
	blobs, closeDB, err := openStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer closeDB()

	selections := selection.NewStore(blobs)
	tracker := stats.NewTracker(blobs)
	tracker.StartSession()
	defer tracker.UpdateSessionTime()

	page := bridge.New(cfg.Automation.CommandTimeout)
	runner := automation.NewRunner(page, selections, tracker, automation.Options{
		ClickDelay:  cfg.Automation.ClickDelay,
		SettleDelay: cfg.Automation.SettleDelay,
	})

	mux := http.NewServeMux()
	mux.Handle("/bridge", page)
	mux.Handle("/executor.js", bridge.ExecutorHandler())
	control.New(ctx, runner, selections, tracker, page).Register(mux)

	addr := cfg.Addr()
	srv := &http.Server{Addr: addr, Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	slog.Info("molehill-mcp listening",
		"executor", fmt.Sprintf("http://%s/executor.js", addr),
		"bridge", fmt.Sprintf("ws://%s/bridge", addr),
		"control", fmt.Sprintf("ws://%s/control", addr),
		"selections", selections.Len())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Automation.AutoHarvest {
		go runner.AutoHarvest(ctx, cfg.Automation.AutoHarvestInterval)
	}

	if withPanel {
		p := panel.New(runner, selections, tracker, page)
		page.OnEvent(p.TileEvent)
		panelErr := make(chan error, 1)
		go func() { panelErr <- p.Run(ctx) }()
		select {
		case err = <-panelErr:
		case err = <-serveErr:
		}
	} else {
		page.OnEvent(func(ev bridge.Event) {
			slog.Debug("page event", "event", ev.Name, "tile", ev.Tile.String())
		})
		select {
		case <-ctx.Done():
		case err = <-serveErr:
		}
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		slog.Warn("http shutdown", "error", serr)
	}
	slog.Info("molehill-mcp stopped")
	return err
}
