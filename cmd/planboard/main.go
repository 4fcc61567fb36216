package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"planboard/internal/capture"
	"planboard/internal/config"
	"planboard/internal/downtime"
	appLog "planboard/internal/log"
	"planboard/internal/marker"
	"planboard/internal/planning"
	"planboard/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   bool
}

func main() {
	appLog.Info("planboard starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone, using local", err, "timezone", conf.Timezone)
		loc = time.Local
	}
	time.Local = loc

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"backend_url", conf.BackendURL,
		"refresh", conf.RefreshCron,
		"hours", fmt.Sprintf("%d-%d", conf.DayStartHour, conf.DayEndHour),
		"downtime_feeds", len(conf.Downtime),
		"once", flags.once,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	fetcher := planning.NewFetcher(filepath.Join(conf.DataDir, "http-cache"))
	backend := planning.NewClient(conf.BackendURL, fetcher)

	var feeds []downtime.Feed
	for _, d := range conf.Downtime {
		feeds = append(feeds, downtime.Feed{ID: d.ID, URL: d.URL, Name: d.Name})
	}
	loader := downtime.NewLoader(fetcher, feeds)

	markers := marker.NewDiskStore(filepath.Join(conf.DataDir, "marker"))

	server := web.NewServer(conf, backend, loader, markers, loc)

	refresh := func() {
		if err := server.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
			return
		}
		if flags.snapshot {
			err := capture.BoardPNG(ctx, capture.Options{
				URL:        "http://" + conf.Listen + "/board",
				OutputPath: server.PreviewPath(),
			})
			if err != nil {
				appLog.Error("board snapshot failed", err)
			}
		}
	}

	if flags.once {
		refresh()
		appLog.Info("single refresh done, exiting")
		return
	}

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}
	go func() {
		appLog.Info("web server listening", "addr", conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("web server failed", err)
			cancel()
		}
	}()

	// Warm the event cache once the listener is up, then follow the cron
	// schedule.
	go refresh()

	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, refresh); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()

	<-ctx.Done()

	schedCtx := sched.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("web server shutdown failed", err)
	}
	<-schedCtx.Done()

	appLog.Info("planboard exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/planboard/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh cycle and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture a board PNG after each refresh (requires Chromium)")

	flag.Parse()

	return cfg
}
