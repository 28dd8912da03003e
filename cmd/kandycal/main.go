package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/automaxprocs/maxprocs"

	"kandycal/internal/capture"
	"kandycal/internal/config"
	"kandycal/internal/feed"
	"kandycal/internal/web"

	appLog "kandycal/internal/log"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   bool
	debug      bool
}

func main() {
	flags := parseFlags()

	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("kandycal starting", "version", "0.1.0")

	if _, err := maxprocs.Set(); err != nil {
		appLog.Error("failed to set GOMAXPROCS", err)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"sheet_configured", conf.SheetID != "",
		"horizon_days", conf.HorizonDays,
		"capture_enabled", conf.Capture.Enabled,
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

	loader := feed.NewLoader()

	if flags.once {
		runOnce(ctx, conf, loader)
		return
	}

	if flags.snapshot {
		if err := captureCard(ctx, conf); err != nil {
			appLog.Error("capture failed", err)
			os.Exit(1)
		}
		return
	}

	server := web.NewServer(conf, loader)

	// Initial load; a failure is logged and surfaced through the API, not
	// fatal, so the site still serves its static pages.
	if err := server.Refresh(ctx); err != nil {
		appLog.Error("initial feed load failed", err)
	}

	// Background refresh keeps the serving cache warm. The feed loader
	// itself stays fetch-once-per-call.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(conf.RefreshCron, func() {
		if err := server.Refresh(ctx); err != nil {
			return
		}
		if conf.Capture.Enabled {
			if err := captureCard(ctx, conf); err != nil {
				appLog.Error("card capture failed", err)
			}
		}
	})
	if err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:              conf.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}

	appLog.Info("kandycal exiting")
}

// runOnce fetches the feed a single time and dumps the events as JSON to
// stdout. Useful for verifying sheet configuration.
func runOnce(ctx context.Context, conf *config.Config, loader *feed.Loader) {
	events, err := loader.Load(ctx, conf.SheetID, conf.SheetGID)
	if err != nil {
		appLog.Error("feed load failed", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		appLog.Error("failed to encode events", err)
		os.Exit(1)
	}
}

func captureCard(ctx context.Context, conf *config.Config) error {
	url := conf.Capture.URL
	if url == "" {
		url = "http://" + conf.Listen + "/"
	}
	return capture.CaptureCardPNG(ctx, capture.CardOptions{
		URL:        url,
		OutputPath: conf.Capture.OutputPath,
		Width:      conf.Capture.Width,
		Height:     conf.Capture.Height,
	})
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Fetch the events feed once, print it as JSON, and exit")
	flag.BoolVar(&cfg.snapshot, "capture", false, "Capture the social card PNG once and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
