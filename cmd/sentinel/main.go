package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/config"
	"PriceSentinel/internal/logger"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/scheduler"
	"PriceSentinel/internal/store"
	"PriceSentinel/internal/web"
)

func main() {
	log := logger.WithComponent("main")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("load .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("config validation")
	}
	if err := logger.Configure(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		log.WithError(err).Fatal("configure logger")
	}
	log = logger.WithComponent("main")
	log.Info("PriceSentinel starting...")

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Kind {
	case "quote":
		fetcher = collector.NewQuoteFetcher(cfg.DataSource.URL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewBlockworksFetcher(cfg.DataSource.URL, cfg.Proxy)
	}
	log.WithField("source", fetcher.Name()).Info("data source selected")
	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol)

	st := store.NewCSVStore(cfg.Store.Path)
	if res, err := st.ReadAll(); err != nil {
		log.WithError(err).Fatal("open observation store")
	} else {
		log.WithField("observations", len(res.Series)).WithField("skipped", res.Skipped).Info("observation store ready")
	}

	// Init notifier
	var tn *notifier.TelegramNotifier
	var n notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, st, n, rec, scheduler.Options{
		Location:  cfg.Location(),
		Precision: cfg.Store.Precision,
		Symbol:    cfg.DataSource.Symbol,
	})
	if err := sched.Register(cfg.Schedule.PollCron); err != nil {
		log.WithError(err).Fatal("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	srv := web.NewServer(sched, cfg.Location(), cfg.Store.Precision, cfg.DataSource.Symbol)
	go func() {
		if err := srv.Run(ctx, cfg.HTTP.Addr); err != nil {
			log.WithError(err).Error("dashboard server")
		}
	}()

	// Sample immediately instead of waiting for the first tick
	if os.Getenv("RUN_ON_START") != "false" {
		go sched.RunNow()
	}

	log.Info("PriceSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	cancel()
	log.Info("PriceSentinel stopped")
}
