package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"PositionSentinel/internal/alert"
	"PositionSentinel/internal/collector"
	"PositionSentinel/internal/config"
	"PositionSentinel/internal/health"
	"PositionSentinel/internal/levels"
	"PositionSentinel/internal/monitor"
	"PositionSentinel/internal/notifier"
	"PositionSentinel/internal/position"
	"PositionSentinel/internal/recorder"
	"PositionSentinel/internal/regime"
	"PositionSentinel/internal/scheduler"
	sig "PositionSentinel/internal/signal"
	"PositionSentinel/internal/throttle"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PositionSentinel starting...")

	// .env first so config env overrides can see it
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		fetcher = collector.NewRestFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init collector behind the per-channel rate limiter
	limiter := throttle.NewRateLimiter(cfg.Throttle)
	col := collector.NewCollector(fetcher, limiter)

	// Init position book
	book, err := position.NewBook(cfg.Positions.File)
	if err != nil {
		log.Fatalf("[FATAL] load position book: %v", err)
	}
	log.Printf("[INFO] position book loaded: %d symbols", len(book.Symbols()))

	// Init decision components
	cls := sig.NewClassifier(cfg.Signal)
	mon := monitor.New(levels.NewCalculator(cfg.Levels), health.NewScorer(cfg.Health))
	arb := alert.NewArbiter(cfg.Alert)
	det := regime.NewDetector(col, cfg.Market.IndexSymbol, cfg.Market.RegimeOverride)

	// Init notification channels
	var channels []notifier.Notifier
	var tg *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tg = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		channels = append(channels, tg)
	}
	if cfg.Discord.WebhookURL != "" {
		channels = append(channels, notifier.NewDiscordNotifier(cfg.Discord.WebhookURL, cfg.Proxy))
	}
	var n notifier.Notifier = &notifier.MultiNotifier{Channels: channels}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
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

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, book, cls, mon, arb, det, n, rec)
	if err := sched.RegisterAll(cfg.Schedule.PollCron, cfg.Schedule.EODCron, cfg.Schedule.ResetCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram command polling when configured
	if tg != nil {
		go tg.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing poll cycle now")
		go sched.RunPollNow()
	}

	log.Println("[INFO] PositionSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] PositionSentinel stopped")
}
