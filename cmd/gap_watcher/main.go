package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gapwatch/internal/analysis"
	"gapwatch/internal/config"
	"gapwatch/internal/history"
	"gapwatch/internal/journal"
	"gapwatch/internal/logger"
	"gapwatch/internal/market"
	"gapwatch/internal/metrics"
	"gapwatch/internal/notify"
	"gapwatch/internal/strategy"
	"gapwatch/internal/timing"
)

const LogFile = "gap_watcher.log"

func main() {
	cfg := config.Load()
	logger.Setup(LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr)
		log.Printf("Metrics endpoint listening on %s", cfg.MetricsAddr)
	}

	// Market data: one store shared by both channels, streaming preferred.
	catalog := market.DefaultCatalog()
	store := market.NewQuoteStore()
	stream := market.NewStreamingChannel(cfg.Stream, cfg.Venue.WebsocketURL,
		cfg.Venue.ClientID, cfg.Venue.AccessToken, catalog, store)
	poll := market.NewPollingChannel(cfg.Poll, cfg.Venue.APIBaseURL,
		cfg.Venue.ClientID, cfg.Venue.AccessToken, catalog, store)
	gateway := market.NewGateway(stream, poll)

	gate := timing.NewService(cfg.Trading)
	evaluator := analysis.NewEvaluator(history.NewAlpacaProvider(), gate)
	tradeLog := journal.MustWriter(cfg.JournalFile)
	defer tradeLog.Close()
	webhook := notify.NewWebhook(cfg.WebhookURL)

	engine := strategy.New(cfg, gateway, evaluator, gate, tradeLog, webhook)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutdown signal received")
		cancel()
	}()

	if err := engine.Start(); err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	log.Println("Gap watcher initialized")

	engine.Run(ctx)

	summary := engine.Summary()
	log.Printf("Session summary: %d open | daily P&L %s | unrealized %s | total P&L %s | fallback=%v",
		len(summary.OpenPositions), summary.DailyPnL.StringFixed(2),
		summary.Unrealized.StringFixed(2), summary.TotalPnL.StringFixed(2), summary.Fallback)
	for _, pos := range summary.OpenPositions {
		log.Printf("  still open: %s x%d @ %s (stop %s, target %s)",
			pos.Symbol, pos.Quantity, pos.EntryPrice.StringFixed(2),
			pos.StopLoss.StringFixed(2), pos.TargetPrice.StringFixed(2))
	}
	_ = webhook.Send("SHUTDOWN", "gap watcher stopped")
}
