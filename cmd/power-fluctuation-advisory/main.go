package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/power-fluctuation-advisory/internal/api/http"
	"github.com/i474232898/power-fluctuation-advisory/internal/config"
	"github.com/i474232898/power-fluctuation-advisory/internal/power"
	"github.com/i474232898/power-fluctuation-advisory/internal/power/notifiers"
	"github.com/i474232898/power-fluctuation-advisory/internal/power/sources"
	"github.com/i474232898/power-fluctuation-advisory/internal/scheduler"
	"github.com/i474232898/power-fluctuation-advisory/internal/store"
)

func main() {
	// Load configuration (.env is read by config.Load).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// In-memory report store with configured retention.
	memStore := store.NewMemoryStore(cfg.ReportMaxHistory, cfg.ReportMaxAge)

	// Alert notifiers with resilience (backoff + circuit breaker).
	var notifs []power.Notifier
	if cfg.AlertWebhookURL != "" {
		httpClient := &http.Client{
			Timeout: cfg.HTTPTimeout,
		}
		notifs = append(notifs, notifiers.NewWebhookNotifier(httpClient, cfg.AlertWebhookURL))
	} else {
		log.Println("INFO: ALERT_WEBHOOK_URL not set; advisories will not be forwarded")
	}

	service := power.NewService(memStore, cfg.Thresholds, notifs)
	defer service.Close()

	sample := sources.NewSampleSet(cfg.Thresholds.NominalVoltage, cfg.SampleSeed)

	// Scheduler that periodically drops expired reports.
	sched := scheduler.New(cfg.PurgeInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "power-fluctuation-advisory",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             cfg.MaxUploadBytes,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "power-fluctuation-advisory",
		})
	})

	httpapi.RegisterRoutes(app, service, sample)

	log.Printf("INFO: stability band %gV-%gV, nominal %gV",
		cfg.Thresholds.Band.Low, cfg.Thresholds.Band.High, cfg.Thresholds.NominalVoltage)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
