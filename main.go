package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"sales-bot/config"
	"sales-bot/handlers"
	"sales-bot/middleware"
	"sales-bot/services"
	"sales-bot/webhooks"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	// Initialize structured logger
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(logHandler))

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := services.InitMongoDB(ctx, cfg.MongoURI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DatabaseName)
	if err := services.CreateIndexes(ctx, db); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		// Continue anyway - upserts still work, only without the uniqueness guard
	}

	// Build services
	catalog := services.NewCatalog(db)
	conversations := services.NewConversations(db)
	synchronizer := services.NewSynchronizer(catalog)
	assistant := services.NewAssistant(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	telegram := services.NewTelegram(cfg.TelegramToken)

	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	archive := time.Duration(cfg.ArchiveDays) * 24 * time.Hour

	router := services.NewRouter(catalog, conversations, assistant, cfg.AdminTokenHash, cfg.ListLimit, retention)
	sweeper := services.NewSweeper(catalog,
		time.Duration(cfg.SweepIntervalHours)*time.Hour,
		archive,
		retention,
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("Request error", "error", err, "status", code)
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path}\n",
	}))

	// Webhook route
	webhooks.RegisterRoutes(app, router, telegram)

	// Producer ingestion routes (shared-secret protected, rate limited)
	ingestionHandler := handlers.NewIngestionHandler(synchronizer, catalog)
	ingestion := app.Group("/ingestion",
		limiter.New(limiter.Config{Max: 60, Expiration: time.Minute}),
		middleware.RequireProducerAuth(cfg.ProducerSecret),
	)
	ingestion.Post("/products", ingestionHandler.IngestProducts)
	ingestion.Post("/sales", ingestionHandler.RecordSale)

	// Status routes
	statusHandler := handlers.NewStatusHandler(catalog, retention)
	app.Get("/", statusHandler.Status)
	app.Get("/status", statusHandler.Status)

	// Run server and sweeper until a shutdown signal arrives
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper.Start(runCtx)

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		slog.Info("Server starting", "port", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
