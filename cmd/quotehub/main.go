package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/handyhub/quotehub/config"
	"github.com/handyhub/quotehub/internal/api/v1/handlers"
	"github.com/handyhub/quotehub/internal/api/v1/middleware"
	"github.com/handyhub/quotehub/internal/api/v1/routes"
	"github.com/handyhub/quotehub/internal/db"
	"github.com/handyhub/quotehub/internal/db/repos"
	"github.com/handyhub/quotehub/internal/directory"
	"github.com/handyhub/quotehub/internal/events"
	"github.com/handyhub/quotehub/internal/logger"
	"github.com/handyhub/quotehub/internal/matching"
	"github.com/handyhub/quotehub/internal/scheduler"
	"github.com/handyhub/quotehub/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "quotehub",
	Short: "QuoteHub - provider matching and quotation lifecycle service",
	Long: `QuoteHub matches service jobs to nearby providers, manages their
invitations, and runs the quotation lifecycle from submission to decision.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server, signal bridge, and expiry scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one expiry sweep over quotations and invitations, then exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return sweepOnce(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
}

func main() {
	// Missing .env is fine in containerized deployments, env vars win.
	_ = godotenv.Load()
	logger.Initialize()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

type application struct {
	bus         *events.Bus
	quotations  *services.Quotation
	invitations *services.Invitation
	metrics     *services.Metrics
	matching    *services.Matching
}

func buildApplication(ctx context.Context) (*application, error) {
	database, err := db.New(db.Options{
		Host:     config.GetEnv("DB_HOST", db.DefaultHost),
		Port:     config.GetEnvInt("DB_PORT", db.DefaultPort),
		User:     config.GetEnv("DB_USER", db.DefaultUser),
		Password: config.GetEnv("DB_PASSWORD", db.DefaultPassword),
		DBName:   config.GetEnv("DB_NAME", db.DefaultDBName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	bus, err := events.NewBus(ctx, config.GetEnv("REDIS_URL", "redis://localhost:6379/0"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	directoryClient, err := directory.NewClient(&directory.Options{
		BaseURL: config.GetEnv("DIRECTORY_SERVICE_URL", "http://localhost:8081"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build directory client: %w", err)
	}

	metricsService := services.NewMetricsService(repos.NewMetricsRepository(database))
	invitationService := services.NewInvitationService(repos.NewInvitationRepository(database), metricsService, bus)
	quotationService := services.NewQuotationService(repos.NewQuotationRepository(database), invitationService, metricsService, bus)
	matchingService := services.NewMatchingService(
		repos.NewCriteriaRepository(database),
		matching.NewMatcher(directoryClient),
		invitationService,
		quotationService,
		bus,
	)

	return &application{
		bus:         bus,
		quotations:  quotationService,
		invitations: invitationService,
		metrics:     metricsService,
		matching:    matchingService,
	}, nil
}

func serve(ctx context.Context) error {
	app, err := buildApplication(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.bus.Close() }()

	bridge := events.NewBridge(app.bus, app.matching)
	go func() {
		if err := bridge.Run(ctx); err != nil {
			logger.Fatalf("Signal bridge stopped: %v", err)
		}
	}()

	sched := scheduler.New(app.quotations, app.invitations, config.GetEnvInt("SWEEP_INTERVAL_MINUTES", 5))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	server := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	server.Use(middleware.Logger())

	auth := middleware.Auth(middleware.AuthOptions{
		ValidateURL: config.GetEnv("AUTH_SERVICE_URL", "http://localhost:8082") + "/auth/validate",
	})
	routes.RegisterRoutes(
		server,
		auth,
		handlers.NewQuotationHandler(app.quotations),
		handlers.NewInvitationHandler(app.invitations),
		handlers.NewMetricsHandler(app.metrics),
	)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down API server")
		_ = server.ShutdownWithTimeout(10 * time.Second)
	}()

	port := config.GetEnv("PORT", routes.DefaultPort)
	logger.Infof("QuoteHub listening on port %s", port)
	return server.Listen(":" + port)
}

func sweepOnce(ctx context.Context) error {
	app, err := buildApplication(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = app.bus.Close() }()

	now := time.Now().UTC()
	quotes, err := app.quotations.ExpireSweep(ctx, now)
	if err != nil {
		return err
	}
	invites, err := app.invitations.ExpireSweep(ctx, now)
	if err != nil {
		return err
	}
	logger.Infof("Sweep complete: %d quotations and %d invitations expired", quotes, invites)
	return nil
}
