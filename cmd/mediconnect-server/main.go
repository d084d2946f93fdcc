package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mediconnect/api/internal/config"
	"github.com/mediconnect/api/internal/domain/appointment"
	"github.com/mediconnect/api/internal/domain/directory"
	"github.com/mediconnect/api/internal/domain/hospital"
	"github.com/mediconnect/api/internal/domain/identity"
	"github.com/mediconnect/api/internal/domain/notification"
	"github.com/mediconnect/api/internal/domain/queue"
	"github.com/mediconnect/api/internal/platform/auth"
	"github.com/mediconnect/api/internal/platform/db"
	"github.com/mediconnect/api/internal/platform/events"
	"github.com/mediconnect/api/internal/platform/middleware"
	"github.com/mediconnect/api/internal/platform/validate"
	"github.com/mediconnect/api/internal/platform/websocket"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mediconnect-server",
		Short: "MediConnect telemedicine API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Structured JSON in production, console output everywhere else.
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if !cfg.IsProduction() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL())

	// Route groups: public endpoints need no token, everything on api does.
	public := e.Group("/api/v1")
	public.Use(middleware.RateLimit(rateLimitCfg))
	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(auth.Middleware(issuer))

	// Real-time hub. With Redis configured, events fan out across instances;
	// without it the hub alone serves local subscribers.
	hub := websocket.NewHub(logger)
	var publisher events.Publisher = hub
	var bridge *events.RedisBridge
	if cfg.RedisURL != "" {
		bridge, err = events.NewRedisBridge(cfg.RedisURL, hub, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure redis bridge")
		}
		publisher = bridge
	}

	bridgeCtx, stopBridge := context.WithCancel(ctx)
	defer stopBridge()
	if bridge != nil {
		go bridge.Run(bridgeCtx)
		logger.Info().Msg("redis event bridge running")
	}

	// Domain wiring.
	identitySvc := identity.NewService(identity.NewUserRepoPG(pool), issuer)
	identity.NewHandler(identitySvc).RegisterRoutes(public, api)

	directorySvc := directory.NewService(directory.NewDoctorRepoPG(pool), directory.NewSlotRepoPG(pool))
	directory.NewHandler(directorySvc).RegisterRoutes(public, api)

	notificationSvc := notification.NewService(notification.NewRepoPG(pool), publisher, logger)
	notification.NewHandler(notificationSvc).RegisterRoutes(api)

	appointmentSvc := appointment.NewService(appointment.NewRepoPG(pool), directorySvc, notificationSvc, publisher, logger)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(api)

	queueSvc := queue.NewService(queue.NewRepoPG(pool), directorySvc, notificationSvc, publisher, logger, cfg.AvgConsultMinutes)
	queue.NewHandler(queueSvc).RegisterRoutes(api)

	hospitalSvc := hospital.NewService(hospital.NewRepoPG(pool), logger)
	hospital.NewHandler(hospitalSvc).RegisterRoutes(public, api)

	websocket.NewHandler(hub).RegisterRoutes(api)

	e.GET("/health", db.HealthHandler(pool))

	// Start and wait for shutdown.
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		errCh <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	stopBridge()
	if bridge != nil {
		bridge.Close()
	}
	return nil
}
