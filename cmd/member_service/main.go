package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	memberAPI "github.com/ridloal/gym-membership-service/internal/member/api"
	memberRepo "github.com/ridloal/gym-membership-service/internal/member/repository"
	memberService "github.com/ridloal/gym-membership-service/internal/member/service"
	"github.com/ridloal/gym-membership-service/internal/platform/config"
	"github.com/ridloal/gym-membership-service/internal/platform/database"
	"github.com/ridloal/gym-membership-service/internal/platform/logger"
	"github.com/ridloal/gym-membership-service/internal/platform/metrics"
	"github.com/ridloal/gym-membership-service/internal/platform/middleware"
	"github.com/ridloal/gym-membership-service/internal/platform/telemetry"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Member Service exited with error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load Config
	cfg, err := config.Load("8081") // Member service default port 8081
	if err != nil {
		return err
	}

	// Setup Logger
	logger.Setup(os.Stdout, cfg.LogLevel)
	logger.Info("Starting Member Service...", "timezone", cfg.Location.String(), "db_driver", cfg.DB.Driver)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error("Failed to flush traces", err)
		}
	}()

	if cfg.DB.MigrateOnStart {
		if err := database.Migrate(cfg.DB.DSN, "up"); err != nil {
			return err
		}
		logger.Info("Database migrations applied")
	}

	// Setup Database
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	// Setup Dependencies
	m := metrics.New("member_service")
	repo := memberRepo.NewPostgresMemberRepository(db)
	svc := memberService.NewMemberService(repo,
		memberService.WithLocation(cfg.Location),
		memberService.WithCheckInRecorder(m),
	)
	memberHandler := memberAPI.NewMemberHandler(svc)

	// Setup Gin Router
	router := gin.New()
	// Metrics sit outside Recovery so recovered panics are counted as 500s.
	router.Use(middleware.RequestID(), middleware.AccessLog(), m.Middleware(), middleware.Recovery())
	router.GET("/healthz", memberAPI.Health(repo))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Group routes under /api/v1
	apiV1 := router.Group("/api/v1")
	memberHandler.RegisterRoutes(apiV1, middleware.RateLimit(cfg.CheckIn.RatePerMinute, cfg.CheckIn.Burst))

	server := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Member Service running on port " + cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down Member Service...")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(sctx)
}
