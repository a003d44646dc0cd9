// @title Veriform API
// @version 1.0
// @description Form submissions with AI-assisted validation and human review.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"veriform/internal/config"
	"veriform/internal/handler"
	"veriform/internal/logger"
	"veriform/internal/middleware"
	"veriform/internal/queue"
	"veriform/internal/repository/postgres"
	"veriform/internal/router"
	"veriform/internal/service"
	s3storage "veriform/internal/storage/s3"
	"veriform/internal/validation"
)

const (
	shutdownTimeout    = 15 * time.Second
	dispatchStateSlack = 30 * time.Second
	rateLimitPruneTick = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	formRepo := postgres.NewFormRepo(db)
	subRepo := postgres.NewSubmissionRepo(db)
	valRepo := postgres.NewValidationRepo(db)
	attRepo := postgres.NewAttachmentRepo(db)
	reviewRepo := postgres.NewReviewRepo(db)
	cleanupRepo := postgres.NewCleanupRepo(db)

	// Initialize storage
	storage, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}
	locator := service.NewAttachmentLocator(storage, &cfg.S3)

	if cfg.Validation.WebhookURL == "" {
		logger.Warnf("validation webhook URL not set; every dispatch will fail with NETWORK_ERROR")
	}
	if cfg.Validation.CallbackToken == "" {
		logger.Warnf("validation callback token not set; callbacks will be rejected")
	}
	client := validation.NewN8NClient(&cfg.Validation)

	// Initialize services
	dispatcher := service.NewDispatcher(subRepo, valRepo, formRepo, attRepo, client, locator, cfg.Validation.CallbackURL)
	dispatchBudget := cfg.Validation.Timeout + dispatchStateSlack
	var submissionOpts []service.SubmissionServiceOption
	if cfg.Redis.Enabled {
		q, err := queue.NewAsyncQueue(&cfg.Redis, dispatchBudget)
		if err != nil {
			logger.Warnf("dispatch queue unavailable, dispatching in-process: %v", err)
		} else {
			defer q.Close()
			worker := queue.NewWorker(&cfg.Redis, dispatcher)
			if err := worker.Start(); err != nil {
				return err
			}
			defer worker.Stop()
			submissionOpts = append(submissionOpts, service.WithDispatchQueue(q))
			logger.Infof("dispatch queue enabled (redis %s)", cfg.Redis.Addr)
		}
	}
	submissionSvc := service.NewSubmissionService(subRepo, valRepo, formRepo, attRepo, reviewRepo,
		dispatcher, dispatchBudget, submissionOpts...)
	attachmentSvc := service.NewAttachmentService(subRepo, formRepo, attRepo, storage, locator, &cfg.S3)
	cleanupSvc := service.NewCleanupService(subRepo, valRepo, attRepo, cleanupRepo, storage, locator, cfg.Cleanup.UseRPC)
	poller := service.NewCompletionPoller(valRepo, submissionSvc, service.PollerConfig{
		Interval:    cfg.Validation.PollInterval,
		MaxAttempts: cfg.Validation.PollMaxAttempts,
	})
	verifier := service.NewTokenVerifier(&cfg.JWT)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sweeper.Enabled {
		sweeper := service.NewStaleValidationSweeper(valRepo, submissionSvc, service.SweeperConfig{
			Interval:   cfg.Sweeper.Interval,
			StaleAfter: cfg.Sweeper.StaleAfter,
			BatchSize:  cfg.Sweeper.BatchSize,
			Schedule:   cfg.Sweeper.Schedule,
		})
		if cfg.Sweeper.Schedule != "" {
			if err := sweeper.Schedule(ctx); err != nil {
				return err
			}
		} else {
			go sweeper.Start(ctx)
		}
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.StartPruning(rateLimitPruneTick, ctx.Done())

	r := router.Setup(verifier, router.Handlers{
		Health:     handler.NewHealthHandler(db),
		Submission: handler.NewSubmissionHandler(submissionSvc, cleanupSvc),
		Validation: handler.NewValidationHandler(submissionSvc, poller),
		Attachment: handler.NewAttachmentHandler(attachmentSvc),
	}, router.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CallbackToken:  cfg.Validation.CallbackToken,
		RateLimiter:    limiter,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting server on %s (%s)", cfg.Server.Port, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
