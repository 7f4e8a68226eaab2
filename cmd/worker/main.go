package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-jobsink/pkg/config"
	"github.com/illmade-knight/go-jobsink/pkg/jobsink"
	"github.com/illmade-knight/go-jobsink/pkg/logging"
	"github.com/illmade-knight/go-jobsink/pkg/messagepipeline"
	"github.com/rs/zerolog"
)

// exitConfig is returned for configuration errors (EX_CONFIG).
const exitConfig = 78

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(exitConfig)
	}

	lc, err := cfg.LoggingConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitConfig)
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, logCloser, err := logging.Setup(ctx, cfg.ServiceName, level, lc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(exitConfig)
	}
	logger = logger.With().Str("instance_id", uuid.NewString()).Logger()
	logging.BridgeGRPC(logger)

	if cfg.CredentialsFile != "" {
		if err := os.Setenv(config.CredentialsEnv, cfg.CredentialsFile); err != nil {
			logger.Error().Err(err).Msg("Failed to export credentials path")
		}
	}

	runErr := run(ctx, cfg, logger)
	if runErr != nil {
		logger.Error().Err(runErr).Msg("Worker stopped with error")
	}
	if err := logCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

// run wires the worker and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = pubsub.DetectProjectID
	}
	subCfg := &messagepipeline.GooglePubsubSubscriberConfig{
		ProjectID:              projectID,
		SubscriptionID:         cfg.Subscription.ID,
		CredentialsFile:        cfg.CredentialsFile,
		MaxOutstandingMessages: cfg.Subscription.MaxOutstandingMessages,
		NumGoroutines:          cfg.Subscription.NumGoroutines,
		QueueSize:              cfg.Subscription.QueueSize,
		VerifyExists:           cfg.Subscription.VerifyExists,
	}

	client, err := messagepipeline.NewGooglePubsubClient(ctx, subCfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	subscriber, err := messagepipeline.Subscribe(ctx, subCfg, client, logger)
	if err != nil {
		return err
	}

	outcomes, err := newLedger(ctx, cfg, projectID, logger)
	if err != nil {
		return err
	}
	defer func() { _ = outcomes.Close() }()

	handler, err := jobsink.NewJobHandler(jobsink.JobHandlerConfig{
		PayloadFile:    cfg.Output.PayloadFile,
		AttributesFile: cfg.Output.AttributesFile,
	}, outcomes, logger)
	if err != nil {
		return err
	}

	service, err := messagepipeline.NewStreamingService(
		messagepipeline.StreamingServiceConfig{NumWorkers: cfg.NumWorkers},
		subscriber,
		handler.Handle,
		logger,
	)
	if err != nil {
		return err
	}
	// Workers run on a context that outlives the duty cycle so queued
	// messages are drained after the subscription shuts down.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if err := service.Start(workerCtx); err != nil {
		return err
	}

	logger.Info().
		Str("subscription_id", cfg.Subscription.ID).
		Dur("closed_for", cfg.DutyCycle.ClosedFor).
		Dur("open_for", cfg.DutyCycle.OpenFor).
		Msg("Worker started")

	_ = messagepipeline.RunDutyCycle(ctx, subscriber, messagepipeline.DutyCycle{
		ClosedFor:    cfg.DutyCycle.ClosedFor,
		OpenFor:      cfg.DutyCycle.OpenFor,
		CloseTimeout: cfg.DutyCycle.CloseTimeout,
	}, logger)

	logger.Info().Msg("Shutting down worker...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := subscriber.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Subscriber did not shut down cleanly.")
		cancelWorkers()
	}
	if err := service.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop workers: %w", err)
	}
	logger.Info().Msg("Worker stopped.")
	return nil
}
