package messagepipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// StreamingService drains a MessageConsumer with a fixed pool of workers and
// hands every message to a MessageHandler.
type StreamingService struct {
	numWorkers int
	consumer   MessageConsumer
	handler    MessageHandler
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

// StreamingServiceConfig holds configuration for a StreamingService.
type StreamingServiceConfig struct {
	NumWorkers int
}

// NewStreamingService creates a new StreamingService.
func NewStreamingService(
	cfg StreamingServiceConfig,
	consumer MessageConsumer,
	handler MessageHandler,
	logger zerolog.Logger,
) (*StreamingService, error) {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 5
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer cannot be nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	return &StreamingService{
		numWorkers: cfg.NumWorkers,
		consumer:   consumer,
		handler:    handler,
		logger:     logger.With().Str("component", "StreamingService").Logger(),
	}, nil
}

// Start spawns the worker pool. It does not open the consumer; delivery is
// controlled separately by the duty cycle.
func (s *StreamingService) Start(ctx context.Context) error {
	s.logger.Info().Int("worker_count", s.numWorkers).Msg("Starting processing workers...")
	s.wg.Add(s.numWorkers)
	for i := 0; i < s.numWorkers; i++ {
		go s.worker(ctx, i)
	}
	return nil
}

// Stop waits for all workers to finish. Workers exit once the consumer's
// channel is closed or the Start context is cancelled.
func (s *StreamingService) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping streaming service...")

	workerDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(workerDone)
	}()

	select {
	case <-workerDone:
		s.logger.Info().Msg("All processing workers completed gracefully.")
	case <-ctx.Done():
		s.logger.Error().Err(ctx.Err()).Msg("Timeout waiting for processing workers to finish.")
		return ctx.Err()
	}
	return nil
}

func (s *StreamingService) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()
	s.logger.Debug().Int("worker_id", workerID).Msg("Processing worker started.")
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Int("worker_id", workerID).Msg("Processing worker shutting down due to context cancellation.")
			return
		case msg, ok := <-s.consumer.Messages():
			if !ok {
				s.logger.Debug().Int("worker_id", workerID).Msg("Consumer channel closed, worker exiting.")
				return
			}
			s.handle(ctx, msg, workerID)
		}
	}
}

func (s *StreamingService) handle(ctx context.Context, msg Message, workerID int) {
	err := s.handler(ctx, msg)
	if err == nil {
		return
	}
	if msg.Settled() {
		s.logger.Error().Err(err).Int("worker_id", workerID).Str("msg_id", msg.ID).Msg("Handler failed after settling message.")
		return
	}
	s.logger.Error().Err(err).Int("worker_id", workerID).Str("msg_id", msg.ID).Msg("Handler failed, Nacking.")
	if msg.Nack != nil {
		msg.Nack()
	}
}
