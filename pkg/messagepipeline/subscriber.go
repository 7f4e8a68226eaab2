package messagepipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// --- Google Cloud Pub/Sub Subscriber Implementation ---

type GooglePubsubSubscriberConfig struct {
	ProjectID              string
	SubscriptionID         string
	CredentialsFile        string // Optional
	MaxOutstandingMessages int
	NumGoroutines          int
	// QueueSize bounds the channel between the receive loop and the workers.
	QueueSize int
	// VerifyExists makes Subscribe fail fast when the subscription is missing.
	VerifyExists bool
}

// NewGooglePubsubSubscriberDefaults returns a config with sensible receive settings.
func NewGooglePubsubSubscriberDefaults(subID string) *GooglePubsubSubscriberConfig {
	return &GooglePubsubSubscriberConfig{
		SubscriptionID:         subID,
		MaxOutstandingMessages: 100,
		NumGoroutines:          5,
		QueueSize:              100,
	}
}

// NewGooglePubsubClient creates a Pub/Sub client for cfg.ProjectID, using the
// credentials file when one is configured.
func NewGooglePubsubClient(ctx context.Context, cfg *GooglePubsubSubscriberConfig, opts ...option.ClientOption) (*pubsub.Client, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client for project %s: %w", cfg.ProjectID, err)
	}
	return client, nil
}

// GooglePubsubSubscriber is a handle on one subscription. Delivery can be opened
// and closed any number of times; received messages are pushed onto a bounded
// queue that outlives each open period.
type GooglePubsubSubscriber struct {
	subscription *pubsub.Subscription
	logger       zerolog.Logger
	outputChan   chan Message

	mu            sync.Mutex
	cancelReceive context.CancelFunc
	receiveDone   chan struct{}
	shutdown      bool
}

// Subscribe returns the handle for cfg.SubscriptionID on the given client.
func Subscribe(ctx context.Context, cfg *GooglePubsubSubscriberConfig, client *pubsub.Client, logger zerolog.Logger) (*GooglePubsubSubscriber, error) {
	sub := client.Subscription(cfg.SubscriptionID)

	if cfg.VerifyExists {
		existsCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
		e, err := sub.Exists(existsCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to check subscription %s: %w", cfg.SubscriptionID, err)
		}
		if !e {
			return nil, fmt.Errorf("subscription %s does not exist", cfg.SubscriptionID)
		}
	}

	if cfg.MaxOutstandingMessages > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstandingMessages
	}
	if cfg.NumGoroutines > 0 {
		sub.ReceiveSettings.NumGoroutines = cfg.NumGoroutines
	}
	queueSize := cfg.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}

	return &GooglePubsubSubscriber{
		subscription: sub,
		logger:       logger.With().Str("component", "GooglePubsubSubscriber").Str("subscription_id", cfg.SubscriptionID).Logger(),
		outputChan:   make(chan Message, queueSize),
	}, nil
}

func (s *GooglePubsubSubscriber) Messages() <-chan Message { return s.outputChan }

// IsOpen reports whether delivery is open. It turns false as soon as Close is
// called or the receive loop exits on its own with an error.
func (s *GooglePubsubSubscriber) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelReceive != nil
}

// Open starts delivery in a background goroutine and returns immediately.
// It returns ErrStillClosing while the receive loop from an earlier open
// period has not returned yet.
func (s *GooglePubsubSubscriber) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return ErrShutdown
	}
	if s.cancelReceive != nil {
		return ErrAlreadyOpen
	}
	if s.receiveDone != nil {
		return ErrStillClosing
	}

	receiveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancelReceive = cancel
	s.receiveDone = done

	go func() {
		s.logger.Debug().Msg("Pub/Sub Receive goroutine started.")
		err := s.subscription.Receive(receiveCtx, func(_ context.Context, msg *pubsub.Message) {
			payloadCopy := make([]byte, len(msg.Data))
			copy(payloadCopy, msg.Data)

			m := NewMessage(MessageData{
				ID:          msg.ID,
				Payload:     payloadCopy,
				PublishTime: msg.PublishTime,
			}, msg.Attributes, msg.Ack, msg.Nack)

			select {
			case s.outputChan <- m:
			case <-receiveCtx.Done():
				m.Nack()
				s.logger.Warn().Str("msg_id", msg.ID).Msg("Subscription closing, Nacking queued message.")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("Pub/Sub Receive call exited with error")
		}

		s.mu.Lock()
		if s.receiveDone == done {
			s.cancelReceive = nil
			s.receiveDone = nil
		}
		s.mu.Unlock()
		cancel()
		close(done)
		s.logger.Debug().Msg("Pub/Sub Receive goroutine stopped.")
	}()
	return nil
}

// Close cancels delivery and waits, bounded by ctx, for the receive loop to
// return. Receive only returns once every message it handed out has been
// acked or nacked, so queued or in-flight messages hold Close open. On timeout
// the subscription stays in a closing state: Open fails with ErrStillClosing
// and a later Close waits again.
func (s *GooglePubsubSubscriber) Close(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancelReceive
	done := s.receiveDone
	s.cancelReceive = nil
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for pubsub receive to stop: %w", ctx.Err())
	}
}

// Shutdown closes delivery for good and closes the Messages channel so that
// workers can drain and exit.
func (s *GooglePubsubSubscriber) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return nil
	}
	s.shutdown = true
	s.mu.Unlock()

	if err := s.Close(ctx); err != nil {
		// The receive loop may still push; leaving the channel open avoids a send on a closed channel.
		return err
	}
	close(s.outputChan)
	s.logger.Info().Msg("Subscriber shut down.")
	return nil
}
