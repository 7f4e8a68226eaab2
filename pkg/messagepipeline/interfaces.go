package messagepipeline

import (
	"context"
	"errors"
)

// ====================================================================================
// This file defines the contracts between the subscription, the worker pool and
// the job handler.
// ====================================================================================

var (
	// ErrAlreadyOpen is returned when Open is called on a subscription that is delivering.
	ErrAlreadyOpen = errors.New("subscription is already open")
	// ErrShutdown is returned when Open is called after Shutdown.
	ErrShutdown = errors.New("subscription has been shut down")
	// ErrStillClosing is returned when Open is called before the previous
	// receive loop has returned.
	ErrStillClosing = errors.New("subscription is still closing")
)

// MessageConsumer defines a message source that can be switched on and off
// repeatedly while its output channel stays valid.
type MessageConsumer interface {
	// Messages returns the bounded queue that workers drain.
	Messages() <-chan Message
	// Open starts delivery in the background and returns immediately.
	Open(ctx context.Context) error
	// Close stops delivery and waits, bounded by ctx, for the receive loop to return.
	Close(ctx context.Context) error
	// IsOpen reports whether delivery is currently running.
	IsOpen() bool
	// Shutdown closes the subscription for good and closes the Messages channel.
	Shutdown(ctx context.Context) error
}

// MessageHandler processes a single message. The handler is responsible for
// settling the message; if it returns an error without settling, the worker Nacks.
type MessageHandler func(ctx context.Context, msg Message) error
