// Package ledger records the processing outcome of each consumed message so
// that operators can trace what happened to a given job.
package ledger

import (
	"context"
	"errors"
	"io"
	"time"
)

// Status is the terminal state of a message.
type Status string

const (
	// StatusPersisted means the payload (and attributes, if any) were written.
	StatusPersisted Status = "persisted"
	// StatusRejected means the message content was invalid and it was dropped.
	StatusRejected Status = "rejected"
)

// ErrNotFound is returned by Lookup when no outcome exists for a message ID.
var ErrNotFound = errors.New("outcome not found in ledger")

// Outcome describes what happened to one message.
type Outcome struct {
	MessageID   string    `json:"messageId" firestore:"messageId"`
	Status      Status    `json:"status" firestore:"status"`
	Reason      string    `json:"reason,omitempty" firestore:"reason,omitempty"`
	PublishTime time.Time `json:"publishTime" firestore:"publishTime"`
	ProcessedAt time.Time `json:"processedAt" firestore:"processedAt"`
}

// Ledger stores outcomes keyed by message ID.
type Ledger interface {
	// Record stores or overwrites the outcome for o.MessageID.
	Record(ctx context.Context, o Outcome) error
	// Lookup returns the outcome for a message ID, or ErrNotFound.
	Lookup(ctx context.Context, messageID string) (Outcome, error)
	// Closer is included for implementations that manage network connections.
	io.Closer
}

// NoopLedger discards every outcome.
type NoopLedger struct{}

func (NoopLedger) Record(context.Context, Outcome) error { return nil }

func (NoopLedger) Lookup(context.Context, string) (Outcome, error) {
	return Outcome{}, ErrNotFound
}

func (NoopLedger) Close() error { return nil }
