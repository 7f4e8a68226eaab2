package ledger

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryLedger is a thread-safe, in-memory Ledger.
// It is primarily intended for local development and testing.
type InMemoryLedger struct {
	mu   sync.RWMutex
	data map[string]Outcome
}

// NewInMemoryLedger creates an empty in-memory ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		data: make(map[string]Outcome),
	}
}

// Record stores the outcome.
func (l *InMemoryLedger) Record(_ context.Context, o Outcome) error {
	if o.MessageID == "" {
		return fmt.Errorf("outcome has no message id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[o.MessageID] = o
	return nil
}

// Lookup retrieves an outcome by message ID.
func (l *InMemoryLedger) Lookup(_ context.Context, messageID string) (Outcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	o, ok := l.data[messageID]
	if !ok {
		return Outcome{}, fmt.Errorf("message '%s': %w", messageID, ErrNotFound)
	}
	return o, nil
}

// Len returns the number of recorded outcomes.
func (l *InMemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.data)
}

// Close is a no-op for the in-memory implementation.
func (l *InMemoryLedger) Close() error {
	return nil
}
