package messagepipeline

import (
	"sync"
	"time"
)

// Message is the internal representation of a job delivered by the subscription.
// It carries the payload, broker metadata and the settlement handles.
type Message struct {
	// MessageData contains the core payload and broker identifiers.
	MessageData

	// Attributes holds the key/value metadata attached by the publisher.
	Attributes map[string]string

	// Ack signals that the message was handled and must not be redelivered.
	Ack func()

	// Nack signals that handling failed and the message should be redelivered.
	Nack func()

	settled func() bool
}

// Settled reports whether Ack or Nack has already been called on a message
// built with NewMessage. It is always false for hand-built messages.
func (m Message) Settled() bool {
	if m.settled == nil {
		return false
	}
	return m.settled()
}

// MessageData holds the essential payload of a message.
type MessageData struct {
	// ID is the unique identifier for the message from the source broker.
	ID string `json:"id"`

	// Payload is the raw byte content of the message.
	Payload []byte `json:"payload"`

	// PublishTime is the timestamp when the message was originally published.
	PublishTime time.Time `json:"publishTime"`
}

// settleOnce wraps a pair of ack/nack callbacks so that whichever is called
// first wins and every later call is ignored.
func settleOnce(ack, nack func()) (func(), func(), func() bool) {
	var once sync.Once
	var mu sync.Mutex
	settled := false
	mark := func(f func()) func() {
		return func() {
			once.Do(func() {
				mu.Lock()
				settled = true
				mu.Unlock()
				if f != nil {
					f()
				}
			})
		}
	}
	isSettled := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return settled
	}
	return mark(ack), mark(nack), isSettled
}

// NewMessage builds a Message whose Ack and Nack are mutually exclusive and idempotent.
func NewMessage(data MessageData, attributes map[string]string, ack, nack func()) Message {
	a, n, settled := settleOnce(ack, nack)
	return Message{
		MessageData: data,
		Attributes:  attributes,
		Ack:         a,
		Nack:        n,
		settled:     settled,
	}
}
