package messagepipeline_test

import (
	"context"
	"sync"

	"github.com/illmade-knight/go-jobsink/pkg/messagepipeline"
)

// ====================================================================================
// Mocks for the interfaces defined in this package.
// ====================================================================================

// --- MockMessageConsumer ---

// MockMessageConsumer simulates a subscription that can be opened and closed.
type MockMessageConsumer struct {
	msgChan chan messagepipeline.Message

	mu           sync.Mutex
	open         bool
	openCount    int
	closeCount   int
	openErr      error
	shutdownOnce sync.Once
	events       []string
}

// NewMockMessageConsumer creates a new mock consumer with a buffered channel.
func NewMockMessageConsumer(bufferSize int) *MockMessageConsumer {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &MockMessageConsumer{
		msgChan: make(chan messagepipeline.Message, bufferSize),
	}
}

func (m *MockMessageConsumer) Messages() <-chan messagepipeline.Message {
	return m.msgChan
}

func (m *MockMessageConsumer) Open(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openCount++
	if m.openErr != nil {
		return m.openErr
	}
	if m.open {
		return messagepipeline.ErrAlreadyOpen
	}
	m.open = true
	m.events = append(m.events, "open")
	return nil
}

func (m *MockMessageConsumer) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil
	}
	m.open = false
	m.closeCount++
	m.events = append(m.events, "close")
	return nil
}

func (m *MockMessageConsumer) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *MockMessageConsumer) Shutdown(ctx context.Context) error {
	_ = m.Close(ctx)
	m.shutdownOnce.Do(func() { close(m.msgChan) })
	return nil
}

// Push is a test helper to inject a message into the mock consumer's channel.
func (m *MockMessageConsumer) Push(msg messagepipeline.Message) {
	m.msgChan <- msg
}

// SetOpenError configures the mock to return an error on Open().
func (m *MockMessageConsumer) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

func (m *MockMessageConsumer) GetOpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCount
}

func (m *MockMessageConsumer) GetCloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

// Events returns the ordered open/close transitions.
func (m *MockMessageConsumer) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	copy(out, m.events)
	return out
}

// --- messageState ---
// messageState tracks the Ack/Nack status for individual messages.
type messageState struct {
	mu    sync.Mutex
	acks  int
	nacks int
}

func (ms *messageState) Ack() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.acks++
}

func (ms *messageState) Nack() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.nacks++
}

func (ms *messageState) Acks() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.acks
}

func (ms *messageState) Nacks() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.nacks
}

func (ms *messageState) message(id, payload string) messagepipeline.Message {
	return messagepipeline.NewMessage(messagepipeline.MessageData{
		ID:      id,
		Payload: []byte(payload),
	}, nil, ms.Ack, ms.Nack)
}
