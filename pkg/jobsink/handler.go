// Package jobsink persists job messages to local append-only files.
package jobsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/illmade-knight/go-jobsink/pkg/ledger"
	"github.com/illmade-knight/go-jobsink/pkg/messagepipeline"
	"github.com/rs/zerolog"
)

// ErrInvalidMessage marks message content that can never be processed.
var ErrInvalidMessage = errors.New("invalid message")

// JobHandlerConfig names the two output files.
type JobHandlerConfig struct {
	PayloadFile    string
	AttributesFile string
}

// DefaultJobHandlerConfig returns the historical file names.
func DefaultJobHandlerConfig() JobHandlerConfig {
	return JobHandlerConfig{
		PayloadFile:    "filename",
		AttributesFile: "file_attributes",
	}
}

// JobHandler parses each message as JSON, appends it and its attributes to
// files and acknowledges it. Invalid content is logged and acknowledged too,
// so it is never redelivered.
type JobHandler struct {
	payloads   *AppendFile
	attributes *AppendFile
	ledger     ledger.Ledger
	logger     zerolog.Logger
	now        func() time.Time
}

// NewJobHandler creates a JobHandler. A nil ledger disables outcome recording.
func NewJobHandler(cfg JobHandlerConfig, l ledger.Ledger, logger zerolog.Logger) (*JobHandler, error) {
	if cfg.PayloadFile == "" {
		return nil, errors.New("payload file cannot be empty")
	}
	if cfg.AttributesFile == "" {
		return nil, errors.New("attributes file cannot be empty")
	}
	if l == nil {
		l = ledger.NoopLedger{}
	}

	payloads := NewAppendFile(cfg.PayloadFile)
	attributes := payloads
	if cfg.AttributesFile != cfg.PayloadFile {
		attributes = NewAppendFile(cfg.AttributesFile)
	}

	return &JobHandler{
		payloads:   payloads,
		attributes: attributes,
		ledger:     l,
		logger:     logger.With().Str("component", "JobHandler").Logger(),
		now:        time.Now,
	}, nil
}

// Handle is a messagepipeline.MessageHandler. It returns an error only when a
// file write fails; the message is then left unsettled for the worker to Nack.
func (h *JobHandler) Handle(ctx context.Context, msg messagepipeline.Message) error {
	if !utf8.Valid(msg.Payload) {
		h.reject(ctx, msg, fmt.Errorf("%w: payload is not valid utf-8", ErrInvalidMessage))
		return nil
	}
	var job bytes.Buffer
	if err := json.Compact(&job, msg.Payload); err != nil {
		h.reject(ctx, msg, fmt.Errorf("%w: payload is not json: %v", ErrInvalidMessage, err))
		return nil
	}
	h.logger.Debug().Str("msg_id", msg.ID).RawJSON("job", job.Bytes()).Msg("Got job")

	if err := h.payloads.AppendLine(job.Bytes()); err != nil {
		return err
	}

	if len(msg.Attributes) > 0 {
		if err := validateAttributes(msg.Attributes); err != nil {
			h.reject(ctx, msg, fmt.Errorf("%w: %v", ErrInvalidMessage, err))
			return nil
		}
		line := FormatAttributes(msg.Attributes)
		h.logger.Debug().Str("msg_id", msg.ID).Str("attributes", line).Msg("Attributes")
		if err := h.attributes.AppendLine([]byte(line)); err != nil {
			return err
		}
	}

	msg.Ack()
	h.record(ctx, msg, ledger.StatusPersisted, "")
	return nil
}

func (h *JobHandler) reject(ctx context.Context, msg messagepipeline.Message, err error) {
	h.logger.Error().Err(err).Str("msg_id", msg.ID).Bytes("raw_payload", msg.Payload).Msg("invalid message")
	msg.Ack()
	h.record(ctx, msg, ledger.StatusRejected, err.Error())
}

func (h *JobHandler) record(ctx context.Context, msg messagepipeline.Message, status ledger.Status, reason string) {
	if msg.ID == "" {
		return
	}
	err := h.ledger.Record(ctx, ledger.Outcome{
		MessageID:   msg.ID,
		Status:      status,
		Reason:      reason,
		PublishTime: msg.PublishTime,
		ProcessedAt: h.now().UTC(),
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("msg_id", msg.ID).Msg("Failed to record outcome in ledger.")
	}
}
