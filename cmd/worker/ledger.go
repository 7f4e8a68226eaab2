package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-jobsink/pkg/config"
	"github.com/illmade-knight/go-jobsink/pkg/ledger"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// firestoreLedger owns its client so closing the ledger releases it.
type firestoreLedger struct {
	*ledger.FirestoreLedger
	client *firestore.Client
}

func (l *firestoreLedger) Close() error {
	return l.client.Close()
}

func newLedger(ctx context.Context, cfg *config.Config, projectID string, logger zerolog.Logger) (ledger.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "", "none":
		return ledger.NoopLedger{}, nil
	case "memory":
		return ledger.NewInMemoryLedger(), nil
	case "redis":
		rl, err := ledger.NewRedisLedger(ctx, &ledger.RedisConfig{
			Addr:     cfg.Ledger.RedisAddr,
			Password: cfg.Ledger.RedisPassword,
			DB:       cfg.Ledger.RedisDB,
			TTL:      cfg.Ledger.TTL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return rl, nil
	case "firestore":
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		if projectID == "" {
			projectID = firestore.DetectProjectID
		}
		client, err := firestore.NewClient(ctx, projectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		fl, err := ledger.NewFirestoreLedger(client, cfg.Ledger.Collection)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		logger.Info().Str("collection", cfg.Ledger.Collection).Msg("Recording outcomes in Firestore.")
		return &firestoreLedger{FirestoreLedger: fl, client: client}, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}
