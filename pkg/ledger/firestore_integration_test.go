//go:build integration

package ledger_test

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-jobsink/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a running emulator, e.g. `gcloud emulators firestore start` with
// FIRESTORE_EMULATOR_HOST exported.
func TestFirestoreLedger_Integration(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	client, err := firestore.NewClient(ctx, "test-project")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l, err := ledger.NewFirestoreLedger(client, "outcomes")
	require.NoError(t, err)

	o := ledger.Outcome{
		MessageID:   "fs-1",
		Status:      ledger.StatusPersisted,
		PublishTime: time.Unix(1700000000, 0).UTC(),
		ProcessedAt: time.Unix(1700000002, 0).UTC(),
	}
	require.NoError(t, l.Record(ctx, o))

	got, err := l.Lookup(ctx, "fs-1")
	require.NoError(t, err)
	assert.Equal(t, o.Status, got.Status)
	assert.True(t, o.PublishTime.Equal(got.PublishTime))

	_, err = l.Lookup(ctx, "fs-missing")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}
