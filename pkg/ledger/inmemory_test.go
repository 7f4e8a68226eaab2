package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/illmade-knight/go-jobsink/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLedger(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewInMemoryLedger()
	t.Cleanup(func() { _ = l.Close() })

	t.Run("Lookup miss", func(t *testing.T) {
		_, err := l.Lookup(ctx, "missing")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("Record and Lookup", func(t *testing.T) {
		o := ledger.Outcome{
			MessageID:   "msg-1",
			Status:      ledger.StatusPersisted,
			PublishTime: time.Unix(1700000000, 0).UTC(),
			ProcessedAt: time.Unix(1700000005, 0).UTC(),
		}
		require.NoError(t, l.Record(ctx, o))

		got, err := l.Lookup(ctx, "msg-1")
		require.NoError(t, err)
		assert.Equal(t, o, got)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("Record overwrites", func(t *testing.T) {
		require.NoError(t, l.Record(ctx, ledger.Outcome{MessageID: "msg-1", Status: ledger.StatusRejected, Reason: "bad"}))
		got, err := l.Lookup(ctx, "msg-1")
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusRejected, got.Status)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("Record without id fails", func(t *testing.T) {
		require.Error(t, l.Record(ctx, ledger.Outcome{Status: ledger.StatusPersisted}))
	})
}

func TestNoopLedger(t *testing.T) {
	ctx := context.Background()
	var l ledger.Ledger = ledger.NoopLedger{}
	require.NoError(t, l.Record(ctx, ledger.Outcome{MessageID: "x"}))
	_, err := l.Lookup(ctx, "x")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.NoError(t, l.Close())
}
