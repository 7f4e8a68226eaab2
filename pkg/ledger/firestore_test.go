package ledger_test

import (
	"testing"

	"github.com/illmade-knight/go-jobsink/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func TestNewFirestoreLedger_Validation(t *testing.T) {
	_, err := ledger.NewFirestoreLedger(nil, "outcomes")
	require.Error(t, err)
}
