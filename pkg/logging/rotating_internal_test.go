package logging

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMidnightRotator_RotatesOnScheduleAndStopsOnClose(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "worker.log")

	release := make(chan struct{})
	var calls atomic.Int32
	untilNext := func(time.Time) time.Duration {
		if calls.Add(1) == 1 {
			<-release
			return 0
		}
		return time.Hour
	}

	r := newRotator(filename, RotatingFileOptions{}, untilNext)
	_, err := r.Write([]byte("before\n"))
	require.NoError(t, err)

	close(release)
	backups := func() []string {
		matches, globErr := filepath.Glob(filepath.Join(dir, "worker-*.log"))
		require.NoError(t, globErr)
		return matches
	}
	require.Eventually(t, func() bool { return len(backups()) == 1 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 5*time.Second, 10*time.Millisecond)

	rotated, err := os.ReadFile(backups()[0])
	require.NoError(t, err)
	assert.Equal(t, "before\n", string(rotated))

	_, err = r.Write([]byte("after\n"))
	require.NoError(t, err)
	current, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(current))

	// The pending timer is an hour away; Close must not wait for it.
	closed := make(chan error, 1)
	go func() { closed <- r.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not stop the rotation goroutine")
	}

	assert.Equal(t, int32(2), calls.Load(), "no rotation is scheduled after Close")
	assert.Len(t, backups(), 1)
	require.NoError(t, r.Close(), "Close is idempotent")
}
