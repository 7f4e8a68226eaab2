package logging

import (
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// sizeRotationOff is large enough that lumberjack never rotates on size;
// rotation is driven by the midnight timer only.
const sizeRotationOff = 1 << 20 // megabytes

// midnightRotator is a lumberjack file that is rotated at each local midnight.
type midnightRotator struct {
	*lumberjack.Logger
	// untilNext returns how long to wait before the next rotation.
	untilNext func(now time.Time) time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func newMidnightRotator(filename string, opts RotatingFileOptions) *midnightRotator {
	return newRotator(filename, opts, func(now time.Time) time.Duration {
		return nextMidnight(now).Sub(now)
	})
}

func newRotator(filename string, opts RotatingFileOptions, untilNext func(time.Time) time.Duration) *midnightRotator {
	r := &midnightRotator{
		Logger: &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    sizeRotationOff,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
			Compress:   opts.Compress,
		},
		untilNext: untilNext,
		stop:      make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *midnightRotator) run() {
	defer r.wg.Done()
	for {
		t := time.NewTimer(r.untilNext(time.Now()))
		select {
		case <-r.stop:
			t.Stop()
			return
		case <-t.C:
			// Rotate only errors when the file cannot be reopened; the next
			// Write retries the open.
			_ = r.Rotate()
		}
	}
}

// Close stops the rotation timer and closes the current file.
func (r *midnightRotator) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	return r.Logger.Close()
}

// nextMidnight returns the first local midnight strictly after now.
func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
