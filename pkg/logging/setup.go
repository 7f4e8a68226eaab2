package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger for the selected sink and installs it as
// the zerolog global logger. Invalid configuration returns a ConfigError
// before any file or client is created. The Closer flushes and releases the
// sink; it does not restore the previous global logger.
func Setup(ctx context.Context, name string, level zerolog.Level, cfg Config) (zerolog.Logger, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), nil, err
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch cfg.Handler {
	case HandlerBasic:
		w = os.Stdout
		if cfg.Basic != nil && cfg.Basic.Writer != nil {
			w = cfg.Basic.Writer
		}
	case HandlerRotatingFile:
		rf := newMidnightRotator(filepath.Join(cfg.RotatingFile.Dir, name+".log"), *cfg.RotatingFile)
		w, closer = rf, rf
	case HandlerStackdriver:
		var opts StackdriverOptions
		if cfg.Stackdriver != nil {
			opts = *cfg.Stackdriver
		}
		sw, err := newStackdriverWriter(ctx, name, opts)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		w, closer = sw, sw
	}

	logger := newLogger(w, name, level)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger, closer, nil
}

// newLogger applies the common record format: time, level, pid, process
// name, logger name and message.
func newLogger(w io.Writer, name string, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Str("process_name", filepath.Base(os.Args[0])).
		Str("name", name).
		Logger()
}
