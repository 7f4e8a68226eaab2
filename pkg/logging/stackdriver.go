package logging

import (
	"context"
	"encoding/json"
	"errors"

	gcl "cloud.google.com/go/logging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// entryLogger is the subset of *gcl.Logger used by the sink.
type entryLogger interface {
	Log(e gcl.Entry)
	Flush() error
}

// stackdriverWriter forwards zerolog records to Cloud Logging, dropping
// records whose component is excluded.
type stackdriverWriter struct {
	logger   entryLogger
	excluded map[string]struct{}
	closeFn  func() error
}

func newStackdriverWriter(ctx context.Context, name string, opts StackdriverOptions) (*stackdriverWriter, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	projectID := opts.ProjectID
	if projectID == "" {
		projectID = gcl.DetectProjectID
	}
	client, err := gcl.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, &ConfigError{Msg: "cloud logging client is not available", Err: err}
	}
	w := newStackdriverWriterFor(client.Logger(name), opts.ExcludedLoggers)
	w.closeFn = client.Close
	return w, nil
}

func newStackdriverWriterFor(l entryLogger, excludedLoggers []string) *stackdriverWriter {
	if len(excludedLoggers) == 0 {
		excludedLoggers = DefaultExcludedLoggers
	}
	excluded := make(map[string]struct{}, len(excludedLoggers))
	for _, name := range excludedLoggers {
		excluded[name] = struct{}{}
	}
	return &stackdriverWriter{logger: l, excluded: excluded}
}

func (w *stackdriverWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter.
func (w *stackdriverWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	var probe struct {
		Component string `json:"component"`
	}
	if err := json.Unmarshal(p, &probe); err == nil {
		if _, skip := w.excluded[probe.Component]; skip && probe.Component != "" {
			return len(p), nil
		}
	}

	// zerolog reuses p after Write returns.
	payload := make(json.RawMessage, len(p))
	copy(payload, p)
	w.logger.Log(gcl.Entry{
		Payload:  payload,
		Severity: severity(level),
	})
	return len(p), nil
}

// Close flushes buffered entries and closes the client.
func (w *stackdriverWriter) Close() error {
	err := w.logger.Flush()
	if w.closeFn != nil {
		err = errors.Join(err, w.closeFn())
	}
	return err
}

func severity(level zerolog.Level) gcl.Severity {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return gcl.Debug
	case zerolog.InfoLevel:
		return gcl.Info
	case zerolog.WarnLevel:
		return gcl.Warning
	case zerolog.ErrorLevel:
		return gcl.Error
	case zerolog.FatalLevel:
		return gcl.Critical
	case zerolog.PanicLevel:
		return gcl.Emergency
	default:
		return gcl.Default
	}
}
