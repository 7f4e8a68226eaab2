// Package logging configures the process logger. Exactly one sink is active:
// the console, a file rotated at midnight, or Google Cloud Logging.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// HandlerName selects the log sink.
type HandlerName string

const (
	HandlerBasic        HandlerName = "basic"
	HandlerRotatingFile HandlerName = "rotating_file"
	HandlerStackdriver  HandlerName = "stackdriver"
)

// DefaultExcludedLoggers are components whose records are never forwarded to
// Cloud Logging. The client libraries log through these names and forwarding
// them would feed back into the sink.
var DefaultExcludedLoggers = []string{"grpc", "google.auth", "google.cloud"}

// ConfigError reports an invalid or incomplete logging configuration.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logging config: %s: %v", e.Msg, e.Err)
	}
	return "logging config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// BasicOptions configures the console sink.
type BasicOptions struct {
	// Writer defaults to os.Stdout.
	Writer io.Writer
}

// RotatingFileOptions configures the file sink. The file is <Dir>/<name>.log.
type RotatingFileOptions struct {
	Dir string
	// MaxBackups is the number of rotated files kept; 0 keeps them all.
	MaxBackups int
	Compress   bool
}

// StackdriverOptions configures the Cloud Logging sink.
type StackdriverOptions struct {
	// ProjectID is detected from the credentials or environment when empty.
	ProjectID       string
	CredentialsFile string
	// ExcludedLoggers defaults to DefaultExcludedLoggers when empty.
	ExcludedLoggers []string
}

// Config selects one sink. Only the options block matching Handler may be set.
type Config struct {
	Handler      HandlerName
	Basic        *BasicOptions
	RotatingFile *RotatingFileOptions
	Stackdriver  *StackdriverOptions
}

// NewBasicConfig returns a console configuration.
func NewBasicConfig(w io.Writer) Config {
	return Config{Handler: HandlerBasic, Basic: &BasicOptions{Writer: w}}
}

// NewRotatingFileConfig returns a rotating file configuration for dir.
func NewRotatingFileConfig(dir string) Config {
	return Config{Handler: HandlerRotatingFile, RotatingFile: &RotatingFileOptions{Dir: dir}}
}

// NewStackdriverConfig returns a Cloud Logging configuration.
func NewStackdriverConfig(projectID string, excluded ...string) Config {
	return Config{Handler: HandlerStackdriver, Stackdriver: &StackdriverOptions{ProjectID: projectID, ExcludedLoggers: excluded}}
}

// ParseHandlerName validates a handler name string.
func ParseHandlerName(s string) (HandlerName, error) {
	switch h := HandlerName(strings.ToLower(strings.TrimSpace(s))); h {
	case HandlerBasic, HandlerRotatingFile, HandlerStackdriver:
		return h, nil
	}
	return "", &ConfigError{Msg: fmt.Sprintf("handler name %q must be one of %s, %s, %s", s, HandlerBasic, HandlerRotatingFile, HandlerStackdriver)}
}

// Validate rejects unknown handlers, missing required options and configs
// that set more than one options block.
func (c Config) Validate() error {
	set := 0
	for _, present := range []bool{c.Basic != nil, c.RotatingFile != nil, c.Stackdriver != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return &ConfigError{Msg: "only one handler options block may be set"}
	}

	switch c.Handler {
	case HandlerBasic:
		if c.RotatingFile != nil || c.Stackdriver != nil {
			return &ConfigError{Msg: "basic handler takes no file or stackdriver options"}
		}
	case HandlerRotatingFile:
		if c.RotatingFile == nil || c.RotatingFile.Dir == "" {
			return &ConfigError{Msg: "log_dir must be specified when using rotating_file"}
		}
	case HandlerStackdriver:
		if c.Basic != nil || c.RotatingFile != nil {
			return &ConfigError{Msg: "stackdriver handler takes no console or file options"}
		}
	default:
		_, err := ParseHandlerName(string(c.Handler))
		return err
	}
	return nil
}

// ParseLevel accepts zerolog level names and the upper-case names used by
// older deployments (WARNING, CRITICAL).
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return zerolog.InfoLevel, nil
	case "WARNING":
		return zerolog.WarnLevel, nil
	case "CRITICAL":
		return zerolog.FatalLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, &ConfigError{Msg: fmt.Sprintf("invalid log level %q", s), Err: err}
	}
	return lvl, nil
}
