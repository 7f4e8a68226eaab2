// Package config loads worker settings from an optional YAML file and the
// environment. Environment variables override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/illmade-knight/go-jobsink/pkg/logging"
	"gopkg.in/yaml.v3"
)

// PathEnv names the variable holding the YAML config path.
const PathEnv = "JOBSINK_CONFIG"

// CredentialsEnv is read by the Google client libraries.
const CredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

type Config struct {
	ServiceName     string `yaml:"service_name"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	NumWorkers      int    `yaml:"num_workers"`

	Subscription SubscriptionConfig `yaml:"subscription"`
	DutyCycle    DutyCycleConfig    `yaml:"duty_cycle"`
	Output       OutputConfig       `yaml:"output"`
	Logging      LoggingConfig      `yaml:"logging"`
	Ledger       LedgerConfig       `yaml:"ledger"`
}

type SubscriptionConfig struct {
	ID                     string `yaml:"id"`
	MaxOutstandingMessages int    `yaml:"max_outstanding_messages"`
	NumGoroutines          int    `yaml:"num_goroutines"`
	QueueSize              int    `yaml:"queue_size"`
	VerifyExists           bool   `yaml:"verify_exists"`
}

type DutyCycleConfig struct {
	ClosedFor    time.Duration `yaml:"closed_for"`
	OpenFor      time.Duration `yaml:"open_for"`
	CloseTimeout time.Duration `yaml:"close_timeout"`
}

type OutputConfig struct {
	PayloadFile    string `yaml:"payload_file"`
	AttributesFile string `yaml:"attributes_file"`
}

type LoggingConfig struct {
	Handler         string   `yaml:"handler"`
	Level           string   `yaml:"level"`
	Dir             string   `yaml:"dir"`
	MaxBackups      int      `yaml:"max_backups"`
	Compress        bool     `yaml:"compress"`
	ExcludedLoggers []string `yaml:"excluded_loggers"`
}

// LedgerConfig selects the outcome ledger backend: none, memory, redis or firestore.
type LedgerConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	Collection    string        `yaml:"collection"`
}

// Default returns the settings the worker historically ran with.
func Default() *Config {
	return &Config{
		ServiceName: "worker_v2",
		NumWorkers:  5,
		Subscription: SubscriptionConfig{
			ID:                     "dev.subs",
			MaxOutstandingMessages: 100,
			NumGoroutines:          5,
			QueueSize:              100,
		},
		DutyCycle: DutyCycleConfig{
			ClosedFor:    2 * time.Second,
			OpenFor:      10 * time.Second,
			CloseTimeout: 30 * time.Second,
		},
		Output: OutputConfig{
			PayloadFile:    "filename",
			AttributesFile: "file_attributes",
		},
		Logging: LoggingConfig{
			Handler: string(logging.HandlerBasic),
			Level:   "DEBUG",
			Dir:     "/logs",
		},
		Ledger: LedgerConfig{
			Backend:    "none",
			TTL:        24 * time.Hour,
			Collection: "jobsink-outcomes",
		},
	}
}

// Load reads the YAML file named by JOBSINK_CONFIG, if any, on top of the
// defaults, applies environment overrides and validates the result.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(PathEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ProjectID = getEnv("PUBSUB_PROJECT_ID", c.ProjectID)
	c.Subscription.ID = getEnv("PUBSUB_SUBSCRIPTION", c.Subscription.ID)
	c.CredentialsFile = getEnv(CredentialsEnv, c.CredentialsFile)
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)
	c.Logging.Handler = getEnv("LOG_HANDLER", c.Logging.Handler)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Dir = getEnv("LOG_DIR", c.Logging.Dir)
	if v := os.Getenv("LOG_EXCLUDED_LOGGERS"); v != "" {
		c.Logging.ExcludedLoggers = splitList(v)
	}
	c.Output.PayloadFile = getEnv("PAYLOAD_FILE", c.Output.PayloadFile)
	c.Output.AttributesFile = getEnv("ATTRIBUTES_FILE", c.Output.AttributesFile)
	c.Ledger.Backend = getEnv("LEDGER_BACKEND", c.Ledger.Backend)
	c.Ledger.RedisAddr = getEnv("REDIS_ADDR", c.Ledger.RedisAddr)
	c.Ledger.RedisPassword = getEnv("REDIS_PASSWORD", c.Ledger.RedisPassword)

	var errs []error
	var err error
	if c.NumWorkers, err = getEnvInt("NUM_WORKERS", c.NumWorkers); err != nil {
		errs = append(errs, err)
	}
	if c.DutyCycle.ClosedFor, err = getEnvDuration("DUTY_CLOSED_FOR", c.DutyCycle.ClosedFor); err != nil {
		errs = append(errs, err)
	}
	if c.DutyCycle.OpenFor, err = getEnvDuration("DUTY_OPEN_FOR", c.DutyCycle.OpenFor); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.Subscription.ID == "" {
		errs = append(errs, errors.New("subscription id is required"))
	}
	if c.ServiceName == "" {
		errs = append(errs, errors.New("service name is required"))
	}
	if c.DutyCycle.OpenFor <= 0 {
		errs = append(errs, errors.New("duty_cycle.open_for must be positive"))
	}
	if c.DutyCycle.ClosedFor < 0 {
		errs = append(errs, errors.New("duty_cycle.closed_for cannot be negative"))
	}
	if c.NumWorkers <= 0 {
		errs = append(errs, errors.New("num_workers must be positive"))
	}
	switch c.Ledger.Backend {
	case "", "none", "memory", "firestore":
	case "redis":
		if c.Ledger.RedisAddr == "" {
			errs = append(errs, errors.New("ledger.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend))
	}
	return errors.Join(errs...)
}

// LoggingConfig converts the logging section into a logging.Config.
func (c *Config) LoggingConfig() (logging.Config, error) {
	h, err := logging.ParseHandlerName(c.Logging.Handler)
	if err != nil {
		return logging.Config{}, err
	}
	var lc logging.Config
	switch h {
	case logging.HandlerBasic:
		lc = logging.NewBasicConfig(nil)
	case logging.HandlerRotatingFile:
		lc = logging.NewRotatingFileConfig(c.Logging.Dir)
		lc.RotatingFile.MaxBackups = c.Logging.MaxBackups
		lc.RotatingFile.Compress = c.Logging.Compress
	case logging.HandlerStackdriver:
		lc = logging.NewStackdriverConfig(c.ProjectID, c.Logging.ExcludedLoggers...)
		lc.Stackdriver.CredentialsFile = c.CredentialsFile
	}
	return lc, lc.Validate()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
