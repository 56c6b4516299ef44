package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvRegion          = "WIDGET_REGION"
	EnvRequestBucket   = "WIDGET_REQUEST_BUCKET"
	EnvRequestQueueURL = "WIDGET_REQUEST_QUEUE_URL"
	EnvStorageBucket   = "WIDGET_STORAGE_BUCKET"
	EnvTable           = "WIDGET_TABLE"
	EnvPollInterval    = "WIDGET_POLL_INTERVAL"
	EnvMaxIdlePolls    = "WIDGET_MAX_IDLE_POLLS"
	EnvObjectEncoding  = "WIDGET_OBJECT_ENCODING"
	EnvLogLevel        = "LOG_LEVEL"
)

// Config is the runtime configuration of the consumer binary.
type Config struct {
	Region string

	// RequestBucket is the S3 bucket used as the request queue.
	RequestBucket string
	// RequestQueueURL, when set, replaces RequestBucket with an SQS queue.
	RequestQueueURL string

	StorageBucket string
	Table         string

	PollInterval time.Duration
	MaxIdlePolls int

	// ObjectEncoding is "json" or "parquet".
	ObjectEncoding string
	LogLevel       string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Region:         "us-east-1",
		RequestBucket:  "usu-cs5260-nate-requests",
		StorageBucket:  "usu-cs5260-nate-web",
		Table:          "widgets",
		PollInterval:   100 * time.Millisecond,
		MaxIdlePolls:   1000,
		ObjectEncoding: "json",
		LogLevel:       "info",
	}
}

// Load reads .env (if any), then applies environment overrides on top of
// Default.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv applies environment overrides on top of Default without touching
// .env.
func FromEnv() (*Config, error) {
	ldr := &envLoader{}
	def := Default()

	cfg := &Config{}
	cfg.Region = ldr.getString(EnvRegion, def.Region)
	cfg.RequestBucket = ldr.getString(EnvRequestBucket, def.RequestBucket)
	cfg.RequestQueueURL = ldr.getString(EnvRequestQueueURL, def.RequestQueueURL)
	cfg.StorageBucket = ldr.getString(EnvStorageBucket, def.StorageBucket)
	cfg.Table = ldr.getString(EnvTable, def.Table)
	cfg.PollInterval = ldr.getDuration(EnvPollInterval, def.PollInterval)
	cfg.MaxIdlePolls = ldr.getInt(EnvMaxIdlePolls, def.MaxIdlePolls)
	cfg.ObjectEncoding = strings.ToLower(ldr.getString(EnvObjectEncoding, def.ObjectEncoding))
	cfg.LogLevel = strings.ToLower(ldr.getString(EnvLogLevel, def.LogLevel))

	if cfg.PollInterval < 0 {
		ldr.addError(fmt.Sprintf("%s must not be negative", EnvPollInterval))
	}
	if cfg.MaxIdlePolls < 1 {
		ldr.addError(fmt.Sprintf("%s must be at least 1", EnvMaxIdlePolls))
	}
	switch cfg.ObjectEncoding {
	case "json", "parquet":
	default:
		ldr.addError(fmt.Sprintf("%s must be json or parquet", EnvObjectEncoding))
	}

	if err := ldr.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) addError(msg string) {
	l.errs = append(l.errs, msg)
}

func (l *envLoader) lookup(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, val != ""
}

func (l *envLoader) getString(key, def string) string {
	if val, ok := l.lookup(key); ok {
		return val
	}
	return def
}

func (l *envLoader) getInt(key string, def int) int {
	val, ok := l.lookup(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getDuration(key string, def time.Duration) time.Duration {
	val, ok := l.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid duration", key))
		return def
	}
	return d
}
