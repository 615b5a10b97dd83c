package outbox

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config tunes the outbox. Zero values fall back to defaults.
type Config struct {
	Shards         int           `envconfig:"SHARDS"`
	QueueSize      int           `envconfig:"QUEUE_SIZE"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT"`
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS"`
	BaseBackoff    time.Duration `envconfig:"BASE_BACKOFF"`
	MaxInterval    time.Duration `envconfig:"MAX_INTERVAL"`

	// ErrorHandler sees jobs that exhausted their retries. Optional; by
	// default terminal failures are dropped, which is the point of an
	// outbox for non-critical traffic.
	ErrorHandler func(error) `ignored:"true"`
}

// LoadConfig reads COMPLYON_OUTBOX_* environment overrides.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("COMPLYON_OUTBOX", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Shards <= 0 {
		c.Shards = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
}
