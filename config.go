package complyon

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the environment-driven configuration, read once at startup.
// Only the API URL is mandatory; everything else has a sensible default.
type Config struct {
	APIURL string `envconfig:"API_URL" required:"true"`
	WSURL  string `envconfig:"WS_URL"`

	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	InitialBackoff time.Duration `envconfig:"INITIAL_BACKOFF" default:"250ms"`
	MaxBackoff     time.Duration `envconfig:"MAX_BACKOFF" default:"5s"`

	MaxReconnectAttempts int           `envconfig:"MAX_RECONNECT_ATTEMPTS" default:"5"`
	InitialReconnectWait time.Duration `envconfig:"INITIAL_RECONNECT_WAIT" default:"3s"`
	MaxReconnectWait     time.Duration `envconfig:"MAX_RECONNECT_WAIT" default:"30s"`

	// SnapshotPath is where the funnel container persists its state.
	// Empty disables persistence.
	SnapshotPath string `envconfig:"SNAPSHOT_PATH"`
}

// LoadConfig reads COMPLYON_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("COMPLYON", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
