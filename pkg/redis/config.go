package redis

import "time"

// Config describes the connection, loadable from the environment through
// pkg/config.
type Config struct {
	// URL is a redis connection string, e.g. "redis://:password@localhost:6379/0".
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}
