package session

import "time"

// Config controls session behavior.
type Config struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"session_id"`
	TTL             time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		CookieName:      "session_id",
		TTL:             24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
	}
}
