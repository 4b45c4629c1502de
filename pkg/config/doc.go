// Package config loads typed configuration structs from environment
// variables using struct tags, with optional .env bootstrap and per-type
// caching.
//
// Configuration structs declare their variables with env tags:
//
//	type HTTPConfig struct {
//		Host string `env:"HOST" envDefault:"0.0.0.0"`
//		Port int    `env:"PORT" envDefault:"8080"`
//	}
//
// Load parses the environment exactly once per concrete type; later calls
// return the cached value so every component observes the same
// configuration.
package config
