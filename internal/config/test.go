package config

import "github.com/caarlos0/env/v11"

// TestConfig points the player-store integration tests at a throwaway
// database; tests skip when the DSN is absent.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
