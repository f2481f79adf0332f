package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	// Empty DSN selects the in-memory player store.
	PostgresDSN string `env:"POSTGRES_DSN"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	TurnSeconds     int   `env:"TURN_SECONDS" envDefault:"30"`
	AIMoveDelayMS   int   `env:"AI_MOVE_DELAY_MS" envDefault:"800"`
	AISeed          int64 `env:"AI_SEED" envDefault:"0"`
	RoomIdleMinutes int   `env:"ROOM_IDLE_MINUTES" envDefault:"10"`
	JanitorSeconds  int   `env:"JANITOR_SECONDS" envDefault:"60"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
