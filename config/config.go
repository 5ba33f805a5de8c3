package config

import (
	"log"
	"os"
	"strconv"
	"time"

	game_constants "Turnato/constants/game"
)

// Config holds the server settings read from the environment.
type Config struct {
	Port             string
	Prod             bool
	SessionKey       string
	JWTSecret        string
	MigratePostgres  bool
	RedisURL         string
	CatalogPath      string
	ValidatorTimeout time.Duration
	SnapshotTTL      time.Duration
}

// Load reads the environment. Call godotenv.Load first to pick up a .env file.
func Load() Config {
	cfg := Config{
		Port:             os.Getenv("PORT"),
		Prod:             os.Getenv("PROD") == "true",
		SessionKey:       os.Getenv("KEY"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		MigratePostgres:  os.Getenv("MIGRATE_POSTGRES") == "true",
		RedisURL:         os.Getenv("REDIS_URL"),
		CatalogPath:      os.Getenv("GAME_CATALOG"),
		ValidatorTimeout: game_constants.DefaultValidatorTimeout,
		SnapshotTTL:      game_constants.DefaultSnapshotTTL,
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "localhost:6379"
	}
	if ms, ok := positiveInt("VALIDATOR_TIMEOUT_MS"); ok {
		cfg.ValidatorTimeout = time.Duration(ms) * time.Millisecond
	}
	if h, ok := positiveInt("SNAPSHOT_TTL_HOURS"); ok {
		cfg.SnapshotTTL = time.Duration(h) * time.Hour
	}
	return cfg
}

func positiveInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("[CONFIG] Ignoring %s=%q, using the default", name, raw)
		return 0, false
	}
	return n, true
}
