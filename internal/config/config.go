package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the host-process configuration.
// Priority: ENV > .env file > defaults.
type Config struct {
	Addr   string
	Symbol string

	InitialPrice    float64
	CommissionRate  float64
	TickPeriod      time.Duration
	SnapshotDepth   int
	HistoryBackfill time.Duration

	// Seed fixes the RNG for reproducible sessions; 0 seeds from the clock.
	Seed     int64
	Scenario string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		Symbol:          "SANDBOX",
		InitialPrice:    100,
		CommissionRate:  0.0005,
		TickPeriod:      time.Second,
		SnapshotDepth:   20,
		HistoryBackfill: 6 * time.Hour,
		Scenario:        "sideways",
	}
}

// Load reads configuration from the .env file (if present) and environment
// variables on top of defaults.
func Load(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Addr = getString("ADDR", cfg.Addr)
	cfg.Symbol = getString("SYMBOL", cfg.Symbol)
	cfg.InitialPrice = getFloat("INITIAL_PRICE", cfg.InitialPrice)
	cfg.CommissionRate = getFloat("COMMISSION_RATE", cfg.CommissionRate)
	cfg.TickPeriod = getDuration("TICK_PERIOD", cfg.TickPeriod)
	cfg.SnapshotDepth = getInt("SNAPSHOT_DEPTH", cfg.SnapshotDepth)
	cfg.HistoryBackfill = getDuration("HISTORY_BACKFILL", cfg.HistoryBackfill)
	cfg.Seed = int64(getInt("SEED", int(cfg.Seed)))
	cfg.Scenario = getString("SCENARIO", cfg.Scenario)
	cfg.RedisAddr = getString("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getString("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getInt("REDIS_DB", cfg.RedisDB)

	return cfg
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
