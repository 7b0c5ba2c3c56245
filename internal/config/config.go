package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr           string
	APIToken       string
	StoreDriver    string
	DataDir        string
	DatabaseURL    string
	TuningPath     string
	StorageTimeout time.Duration
	SweepEvery     time.Duration
	LeaderboardTop int
}

type CLIConfig struct {
	APIBaseURL string
	APIToken   string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("ALLEYCAT_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:           addr,
		APIToken:       strings.TrimSpace(os.Getenv("ALLEYCAT_API_TOKEN")),
		StoreDriver:    envDriverDefault(),
		DataDir:        envDefault("ALLEYCAT_DATA_DIR", "data"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TuningPath:     strings.TrimSpace(os.Getenv("ALLEYCAT_TUNING_FILE")),
		StorageTimeout: envDurationDefault("ALLEYCAT_STORAGE_TIMEOUT", 5*time.Second),
		SweepEvery:     envDurationDefault("ALLEYCAT_SWEEP_EVERY", 10*time.Minute),
		LeaderboardTop: envIntDefault("ALLEYCAT_LEADERBOARD_TOP", 10),
	}
	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required for the postgres store")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("ALC_API_BASE_URL", "http://localhost:8080"), "/"),
		APIToken:   strings.TrimSpace(os.Getenv("ALC_API_TOKEN")),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDriverDefault() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ALLEYCAT_STORE_DRIVER")))
	switch v {
	case "file", "sqlite", "postgres":
		return v
	default:
		return "file"
	}
}
