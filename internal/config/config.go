package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by Load
const (
	EnvAddr      = "INVADERS_ADDR"
	EnvStoreURL  = "INVADERS_STORE_URL"
	EnvTickRate  = "INVADERS_TICK_RATE"
	EnvSeed      = "INVADERS_SEED"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

// Config is shared by the relay server and the terminal client
type Config struct {
	Addr      string // relay listen address
	StoreURL  string // relay websocket URL, empty for an in-process store
	TickRate  int    // frames per second
	Seed      int64  // 0 seeds from the clock
	LogLevel  string
	LogFormat string
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Addr:      ":8080",
		TickRate:  60,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the given .env files (".env" when none are named) and then the
// environment. Missing files are fine; set variables are never overridden.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup, keeping defaults for unset values
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	cfg.StoreURL = getenv(EnvStoreURL)
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}

	if v := getenv(EnvTickRate); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return Config{}, fmt.Errorf("%s: want a positive integer, got %q", EnvTickRate, v)
		}
		cfg.TickRate = rate
	}
	if v := getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}

	return cfg, nil
}
