// internal/config/config.go
//
// Environment-driven configuration for the CLI.
//
// Environment variables (a `.env` file is loaded first when present):
//   AUTHORITY_URL        base address of the puzzle authority (default http://localhost:8181)
//   STATE_DB             progress database path, or ":memory:" (default <UserConfigDir>/connections/state.db)
//   WRONG_GUESS_WINDOW   how long a wrong guess stays highlighted (default 1s)
//   HTTP_TIMEOUT         per-request timeout for authority calls (default 10s)
//   PORT                 dev authority listen port (default 8181)
//   LOG_LEVEL            zerolog level (default info)
//   LOG_FILE             append logs to this file instead of stderr

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds resolved settings.
type Config struct {
	AuthorityURL     string
	StateDB          string
	WrongGuessWindow time.Duration
	HTTPTimeout      time.Duration
	Port             string
	LogLevel         string
	LogFile          string
}

// Load resolves Config from the environment.
func Load() (*Config, error) {
	window, err := getDuration("WRONG_GUESS_WINDOW", time.Second)
	if err != nil {
		return nil, err
	}
	timeout, err := getDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	return &Config{
		AuthorityURL:     getEnv("AUTHORITY_URL", "http://localhost:8181"),
		StateDB:          getEnv("STATE_DB", defaultStateDB()),
		WrongGuessWindow: window,
		HTTPTimeout:      timeout,
		Port:             getEnv("PORT", "8181"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          os.Getenv("LOG_FILE"),
	}, nil
}

// defaultStateDB places progress in the user config dir, falling back to the
// home directory and finally the working directory.
func defaultStateDB() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "connections", "state.db")
	}
	if dir, err := os.UserHomeDir(); err == nil && dir != "" {
		return filepath.Join(dir, ".connections", "state.db")
	}
	return "state.db"
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", k, v)
	}
	return d, nil
}
