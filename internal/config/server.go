package config

import (
	"flag"
	"fmt"
	"time"
)

// Server настройки сервера (system of record)
type Server struct {
	Addr            string        `env:"AUTOSAVE_SERVER_ADDR" envDefault:":8080"`
	DBPath          string        `env:"AUTOSAVE_SERVER_DB" envDefault:"autosave-server.sqlite"`
	LogLevel        string        `env:"AUTOSAVE_LOG_LEVEL" envDefault:"info"`
	RateLimit       int           `env:"AUTOSAVE_RATE_LIMIT" envDefault:"600"`
	RateWindow      time.Duration `env:"AUTOSAVE_RATE_WINDOW" envDefault:"1m"`
	MaxPayloadBytes int64         `env:"AUTOSAVE_MAX_PAYLOAD_BYTES" envDefault:"1048576"`
	ShutdownTimeout time.Duration `env:"AUTOSAVE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ShowVersion     bool          `env:"-"`
}

// LoadServer reads the environment, then parses args with fs.
func LoadServer(fs *flag.FlagSet, args []string, environ map[string]string) (Server, error) {
	var cfg Server
	if err := parseEnv(&cfg, environ); err != nil {
		return Server{}, err
	}

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Writes allowed per client IP in one rate window (0 disables)")
	fs.DurationVar(&cfg.RateWindow, "rate-window", cfg.RateWindow, "Rate limit window")
	fs.Int64Var(&cfg.MaxPayloadBytes, "max-payload-bytes", cfg.MaxPayloadBytes, "Maximum request body of a save")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return Server{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate проверяет диапазоны значений
func (c Server) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: listen address is empty", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must be >= 0, got %d", ErrInvalidConfig, c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateWindow <= 0 {
		return fmt.Errorf("%w: rate window must be positive, got %s", ErrInvalidConfig, c.RateWindow)
	}
	if c.MaxPayloadBytes <= 0 {
		return fmt.Errorf("%w: max payload bytes must be positive, got %d", ErrInvalidConfig, c.MaxPayloadBytes)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive, got %s", ErrInvalidConfig, c.ShutdownTimeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
