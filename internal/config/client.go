package config

import (
	"flag"
	"fmt"
	"time"
)

// Client настройки клиента (редактора с автосохранением)
type Client struct {
	ServerURL      string        `env:"AUTOSAVE_SERVER_URL" envDefault:"http://localhost:8080"`
	DBPath         string        `env:"AUTOSAVE_DB" envDefault:"autosave-client.db"`
	FallbackDBPath string        `env:"AUTOSAVE_FALLBACK_DB" envDefault:"autosave-client.sqlite"`
	LogLevel       string        `env:"AUTOSAVE_LOG_LEVEL" envDefault:"warn"`
	MaxBackupBytes int           `env:"AUTOSAVE_MAX_BACKUP_BYTES" envDefault:"5242880"`
	Debounce       time.Duration `env:"AUTOSAVE_DEBOUNCE" envDefault:"1s"`
	RetryDelay     time.Duration `env:"AUTOSAVE_RETRY_DELAY" envDefault:"5s"`
	MaxRetries     int           `env:"AUTOSAVE_MAX_RETRIES" envDefault:"3"`
	WriteTimeout   time.Duration `env:"AUTOSAVE_WRITE_TIMEOUT" envDefault:"10s"`
	RestoreMaxAge  time.Duration `env:"AUTOSAVE_RESTORE_MAX_AGE" envDefault:"1h"`
	SavedWindow    time.Duration `env:"AUTOSAVE_SAVED_WINDOW" envDefault:"2s"`
	ProbeInterval  time.Duration `env:"AUTOSAVE_PROBE_INTERVAL" envDefault:"5s"`
	ShowVersion    bool          `env:"-"`
}

// LoadClient reads the environment, then parses args with fs.
// Positional arguments stay available through fs.Args().
func LoadClient(fs *flag.FlagSet, args []string, environ map[string]string) (Client, error) {
	var cfg Client
	if err := parseEnv(&cfg, environ); err != nil {
		return Client{}, err
	}

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to local BoltDB database")
	fs.StringVar(&cfg.FallbackDBPath, "fallback-db", cfg.FallbackDBPath, "Path to local SQLite fallback database")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.IntVar(&cfg.MaxBackupBytes, "max-backup-bytes", cfg.MaxBackupBytes, "Maximum size of one local backup in the primary store (-1 for unlimited)")
	fs.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "Quiet period before an edit is sent to the server")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "Delay before retrying a failed save")
	fs.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "Retries after the first failed save")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "Timeout of one remote save")
	fs.DurationVar(&cfg.RestoreMaxAge, "restore-max-age", cfg.RestoreMaxAge, "Local backups older than this are discarded")
	fs.DurationVar(&cfg.SavedWindow, "saved-window", cfg.SavedWindow, "How long the \"Saved\" label is shown")
	fs.DurationVar(&cfg.ProbeInterval, "probe-interval", cfg.ProbeInterval, "Server health probe interval")

	if err := fs.Parse(args); err != nil {
		return Client{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// Validate проверяет диапазоны значений
func (c Client) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("%w: server url is empty", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must be >= 0, got %d", ErrInvalidConfig, c.MaxRetries)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"debounce", c.Debounce},
		{"retry delay", c.RetryDelay},
		{"write timeout", c.WriteTimeout},
		{"restore max age", c.RestoreMaxAge},
		{"saved window", c.SavedWindow},
		{"probe interval", c.ProbeInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, d.name, d.value)
		}
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
