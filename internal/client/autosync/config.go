package autosync

import "time"

// Default timings of the scheduler.
const (
	DefaultDebounce     = 1000 * time.Millisecond
	DefaultRetryDelay   = 5000 * time.Millisecond
	DefaultMaxRetries   = 3
	DefaultWriteTimeout = 10 * time.Second
)

// Config задает тайминги планировщика
type Config struct {
	Debounce     time.Duration // Debounce тишина после последней правки перед записью
	RetryDelay   time.Duration // RetryDelay фиксированная пауза между повторами
	WriteTimeout time.Duration // WriteTimeout ограничение на одну удаленную запись (0 - без ограничения)
	MaxRetries   int           // MaxRetries число повторов после первой неудачи
}

// DefaultConfig returns the reference timings.
func DefaultConfig() Config {
	return Config{
		Debounce:     DefaultDebounce,
		RetryDelay:   DefaultRetryDelay,
		MaxRetries:   DefaultMaxRetries,
		WriteTimeout: DefaultWriteTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}
