// Package connectivity tracks whether the remote system of record is
// reachable by polling its health endpoint.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval период опроса health endpoint
const DefaultInterval = 5 * time.Second

//go:generate moq -out prober_mock.go . Prober

// Prober checks reachability of the remote. A nil error means online.
type Prober interface {
	Health(ctx context.Context) error
}

// Monitor polls a Prober and reports online/offline transitions.
type Monitor struct {
	prober   Prober
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration

	mu        sync.Mutex
	listeners map[int]func(online bool)
	nextID    int
	online    bool
	known     bool
}

// NewMonitor creates a monitor. The state is unknown until the first probe.
func NewMonitor(prober Prober, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := interval
	if timeout > 2*time.Second {
		timeout = 2 * time.Second
	}
	return &Monitor{
		prober:    prober,
		logger:    logger,
		interval:  interval,
		timeout:   timeout,
		listeners: make(map[int]func(online bool)),
	}
}

// OnChange registers l and returns a function that removes it. l is called
// on every transition, including the first probe result.
func (m *Monitor) OnChange(l func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = l

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Online returns the last known state. Unknown counts as online.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.known || m.online
}

// Run probes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Probe runs one health check and notifies listeners if the state changed.
func (m *Monitor) Probe(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.Health(pctx)
	cancel()

	// Отмена родительского контекста не означает потерю сети
	if err != nil && ctx.Err() != nil {
		return m.Online()
	}

	online := err == nil

	m.mu.Lock()
	changed := !m.known || m.online != online
	m.known = true
	m.online = online
	listeners := make([]func(bool), 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	if changed {
		if online {
			m.logger.Info("Remote is reachable")
		} else {
			m.logger.Warn("Remote is unreachable", "error", err)
		}
		for _, l := range listeners {
			l(online)
		}
	}
	return online
}
