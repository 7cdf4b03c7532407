// Package exitguard protects unsaved edits when the host is about to go
// away: on unload it forces a synchronous local save and asks the host to
// confirm, on backgrounding it also starts a best-effort remote flush.
package exitguard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFlushTimeout ограничивает фоновую отправку при уходе в фон
const DefaultFlushTimeout = 5 * time.Second

// Guard is safe for concurrent and repeated use. A disarmed guard does nothing.
type Guard struct {
	logger *slog.Logger

	mu          sync.Mutex
	hasUnsaved  func() bool
	onFinalSave func()
	flush       func(ctx context.Context) error
	timeout     time.Duration
	armed       bool

	flushing atomic.Bool
	wg       sync.WaitGroup
}

// ArmOption настраивает Arm.
type ArmOption func(*Guard)

// WithBackgroundFlush задает удаленную отправку, которую HandleBackground
// запускает без ожидания результата.
func WithBackgroundFlush(flush func(ctx context.Context) error) ArmOption {
	return func(g *Guard) {
		g.flush = flush
	}
}

// WithFlushTimeout ограничивает время фоновой отправки.
func WithFlushTimeout(d time.Duration) ArmOption {
	return func(g *Guard) {
		g.timeout = d
	}
}

// New returns a disarmed guard.
func New(logger *slog.Logger) *Guard {
	return &Guard{logger: logger}
}

// Arm activates the guard for an edit session, replacing any previous arming.
// onFinalSave must write the local durability buffer synchronously.
func (g *Guard) Arm(hasUnsavedChanges func() bool, onFinalSave func(), opts ...ArmOption) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.hasUnsaved = hasUnsavedChanges
	g.onFinalSave = onFinalSave
	g.flush = nil
	g.timeout = DefaultFlushTimeout
	for _, opt := range opts {
		opt(g)
	}
	g.armed = true
}

// Disarm deactivates the guard. Background flushes already started keep running.
func (g *Guard) Disarm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = false
	g.hasUnsaved = nil
	g.onFinalSave = nil
	g.flush = nil
}

// Armed reports whether the guard is active.
func (g *Guard) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed
}

// HandleUnload runs the final local save when there are unsaved changes and
// reports whether the host should ask the user to confirm leaving.
func (g *Guard) HandleUnload() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.saveLocked("unload")
}

// HandleBackground runs the final local save and starts a remote flush
// without waiting for it. At most one background flush runs at a time.
func (g *Guard) HandleBackground() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.saveLocked("background") || g.flush == nil {
		return
	}

	if !g.flushing.CompareAndSwap(false, true) {
		g.logger.Debug("Background flush already running")
		return
	}

	flush := g.flush
	timeout := g.timeout
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.flushing.Store(false)

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := flush(ctx); err != nil {
			g.logger.Warn("Background flush failed", "error", err)
			return
		}
		g.logger.Debug("Background flush completed")
	}()
}

// Wait blocks until background flushes started so far have finished.
func (g *Guard) Wait() {
	g.wg.Wait()
}

// saveLocked returns true if there were unsaved changes and the final save ran.
func (g *Guard) saveLocked(reason string) (saved bool) {
	if !g.armed || g.hasUnsaved == nil || !g.hasUnsaved() {
		return false
	}

	// Обработчик выхода не должен ронять хост
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Final local save panicked", "reason", reason, "panic", r)
			saved = true
		}
	}()

	if g.onFinalSave != nil {
		g.onFinalSave()
	}
	g.logger.Debug("Final local save done", "reason", reason)
	return true
}
