// Package autosync implements the remote sync scheduler: it debounces edits
// of one entity and drives writes to the remote save operation with a fixed
// retry delay, offline deferral and a single write in flight.
package autosync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iudanet/autosave/internal/client/status"
	"github.com/iudanet/autosave/internal/client/storage"
	"github.com/iudanet/autosave/internal/models"
)

// State is the UI status surface of the scheduler.
type State struct {
	LastSyncedAt *time.Time
	LastError    error
	Status       models.SyncStatus
	IsOnline     bool
}

// write одна удаленная запись
type write struct {
	done    chan struct{}
	entity  models.Entity
	version uint64
	attempt int
	trigger status.Trigger
}

// Scheduler syncs one entity of one edit surface.
type Scheduler struct {
	saver    Saver
	buffer   Buffer
	metadata storage.MetadataStorage
	machine  *status.Machine
	logger   *slog.Logger
	now      func() time.Time

	key string
	cfg Config

	online atomic.Bool

	mu sync.Mutex
	wg sync.WaitGroup

	// pending последняя правка, еще не подтвержденная сервером
	pending  *models.Entity
	inFlight chan struct{}

	debounce    *time.Timer
	retryTimer  *time.Timer
	debounceGen uint64
	retryGen    uint64

	// version растет с каждой правкой, по нему видно что запись устарела
	version uint64
	retry   models.RetryState

	onlineListeners map[int]func(State)
	nextListenerID  int

	queued   bool // queued новая правка ждет завершения записи в полете
	deferred bool // deferred запись отложена до появления сети
	disposed bool
}

// Option настраивает Scheduler.
type Option func(*Scheduler)

// WithClock подменяет источник времени для lastSyncedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithOnline задает начальное состояние сети (по умолчанию online).
func WithOnline(online bool) Option {
	return func(s *Scheduler) {
		s.online.Store(online)
	}
}

// New creates a scheduler for the buffer key. buffer and metadata may be nil.
// The last sync time persisted in metadata is restored into the status.
func New(
	ctx context.Context,
	cfg Config,
	key string,
	saver Saver,
	buffer Buffer,
	metadata storage.MetadataStorage,
	logger *slog.Logger,
	opts ...Option,
) *Scheduler {
	s := &Scheduler{
		saver:           saver,
		buffer:          buffer,
		metadata:        metadata,
		machine:         status.NewMachine(status.WithManualDispatch()),
		logger:          logger,
		now:             time.Now,
		key:             key,
		cfg:             cfg.withDefaults(),
		onlineListeners: make(map[int]func(State)),
	}
	s.online.Store(true)
	for _, opt := range opts {
		opt(s)
	}

	if metadata != nil {
		at, err := metadata.GetLastSyncedAt(ctx, key)
		if err != nil {
			logger.Warn("Failed to load last sync time", "key", key, "error", err)
		} else {
			s.machine.Restore(at)
		}
	}

	return s
}

// Schedule records entity as the latest edit and restarts the debounce timer.
// Entities without an id are ignored.
func (s *Scheduler) Schedule(entity models.Entity) {
	if !entity.HasID() {
		return
	}

	s.mu.Lock()
	defer s.machine.Dispatch()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	s.setPendingLocked(entity)

	// Правка после неудачи сразу показывает, что изменения снова в работе
	if s.machine.Status() == models.StatusError {
		if err := s.machine.Begin(status.TriggerEdit); err != nil {
			s.logger.Warn("Unexpected status transition", "key", s.key, "error", err)
		}
	}

	// Новая правка отменяет повторы неудачной записи
	if s.retry.Attempt > 0 {
		s.logger.Debug("New edit supersedes failed write", "key", s.key, "attempt", s.retry.Attempt)
	}
	s.retry.Reset()
	s.stopRetryLocked()

	s.stopDebounceLocked()
	s.debounceGen++
	gen := s.debounceGen
	s.debounce = time.AfterFunc(s.cfg.Debounce, func() {
		s.fire(false, gen)
	})
}

// FlushNow cancels pending timers, waits for a write in flight and writes
// entity immediately. The result is returned and reflected in the status.
// A write in flight is never cancelled; ctx only bounds the wait for it.
func (s *Scheduler) FlushNow(ctx context.Context, entity models.Entity) error {
	if !entity.HasID() {
		return ErrNoEntity
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.setPendingLocked(entity)

	for {
		s.stopDebounceLocked()
		s.stopRetryLocked()
		s.retry.Reset()

		if s.inFlight == nil {
			break
		}
		done := s.inFlight
		s.mu.Unlock()
		s.machine.Dispatch()

		select {
		case <-done:
		case <-ctx.Done():
			// Правка уйдет сразу после записи в полете
			s.mu.Lock()
			if !s.disposed {
				s.queued = true
			}
			s.mu.Unlock()
			return ctx.Err()
		}

		s.mu.Lock()
		if s.disposed {
			s.mu.Unlock()
			s.machine.Dispatch()
			return ErrDisposed
		}
	}

	// Последняя правка уже подтверждена записью, которую мы ждали
	if s.pending == nil {
		s.mu.Unlock()
		s.machine.Dispatch()
		return nil
	}

	if !s.online.Load() {
		s.deferred = true
		s.mu.Unlock()
		s.machine.Dispatch()
		s.logger.Info("Flush deferred until connectivity returns", "key", s.key)
		return ErrOffline
	}

	w := s.startLocked(status.TriggerFlush)
	s.mu.Unlock()

	if w == nil {
		s.machine.Dispatch()
		return nil
	}

	// Запись идет в своей горутине: слушатель saving может сам вызвать FlushNow
	result := make(chan error, 1)
	go func() {
		result <- s.run(ctx, w)
	}()
	s.machine.Dispatch()
	return <-result
}

// SetOnline records a connectivity change. Going online triggers a deferred
// write immediately.
func (s *Scheduler) SetOnline(online bool) {
	s.mu.Lock()
	prev := s.online.Swap(online)

	var w *write
	if online && !prev && !s.disposed {
		s.logger.Info("Connectivity restored", "key", s.key, "deferred", s.deferred)
		if s.deferred {
			s.deferred = false
			w = s.startLocked(status.TriggerEdit)
		}
	} else if !online && prev {
		s.logger.Info("Connectivity lost", "key", s.key)
	}

	var listeners []func(State)
	if online != prev {
		listeners = make([]func(State), 0, len(s.onlineListeners))
		for _, l := range s.onlineListeners {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	if w != nil {
		go func() {
			_ = s.run(context.Background(), w)
		}()
	}
	s.machine.Dispatch()

	state := s.State()
	for _, l := range listeners {
		l(state)
	}
}

// State returns the current status surface.
func (s *Scheduler) State() State {
	return s.stateFrom(s.machine.Snapshot())
}

func (s *Scheduler) stateFrom(snap status.Snapshot) State {
	return State{
		Status:       snap.Status,
		LastSyncedAt: snap.LastSyncedAt,
		LastError:    snap.LastError,
		IsOnline:     s.online.Load(),
	}
}

// HasUnsavedChanges reports whether an edit is not yet confirmed by the remote.
func (s *Scheduler) HasUnsavedChanges() bool {
	return s.machine.Snapshot().PendingPayload != nil
}

// Retry returns the current retry state.
func (s *Scheduler) Retry() models.RetryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retry
}

// Subscribe registers l for status transitions and connectivity changes.
// l is called in transition order with no scheduler lock held, so it may
// read the state and call any method of the scheduler.
func (s *Scheduler) Subscribe(l func(State)) func() {
	unsubscribe := s.machine.Subscribe(func(snap status.Snapshot) {
		l(s.stateFrom(snap))
	})

	s.mu.Lock()
	id := s.nextListenerID
	s.nextListenerID++
	s.onlineListeners[id] = l
	s.mu.Unlock()

	return func() {
		unsubscribe()
		s.mu.Lock()
		delete(s.onlineListeners, id)
		s.mu.Unlock()
	}
}

// Dispose cancels all timers and waits for the write in flight, if any.
// Pending edits stay in the local buffer.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.stopDebounceLocked()
	s.stopRetryLocked()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Debug("Scheduler disposed", "key", s.key)
}

func (s *Scheduler) setPendingLocked(entity models.Entity) {
	cp := entity.Clone()
	s.pending = &cp
	s.version++
	s.machine.SetPending(&cp)
}

func (s *Scheduler) stopDebounceLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

func (s *Scheduler) stopRetryLocked() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	s.retry.NextDelay = 0
}

// fire вызывается таймером; gen отсекает таймеры, остановленные слишком поздно
func (s *Scheduler) fire(retry bool, gen uint64) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}

	trigger := status.TriggerEdit
	if retry {
		if gen != s.retryGen {
			s.mu.Unlock()
			return
		}
		s.retryTimer = nil
		trigger = status.TriggerRetry
	} else {
		if gen != s.debounceGen {
			s.mu.Unlock()
			return
		}
		s.debounce = nil
	}

	w := s.startLocked(trigger)
	s.mu.Unlock()

	if w != nil {
		go func() {
			_ = s.run(context.Background(), w)
		}()
	}
	s.machine.Dispatch()
}

// startLocked claims the write slot for the pending payload. It returns nil
// when there is nothing to send, the client is offline or a write is in flight.
func (s *Scheduler) startLocked(trigger status.Trigger) *write {
	if s.disposed || s.pending == nil {
		return nil
	}
	if !s.online.Load() {
		if !s.deferred {
			s.logger.Info("Remote write deferred: offline", "key", s.key)
		}
		s.deferred = true
		return nil
	}
	if s.inFlight != nil {
		s.queued = true
		return nil
	}

	s.deferred = false
	s.queued = false

	// После устаревшего успеха машина уже в saving
	if s.machine.Status() != models.StatusSaving {
		if err := s.machine.Begin(trigger); err != nil {
			s.logger.Warn("Unexpected status transition", "key", s.key, "error", err)
		}
	}

	w := &write{
		done:    make(chan struct{}),
		entity:  s.pending.Clone(),
		version: s.version,
		attempt: s.retry.Attempt + 1,
		trigger: trigger,
	}
	s.inFlight = w.done
	s.wg.Add(1)
	return w
}

func (s *Scheduler) run(ctx context.Context, w *write) error {
	defer s.wg.Done()

	// Запись в полете не отменяется вместе с контекстом вызывающего
	wctx := context.WithoutCancel(ctx)
	if s.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(wctx, s.cfg.WriteTimeout)
		defer cancel()
	}

	s.logger.Debug("Remote write started",
		"key", s.key,
		"entity_id", w.entity.ID,
		"trigger", w.trigger.String(),
		"attempt", w.attempt)

	started := time.Now()
	err := s.saver.Save(wctx, w.entity)
	if err != nil {
		err = fmt.Errorf("remote save failed: %w", err)
	}

	return s.finish(w, err, time.Since(started))
}

func (s *Scheduler) finish(w *write, err error, took time.Duration) error {
	s.mu.Lock()

	superseded := s.version != w.version
	var syncedAt time.Time

	if err == nil {
		s.retry.Reset()
		s.stopRetryLocked()
		syncedAt = s.now()

		cleared := !superseded && (s.buffer == nil || s.buffer.ClearIfCurrent(context.Background(), s.key, w.entity))
		if cleared {
			s.pending = nil
			if terr := s.machine.Succeed(syncedAt); terr != nil {
				s.logger.Warn("Unexpected status transition", "key", s.key, "error", terr)
			}
			s.logger.Info("Remote write succeeded",
				"key", s.key,
				"entity_id", w.entity.ID,
				"duration_ms", took.Milliseconds())
		} else {
			if terr := s.machine.Superseded(syncedAt); terr != nil {
				s.logger.Warn("Unexpected status transition", "key", s.key, "error", terr)
			}
			s.logger.Debug("Remote write succeeded but newer edit pending", "key", s.key)
		}
	} else {
		if terr := s.machine.Fail(err); terr != nil {
			s.logger.Warn("Unexpected status transition", "key", s.key, "error", terr)
		}

		switch {
		case superseded:
			// Новую правку отправит ее собственный таймер
			s.retry.Reset()
			s.logger.Warn("Remote write failed, newer edit pending",
				"key", s.key,
				"entity_id", w.entity.ID,
				"error", err)
		case s.disposed:
			s.logger.Warn("Remote write failed after dispose", "key", s.key, "error", err)
		case s.retry.Attempt < s.cfg.MaxRetries:
			s.retry.Attempt++
			s.retry.NextDelay = s.cfg.RetryDelay
			s.retryGen++
			gen := s.retryGen
			s.retryTimer = time.AfterFunc(s.cfg.RetryDelay, func() {
				s.fire(true, gen)
			})
			s.logger.Warn("Remote write failed, retry scheduled",
				"key", s.key,
				"entity_id", w.entity.ID,
				"attempt", s.retry.Attempt,
				"retry_in_ms", s.cfg.RetryDelay.Milliseconds(),
				"error", err)
		default:
			s.retry.NextDelay = 0
			s.logger.Error("Remote write failed, retries exhausted",
				"key", s.key,
				"entity_id", w.entity.ID,
				"attempt", s.retry.Attempt,
				"error", err)
		}
	}

	s.inFlight = nil
	close(w.done)

	var next *write
	if s.queued {
		next = s.startLocked(status.TriggerEdit)
	}
	s.mu.Unlock()

	if err == nil && s.metadata != nil {
		if merr := s.metadata.SaveLastSyncedAt(context.Background(), s.key, syncedAt); merr != nil && !errors.Is(merr, storage.ErrStorageClosed) {
			s.logger.Warn("Failed to persist last sync time", "key", s.key, "error", merr)
		}
	}

	if next != nil {
		go func() {
			_ = s.run(context.Background(), next)
		}()
	}

	s.machine.Dispatch()
	return err
}
