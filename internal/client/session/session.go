// Package session wires the autosave engine around one edit session: the
// local durability buffer, the remote sync scheduler, the restore reconciler
// and the exit guard share one lifecycle that starts with Open and ends
// with Close.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/autosave/internal/client/autosync"
	"github.com/iudanet/autosave/internal/client/buffer"
	"github.com/iudanet/autosave/internal/client/connectivity"
	"github.com/iudanet/autosave/internal/client/exitguard"
	"github.com/iudanet/autosave/internal/client/restore"
	"github.com/iudanet/autosave/internal/client/storage"
	"github.com/iudanet/autosave/internal/models"
)

var (
	// ErrClosed is returned by operations on a closed session
	ErrClosed = errors.New("edit session closed")

	// ErrEntityMismatch is returned when an edit carries another entity id
	ErrEntityMismatch = errors.New("edit belongs to another entity")
)

// Config настройки сессии редактирования
type Config struct {
	Sync          autosync.Config
	RestoreMaxAge time.Duration // RestoreMaxAge бэкапы старше не предлагаются к восстановлению
}

// DefaultConfig returns the reference timings.
func DefaultConfig() Config {
	return Config{
		Sync:          autosync.DefaultConfig(),
		RestoreMaxAge: restore.DefaultMaxAge,
	}
}

// Deps collaborators of a session. Buffer and Saver are required.
type Deps struct {
	Buffer   *buffer.Buffer
	Metadata storage.MetadataStorage
	Saver    autosync.Saver
	Monitor  *connectivity.Monitor // Monitor optional; without it the session assumes online
	Guard    *exitguard.Guard      // Guard optional; a new one is created when nil
	Logger   *slog.Logger
	Now      func() time.Time
	Config   Config
}

// State is the UI status surface.
type State = autosync.State

// Session is one edit session of one entity on one edit surface.
type Session struct {
	sched  *autosync.Scheduler
	guard  *exitguard.Guard
	buffer *buffer.Buffer
	logger *slog.Logger

	unsubscribeMonitor func()

	surface string
	key     string

	mu      sync.Mutex
	current models.Entity
	offer   *Offer
	// seq растет с каждой правкой; writing - правка сейчас пишется в буфер и планировщик
	seq     uint64
	writing bool
	closed  bool
}

// Open starts an edit session on the freshly loaded remote snapshot. It
// returns a restore offer when a local backup is worth restoring. A remote
// entity without an id gives an inert session that only keeps edits in memory.
func Open(ctx context.Context, deps Deps, surface string, remote models.Entity) (*Session, *Offer) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	guard := deps.Guard
	if guard == nil {
		guard = exitguard.New(logger)
	}

	s := &Session{
		guard:   guard,
		buffer:  deps.Buffer,
		logger:  logger.With("surface", surface),
		surface: surface,
		current: remote.Clone(),
	}

	if !remote.HasID() {
		s.logger.Debug("Entity has no id, autosave is inert")
		return s, nil
	}

	s.key = buffer.Key(surface, remote.ID)

	opts := []autosync.Option{autosync.WithClock(now)}
	if deps.Monitor != nil {
		opts = append(opts, autosync.WithOnline(deps.Monitor.Online()))
	}
	s.sched = autosync.New(ctx, deps.Config.Sync, s.key, deps.Saver, deps.Buffer, deps.Metadata, s.logger, opts...)

	if deps.Monitor != nil {
		s.unsubscribeMonitor = deps.Monitor.OnChange(s.sched.SetOnline)
	}

	maxAge := deps.Config.RestoreMaxAge
	if maxAge == 0 {
		maxAge = restore.DefaultMaxAge
	}
	reconciler := restore.New(deps.Buffer, s.logger, restore.WithClock(now))
	if ro := reconciler.Reconcile(ctx, s.key, remote, maxAge); ro != nil {
		s.offer = &Offer{
			Payload: ro.Payload,
			Age:     ro.Age,
			SavedAt: ro.SavedAt,
			inner:   ro,
			session: s,
		}
	}

	guard.Arm(
		s.sched.HasUnsavedChanges,
		s.finalSave,
		exitguard.WithBackgroundFlush(s.flush),
	)

	s.logger.Debug("Edit session opened", "key", s.key, "restore_offered", s.offer != nil)
	return s, s.offer
}

// Edit makes entity the current edit state: it is written to the local
// buffer synchronously and scheduled for a remote write.
//
// The buffer write and the scheduling run without the session lock, so
// subscribers may call back into the session. When Edit is called while
// another edit is being written (from a subscriber or another goroutine),
// it only records the state; the running call writes the newest state
// before it returns.
func (s *Session) Edit(ctx context.Context, entity models.Entity) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if entity.ID == "" {
		entity.ID = s.current.ID
	}
	if entity.ID != s.current.ID {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrEntityMismatch, entity.ID)
	}

	// Правка поверх удаленного состояния отменяет предложение восстановления
	if s.offer != nil && !s.offer.inner.Resolved() {
		s.offer.inner.Dismiss()
	}

	s.current = entity.Clone()
	s.seq++
	if s.sched == nil || s.writing {
		s.mu.Unlock()
		return nil
	}
	s.writing = true

	for {
		latest := s.current.Clone()
		seq := s.seq
		s.mu.Unlock()

		s.buffer.Save(ctx, s.key, latest)
		s.sched.Schedule(latest)

		s.mu.Lock()
		if s.seq == seq {
			s.writing = false
			s.mu.Unlock()
			return nil
		}
	}
}

// Save writes the current state to the remote immediately.
func (s *Session) Save(ctx context.Context) error {
	if s.sched == nil {
		return autosync.ErrNoEntity
	}
	if s.isClosed() {
		return ErrClosed
	}
	return s.sched.FlushNow(ctx, s.Current())
}

// Blur flushes unsaved changes when the edit surface loses focus.
func (s *Session) Blur(ctx context.Context) error {
	if s.sched == nil || !s.sched.HasUnsavedChanges() {
		return nil
	}
	return s.Save(ctx)
}

// Current returns the current edit state.
func (s *Session) Current() models.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Surface returns the edit surface name.
func (s *Session) Surface() string {
	return s.surface
}

// Inert reports whether autosave is disabled because the entity has no id.
func (s *Session) Inert() bool {
	return s.sched == nil
}

// State returns the status surface for a save indicator.
func (s *Session) State() State {
	if s.sched == nil {
		return State{Status: models.StatusIdle, IsOnline: true}
	}
	return s.sched.State()
}

// HasUnsavedChanges reports whether an edit is not yet confirmed by the remote.
func (s *Session) HasUnsavedChanges() bool {
	return s.sched != nil && s.sched.HasUnsavedChanges()
}

// Subscribe registers l for status and connectivity changes. l runs
// without session or scheduler locks held and may call any session method.
func (s *Session) Subscribe(l func(State)) func() {
	if s.sched == nil {
		return func() {}
	}
	return s.sched.Subscribe(l)
}

// Guard returns the exit guard armed for this session.
func (s *Session) Guard() *exitguard.Guard {
	return s.guard
}

// Offer returns the restore offer made at Open, or nil.
func (s *Session) Offer() *Offer {
	return s.offer
}

// Close disposes the session: the guard is disarmed, timers are cancelled,
// a write in flight is awaited and unsaved changes are kept in the local
// buffer. An unresolved restore offer is dismissed.
func (s *Session) Close() {
	// Guard берет свой мьютекс и вызывает finalSave, поэтому снимаем его до s.mu
	s.guard.Disarm()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.sched == nil {
		return
	}

	if s.unsubscribeMonitor != nil {
		s.unsubscribeMonitor()
	}
	if s.offer != nil {
		s.offer.inner.Dismiss()
	}

	s.sched.Dispose()
	if s.sched.HasUnsavedChanges() {
		s.finalSave()
	}
	s.logger.Debug("Edit session closed", "key", s.key)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// finalSave синхронно пишет текущее состояние в локальный буфер
func (s *Session) finalSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.Save(context.Background(), s.key, s.current)
}

func (s *Session) flush(ctx context.Context) error {
	return s.sched.FlushNow(ctx, s.Current())
}

// Offer is the restore prompt surface: the recovered payload, its age and
// the two possible decisions.
type Offer struct {
	SavedAt time.Time
	inner   *restore.Offer
	session *Session
	Payload models.Entity
	Age     time.Duration
}

// Accept replaces the current edit state with the recovered payload and
// schedules it for a remote write. It reports whether this call resolved the offer.
func (o *Offer) Accept(ctx context.Context) bool {
	payload, ok := o.inner.Accept()
	if !ok {
		return false
	}
	if err := o.session.Edit(ctx, payload); err != nil {
		o.session.logger.Warn("Failed to apply restored edit", "error", err)
		return false
	}
	o.session.logger.Info("Restored unsaved edit", "age", o.Age.String())
	return true
}

// Dismiss keeps the remote state and deletes the backup.
func (o *Offer) Dismiss() bool {
	return o.inner.Dismiss()
}

// Resolved reports whether Accept or Dismiss has been called.
func (o *Offer) Resolved() bool {
	return o.inner.Resolved()
}
