// Package status implements the save status observable consumed by UI
// indicators.
//
// The machine has no terminal state:
//
//	idle   --begin(edit)--> saving --succeed--> saved --begin(edit)--> saving
//	saving --fail--> error --begin(retry)--> saving
//	error  --begin(edit)--> saving
//
// A write that starts from any state other than idle, saved or error is an
// invalid transition; so are Succeed and Fail outside of saving.
package status

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/autosave/internal/models"
)

// ErrInvalidTransition is returned when an event is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid status transition")

// Trigger describes why a remote write started.
type Trigger int

const (
	TriggerEdit  Trigger = iota // TriggerEdit debounce timer fired after user edits
	TriggerRetry                // TriggerRetry retry timer fired after a failure
	TriggerFlush                // TriggerFlush explicit save, blur or exit flush
)

func (t Trigger) String() string {
	switch t {
	case TriggerEdit:
		return "edit"
	case TriggerRetry:
		return "retry"
	case TriggerFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of the machine.
type Snapshot struct {
	LastSyncedAt   *time.Time
	PendingPayload *models.Entity
	LastError      error
	Status         models.SyncStatus
}

// Listener receives a snapshot after every transition.
type Listener func(Snapshot)

// Option настраивает Machine.
type Option func(*Machine)

// WithManualDispatch оставляет снимки в очереди до явного вызова Dispatch.
// Нужен владельцу, который меняет состояние под своим мьютексом.
func WithManualDispatch() Option {
	return func(m *Machine) {
		m.manual = true
	}
}

// Machine is the save status state machine. It is safe for concurrent use.
type Machine struct {
	lastSyncedAt *time.Time
	pending      *models.Entity
	lastErr      error
	listeners    map[int]Listener
	queue        []Snapshot
	mu           sync.Mutex
	nextID       int
	status       models.SyncStatus
	manual       bool
	dispatching  bool
}

// NewMachine returns a machine in the idle state.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		status:    models.StatusIdle,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore seeds lastSyncedAt from persisted metadata without a transition.
func (m *Machine) Restore(lastSyncedAt time.Time) {
	if lastSyncedAt.IsZero() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	at := lastSyncedAt
	m.lastSyncedAt = &at
}

// SetPending records the payload waiting to be written. It does not change Status.
func (m *Machine) SetPending(entity *models.Entity) {
	m.mu.Lock()
	if entity == nil {
		m.pending = nil
	} else {
		cp := entity.Clone()
		m.pending = &cp
	}
	m.queue = append(m.queue, m.snapshotLocked())
	m.mu.Unlock()

	m.autoDispatch()
}

// Begin moves the machine to saving.
func (m *Machine) Begin(trigger Trigger) error {
	return m.transition(func() error {
		switch m.status {
		case models.StatusIdle, models.StatusSaved:
			if trigger == TriggerRetry {
				return fmt.Errorf("%w: retry from %s", ErrInvalidTransition, m.status)
			}
		case models.StatusError:
		default:
			return fmt.Errorf("%w: begin(%s) from %s", ErrInvalidTransition, trigger, m.status)
		}
		m.status = models.StatusSaving
		return nil
	})
}

// Succeed moves saving to saved and records the sync time.
func (m *Machine) Succeed(at time.Time) error {
	return m.transition(func() error {
		if m.status != models.StatusSaving {
			return fmt.Errorf("%w: succeed from %s", ErrInvalidTransition, m.status)
		}
		m.status = models.StatusSaved
		m.lastSyncedAt = &at
		m.lastErr = nil
		m.pending = nil
		return nil
	})
}

// Superseded records a successful write whose payload is already outdated
// by a newer edit. The machine stays in saving and keeps the pending payload.
func (m *Machine) Superseded(at time.Time) error {
	return m.transition(func() error {
		if m.status != models.StatusSaving {
			return fmt.Errorf("%w: superseded from %s", ErrInvalidTransition, m.status)
		}
		m.lastSyncedAt = &at
		m.lastErr = nil
		return nil
	})
}

// Fail moves saving to error.
func (m *Machine) Fail(err error) error {
	return m.transition(func() error {
		if m.status != models.StatusSaving {
			return fmt.Errorf("%w: fail from %s", ErrInvalidTransition, m.status)
		}
		m.status = models.StatusError
		m.lastErr = err
		return nil
	})
}

func (m *Machine) transition(apply func() error) error {
	m.mu.Lock()
	if err := apply(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.queue = append(m.queue, m.snapshotLocked())
	m.mu.Unlock()

	m.autoDispatch()
	return nil
}

func (m *Machine) autoDispatch() {
	if !m.manual {
		m.Dispatch()
	}
}

// Dispatch delivers queued snapshots to the listeners in transition order.
// Listeners run without any lock held and may call back into the machine
// and its owner. When another goroutine is already delivering, Dispatch
// returns at once and that goroutine delivers the new snapshots too.
func (m *Machine) Dispatch() {
	m.mu.Lock()
	if m.dispatching {
		m.mu.Unlock()
		return
	}
	m.dispatching = true

	defer func() {
		// Упавший слушатель не должен навсегда остановить доставку
		if r := recover(); r != nil {
			m.mu.Lock()
			m.dispatching = false
			m.mu.Unlock()
			panic(r)
		}
	}()

	for len(m.queue) > 0 {
		snap := m.queue[0]
		m.queue[0] = Snapshot{}
		m.queue = m.queue[1:]
		listeners := m.listenersLocked()
		m.mu.Unlock()

		for _, l := range listeners {
			l(snap)
		}

		m.mu.Lock()
	}
	m.queue = nil
	m.dispatching = false
	m.mu.Unlock()
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Status returns the current status.
func (m *Machine) Status() models.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Subscribe registers l and returns a function that removes it.
// Listeners run after the transition, outside the lock.
func (m *Machine) Subscribe(l Listener) func() {
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

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{Status: m.status, LastError: m.lastErr}
	if m.lastSyncedAt != nil {
		at := *m.lastSyncedAt
		snap.LastSyncedAt = &at
	}
	if m.pending != nil {
		p := m.pending.Clone()
		snap.PendingPayload = &p
	}
	return snap
}

func (m *Machine) listenersLocked() []Listener {
	ls := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		ls = append(ls, l)
	}
	return ls
}
