package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autosave/internal/models"
)

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, models.StatusIdle, m.Status())

	var seen []models.SyncStatus
	unsubscribe := m.Subscribe(func(s Snapshot) {
		seen = append(seen, s.Status)
	})
	defer unsubscribe()

	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.Begin(TriggerEdit))
	require.NoError(t, m.Succeed(at))

	assert.Equal(t, []models.SyncStatus{models.StatusSaving, models.StatusSaved}, seen)

	snap := m.Snapshot()
	require.NotNil(t, snap.LastSyncedAt)
	assert.True(t, snap.LastSyncedAt.Equal(at))
	assert.Nil(t, snap.PendingPayload)
	assert.NoError(t, snap.LastError)

	// saved -> saving на следующей правке
	require.NoError(t, m.Begin(TriggerEdit))
	assert.Equal(t, models.StatusSaving, m.Status())
}

func TestMachine_ErrorAndRetry(t *testing.T) {
	m := NewMachine()
	boom := errors.New("network down")

	require.NoError(t, m.Begin(TriggerEdit))
	require.NoError(t, m.Fail(boom))
	assert.Equal(t, models.StatusError, m.Status())
	assert.ErrorIs(t, m.Snapshot().LastError, boom)

	require.NoError(t, m.Begin(TriggerRetry))
	require.NoError(t, m.Fail(boom))

	// Новая правка выводит из error
	require.NoError(t, m.Begin(TriggerEdit))
	require.NoError(t, m.Succeed(time.Now()))
	assert.NoError(t, m.Snapshot().LastError)
}

func TestMachine_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(m *Machine)
		event   func(m *Machine) error
		want    models.SyncStatus
	}{
		{
			name:  "succeed from idle",
			event: func(m *Machine) error { return m.Succeed(time.Now()) },
			want:  models.StatusIdle,
		},
		{
			name:  "fail from idle",
			event: func(m *Machine) error { return m.Fail(errors.New("x")) },
			want:  models.StatusIdle,
		},
		{
			name:  "retry from idle",
			event: func(m *Machine) error { return m.Begin(TriggerRetry) },
			want:  models.StatusIdle,
		},
		{
			name: "begin while saving",
			prepare: func(m *Machine) {
				_ = m.Begin(TriggerEdit)
			},
			event: func(m *Machine) error { return m.Begin(TriggerFlush) },
			want:  models.StatusSaving,
		},
		{
			name: "retry from saved",
			prepare: func(m *Machine) {
				_ = m.Begin(TriggerEdit)
				_ = m.Succeed(time.Now())
			},
			event: func(m *Machine) error { return m.Begin(TriggerRetry) },
			want:  models.StatusSaved,
		},
		{
			name: "fail from error",
			prepare: func(m *Machine) {
				_ = m.Begin(TriggerEdit)
				_ = m.Fail(errors.New("first"))
			},
			event: func(m *Machine) error { return m.Fail(errors.New("second")) },
			want:  models.StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			if tt.prepare != nil {
				tt.prepare(m)
			}
			var notified bool
			m.Subscribe(func(Snapshot) { notified = true })

			err := tt.event(m)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.want, m.Status())
			assert.False(t, notified)
		})
	}
}

func TestMachine_PendingAndSuperseded(t *testing.T) {
	m := NewMachine()
	pending := models.Entity{ID: "p1", Payload: json.RawMessage(`{"v":2}`)}

	m.SetPending(&pending)
	pending.Payload[1] = 'X'

	snap := m.Snapshot()
	require.NotNil(t, snap.PendingPayload)
	assert.JSONEq(t, `{"v":2}`, string(snap.PendingPayload.Payload))

	require.NoError(t, m.Begin(TriggerEdit))
	at := time.Now()
	require.NoError(t, m.Superseded(at))

	snap = m.Snapshot()
	assert.Equal(t, models.StatusSaving, snap.Status)
	assert.NotNil(t, snap.PendingPayload)
	require.NotNil(t, snap.LastSyncedAt)

	require.NoError(t, m.Succeed(at.Add(time.Second)))
	assert.Nil(t, m.Snapshot().PendingPayload)
}

func TestMachine_RestoreAndUnsubscribe(t *testing.T) {
	m := NewMachine()
	m.Restore(time.Time{})
	assert.Nil(t, m.Snapshot().LastSyncedAt)

	at := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	m.Restore(at)
	require.NotNil(t, m.Snapshot().LastSyncedAt)
	assert.Equal(t, models.StatusIdle, m.Status())

	var calls int
	unsubscribe := m.Subscribe(func(Snapshot) { calls++ })
	require.NoError(t, m.Begin(TriggerEdit))
	unsubscribe()
	require.NoError(t, m.Succeed(time.Now()))
	assert.Equal(t, 1, calls)
}

func TestMachine_ManualDispatch(t *testing.T) {
	m := NewMachine(WithManualDispatch())

	var seen []models.SyncStatus
	m.Subscribe(func(s Snapshot) {
		seen = append(seen, s.Status)
	})

	require.NoError(t, m.Begin(TriggerEdit))
	require.NoError(t, m.Fail(errors.New("timeout")))
	assert.Empty(t, seen, "snapshots wait for Dispatch")

	m.Dispatch()
	assert.Equal(t, []models.SyncStatus{models.StatusSaving, models.StatusError}, seen)

	m.Dispatch()
	assert.Len(t, seen, 2)
}

func TestMachine_ListenerCallsBack(t *testing.T) {
	m := NewMachine()

	var seen []models.SyncStatus
	m.Subscribe(func(s Snapshot) {
		seen = append(seen, s.Status)
		// Слушатель читает и меняет машину изнутри уведомления
		_ = m.Snapshot()
		if s.Status == models.StatusSaving && len(seen) == 1 {
			require.NoError(t, m.Succeed(time.Now()))
		}
	})

	require.NoError(t, m.Begin(TriggerEdit))
	assert.Equal(t, []models.SyncStatus{models.StatusSaving, models.StatusSaved}, seen)
	assert.Equal(t, models.StatusSaved, m.Status())
}

func TestMachine_PanickingListenerDoesNotStopDelivery(t *testing.T) {
	m := NewMachine()

	var calls int
	m.Subscribe(func(Snapshot) {
		calls++
		if calls == 1 {
			panic("listener bug")
		}
	})

	assert.Panics(t, func() { _ = m.Begin(TriggerEdit) })
	require.NoError(t, m.Succeed(time.Now()))
	assert.Equal(t, 2, calls)
}

func TestMachine_ConcurrentReaders(t *testing.T) {
	m := NewMachine()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Snapshot()
			}
		}()
	}
	for i := 0; i < 50; i++ {
		require.NoError(t, m.Begin(TriggerEdit))
		require.NoError(t, m.Succeed(time.Now()))
	}
	wg.Wait()
}

func TestIndicator(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-500 * time.Millisecond)
	old := now.Add(-3 * time.Second)

	tests := []struct {
		name string
		snap Snapshot
		want string
	}{
		{name: "idle", snap: Snapshot{Status: models.StatusIdle}, want: LabelNone},
		{name: "saving", snap: Snapshot{Status: models.StatusSaving}, want: LabelSaving},
		{name: "error", snap: Snapshot{Status: models.StatusError}, want: LabelFailed},
		{name: "saved recently", snap: Snapshot{Status: models.StatusSaved, LastSyncedAt: &recent}, want: LabelSaved},
		{name: "saved long ago", snap: Snapshot{Status: models.StatusSaved, LastSyncedAt: &old}, want: LabelNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Indicator(tt.snap, now, DefaultSavedWindow))
		})
	}
}

func TestTrigger_String(t *testing.T) {
	assert.Equal(t, "edit", TriggerEdit.String())
	assert.Equal(t, "retry", TriggerRetry.String())
	assert.Equal(t, "flush", TriggerFlush.String())
	assert.Equal(t, "unknown", Trigger(9).String())
}
