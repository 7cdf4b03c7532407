package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autosave/internal/client/buffer"
	"github.com/iudanet/autosave/internal/client/exitguard"
)

const testPlanID = "2026-10-16"

func TestCli_Edit_SavesOnQuit(t *testing.T) {
	env := newTestEnv(t)
	ioMock, out, _ := scriptIO(t, []string{
		"title Monday",
		"task buy milk",
		"task call mom",
		"done 1",
		"show",
		"quit",
	}, false, false)

	err := env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID})
	require.NoError(t, err)

	assert.Equal(t, DailyPlan{
		Date:  testPlanID,
		Title: "Monday",
		Tasks: []Task{{Text: "buy milk", Done: true}, {Text: "call mom"}},
	}, env.remote.plan(t, SurfaceDailyPlan, testPlanID))

	// debounce не истек, поэтому на сервер ушла ровно одна запись при выходе
	assert.Equal(t, 1, env.remote.saveCount())
	assert.Nil(t, env.buf.Load(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID)),
		"confirmed edit must not stay in the local buffer")

	output := out.String()
	assert.Contains(t, output, "=== Monday ===")
	assert.Contains(t, output, "1. [x] buy milk")
	assert.Contains(t, output, "2. [ ] call mom")
	assert.Contains(t, output, "✓ Saved")

	synced, err := env.store.GetLastSyncedAt(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID))
	require.NoError(t, err)
	assert.False(t, synced.IsZero())
}

func TestCli_Edit_EndOfInputSaves(t *testing.T) {
	env := newTestEnv(t)
	ioMock, _, _ := scriptIO(t, []string{"title Piped"}, false, false)

	require.NoError(t, env.cli(ioMock).Run(context.Background(), "edit", []string{"daily-plan", "p1"}))

	assert.Equal(t, "Piped", env.remote.plan(t, SurfaceDailyPlan, "p1").Title)
}

func TestCli_Edit_BufferedBeforeServerWrite(t *testing.T) {
	env := newTestEnv(t)
	ioMock, out, drained := scriptIO(t, []string{"title Draft", "status"}, false, true)

	c := env.cli(ioMock)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, "edit", []string{testPlanID})
	}()

	<-drained
	// Правка уже в локальном буфере, на сервер еще ничего не ушло
	backup := env.buf.Load(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID))
	require.NotNil(t, backup)
	assert.JSONEq(t, `{"date":"2026-10-16","title":"Draft","tasks":[]}`, string(backup.Payload))
	assert.Zero(t, env.remote.saveCount())
	assert.Contains(t, out.String(), "Entity: daily-plan/2026-10-16\nStatus: idle")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// Close сохранил несохраненную правку локально
	assert.NotNil(t, env.buf.Load(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID)))
}

func TestCli_Edit_SaveCommand(t *testing.T) {
	env := newTestEnv(t)
	ioMock, out, _ := scriptIO(t, []string{"note call back", "save", "quit"}, false, false)

	require.NoError(t, env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID}))

	assert.Equal(t, "call back", env.remote.plan(t, SurfaceDailyPlan, testPlanID).Notes)
	assert.Equal(t, 1, env.remote.saveCount(), "quit after save has nothing to send")
	assert.Contains(t, out.String(), "✓ Saved")
}

func TestCli_Edit_ServerFailureKeepsLocalCopy(t *testing.T) {
	env := newTestEnv(t)
	env.remote.saveErr = errors.New("server error (503): maintenance")
	ioMock, out, _ := scriptIO(t, []string{"title Unsent", "quit"}, false, false)

	require.NoError(t, env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID}))

	output := out.String()
	assert.Contains(t, output, "⚠️  Save failed")
	assert.Contains(t, output, "Changes are kept locally")

	backup := env.buf.Load(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID))
	require.NotNil(t, backup)
	assert.JSONEq(t, `{"date":"2026-10-16","title":"Unsent","tasks":[]}`, string(backup.Payload))
}

func TestCli_Edit_RestoreAccepted(t *testing.T) {
	env := newTestEnv(t)
	env.remote.entities["daily-plan/"+testPlanID] = json.RawMessage(`{"title":"Old","tasks":[]}`)
	env.seedBackup(t, SurfaceDailyPlan, testPlanID, DailyPlan{Title: "Recovered", Tasks: []Task{{Text: "unsent task"}}}, 10*time.Minute)

	ioMock, out, _ := scriptIO(t, []string{"y", "quit"}, true, false)

	require.NoError(t, env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID}))

	output := out.String()
	assert.Contains(t, output, "Found unsaved changes from 10m0s ago")
	assert.Contains(t, output, "✓ Restored")

	got := env.remote.plan(t, SurfaceDailyPlan, testPlanID)
	assert.Equal(t, "Recovered", got.Title)
	assert.Equal(t, []Task{{Text: "unsent task"}}, got.Tasks)
	assert.Nil(t, env.buf.Load(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID)))
}

func TestCli_Edit_RestoreDeclined(t *testing.T) {
	env := newTestEnv(t)
	env.remote.entities["daily-plan/"+testPlanID] = json.RawMessage(`{"title":"Old","tasks":[]}`)
	env.seedBackup(t, SurfaceDailyPlan, testPlanID, DailyPlan{Title: "Recovered"}, 10*time.Minute)

	ioMock, out, _ := scriptIO(t, []string{"n", "quit"}, true, false)

	require.NoError(t, env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID}))

	assert.Contains(t, out.String(), "Discarded the recovered changes.")
	assert.Equal(t, "Old", env.remote.plan(t, SurfaceDailyPlan, testPlanID).Title)
	assert.Zero(t, env.remote.saveCount())
	assert.Nil(t, env.buf.Load(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID)))
}

func TestCli_Edit_RestoreNotOfferedWithoutTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.seedBackup(t, SurfaceDailyPlan, testPlanID, DailyPlan{Title: "Recovered"}, 10*time.Minute)

	ioMock, out, _ := scriptIO(t, []string{"quit"}, false, false)

	require.NoError(t, env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID}))

	assert.Contains(t, out.String(), "Input is not a terminal")
	for _, call := range ioMock.ReadInputCalls() {
		assert.NotEqual(t, "Restore them? [y/N]: ", call.Prompt)
	}
	assert.Zero(t, env.remote.saveCount())
	// проигнорированное предложение снимается при закрытии
	assert.Nil(t, env.buf.Load(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID)))
}

func TestCli_Edit_StaleBackupIsDropped(t *testing.T) {
	env := newTestEnv(t)
	env.seedBackup(t, SurfaceDailyPlan, testPlanID, DailyPlan{Title: "Ancient"}, 2*time.Hour)

	ioMock, out, _ := scriptIO(t, []string{"quit"}, true, false)

	require.NoError(t, env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID}))

	assert.NotContains(t, out.String(), "Found unsaved changes")
	assert.Nil(t, env.buf.Load(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID)))
}

func TestCli_Edit_InterruptTwiceWithUnsavedChanges(t *testing.T) {
	env := newTestEnv(t)
	ioMock, out, drained := scriptIO(t, []string{"title Draft"}, false, true)

	c := env.cli(ioMock)
	c.watch = func(ctx context.Context, g *exitguard.Guard) <-chan exitguard.Event {
		events := make(chan exitguard.Event, 2)
		go func() {
			<-drained
			events <- exitguard.Event{Signal: os.Interrupt, Confirm: g.HandleUnload()}
			events <- exitguard.Event{Signal: os.Interrupt, Confirm: g.HandleUnload()}
		}()
		return events
	}

	require.NoError(t, c.Run(context.Background(), "edit", []string{testPlanID}))

	output := out.String()
	assert.Contains(t, output, "Press Ctrl+C again to quit")
	assert.Contains(t, output, "Unsaved changes are kept locally")
	assert.Zero(t, env.remote.saveCount())

	backup := env.buf.Load(context.Background(), buffer.Key(SurfaceDailyPlan, testPlanID))
	require.NotNil(t, backup)
	assert.JSONEq(t, `{"date":"2026-10-16","title":"Draft","tasks":[]}`, string(backup.Payload))
}

func TestCli_Edit_InterruptWithoutChangesExits(t *testing.T) {
	env := newTestEnv(t)
	ioMock, out, drained := scriptIO(t, nil, false, true)

	c := env.cli(ioMock)
	c.watch = func(ctx context.Context, g *exitguard.Guard) <-chan exitguard.Event {
		events := make(chan exitguard.Event, 1)
		go func() {
			<-drained
			events <- exitguard.Event{Signal: os.Interrupt, Confirm: g.HandleUnload()}
		}()
		return events
	}

	require.NoError(t, c.Run(context.Background(), "edit", []string{testPlanID}))
	assert.NotContains(t, out.String(), "Press Ctrl+C again")
}

func TestCli_Edit_LoadErrors(t *testing.T) {
	t.Run("server unreachable", func(t *testing.T) {
		env := newTestEnv(t)
		env.remote.fetchErr = errors.New("connection refused")
		ioMock, _, _ := scriptIO(t, nil, false, false)

		err := env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID})
		assert.ErrorContains(t, err, "failed to load daily-plan/2026-10-16: connection refused")
	})

	t.Run("payload is not a plan", func(t *testing.T) {
		env := newTestEnv(t)
		env.remote.entities["daily-plan/"+testPlanID] = json.RawMessage(`"text"`)
		ioMock, _, _ := scriptIO(t, nil, false, false)

		err := env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID})
		assert.ErrorContains(t, err, "unexpected payload")
	})
}

func TestCli_Edit_BadCommandsAreReported(t *testing.T) {
	env := newTestEnv(t)
	ioMock, out, _ := scriptIO(t, []string{"dance", "done 9", "quit"}, false, false)

	require.NoError(t, env.cli(ioMock).Run(context.Background(), "edit", []string{testPlanID}))

	output := out.String()
	assert.Contains(t, output, "Error: unknown command: dance (type 'help' for commands)")
	assert.Contains(t, output, "Error: no task #9")
	assert.Zero(t, env.remote.saveCount())
}
