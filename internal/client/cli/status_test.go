package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autosave/internal/client/buffer"
	"github.com/iudanet/autosave/internal/client/storage"
)

func TestCli_Status_NothingPending(t *testing.T) {
	env := newTestEnv(t)
	ioMock, out, _ := scriptIO(t, nil, false, false)

	require.NoError(t, env.cli(ioMock).Run(context.Background(), "status", []string{testPlanID}))

	output := out.String()
	assert.Contains(t, output, "Entity:       daily-plan/2026-10-16")
	assert.Contains(t, output, "Last synced:  never")
	assert.Contains(t, output, "Local backup: none")
	assert.Contains(t, output, "✓ No unsaved local changes")
}

func TestCli_Status_WithBackup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	syncedAt := testNow.Add(-time.Hour)
	require.NoError(t, env.store.SaveLastSyncedAt(ctx, buffer.Key(SurfaceDailyPlan, testPlanID), syncedAt))
	env.seedBackup(t, SurfaceDailyPlan, testPlanID, DailyPlan{Title: "Pending", Tasks: []Task{{Text: "write report"}}}, 90*time.Second)

	ioMock, out, _ := scriptIO(t, nil, false, false)
	require.NoError(t, env.cli(ioMock).Run(ctx, "status", []string{testPlanID}))

	output := out.String()
	assert.Contains(t, output, "Last synced:  "+syncedAt.Local().Format(time.RFC3339))
	assert.Contains(t, output, "Local backup: saved 1m30s ago")
	assert.Contains(t, output, "Unsaved changes (offered on the next edit):")
	assert.Contains(t, output, "=== Pending ===")
	assert.Contains(t, output, "1. [ ] write report")

	// status только читает бэкап
	assert.NotNil(t, env.buf.Load(ctx, buffer.Key(SurfaceDailyPlan, testPlanID)))
}

func TestCli_Status_MetadataError(t *testing.T) {
	env := newTestEnv(t)
	ioMock, _, _ := scriptIO(t, nil, false, false)

	c := env.cli(ioMock)
	c.metadata = &storage.MetadataStorageMock{
		GetLastSyncedAtFunc: func(ctx context.Context, key string) (time.Time, error) {
			return time.Time{}, errors.New("disk I/O error")
		},
	}

	err := c.Run(context.Background(), "status", []string{testPlanID})
	assert.ErrorContains(t, err, "failed to get sync metadata: disk I/O error")
}

func TestCli_Status_BadTarget(t *testing.T) {
	env := newTestEnv(t)
	ioMock, _, _ := scriptIO(t, nil, false, false)

	err := env.cli(ioMock).Run(context.Background(), "status", nil)
	assert.ErrorContains(t, err, "usage: autosave-client status")
}
