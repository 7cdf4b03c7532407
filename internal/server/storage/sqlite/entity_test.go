package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autosave/internal/server/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), filepath.Join(t.TempDir(), "server.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func TestStorage_ImplementsEntityStorage(t *testing.T) {
	var _ storage.EntityStorage = (*Storage)(nil)
}

func TestStorage_PutEntity_Create(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	fixed := time.Date(2026, 10, 16, 9, 0, 0, 123, time.UTC)
	s.now = func() time.Time { return fixed }

	got, err := s.PutEntity(ctx, "daily-plan", "p1", json.RawMessage(`{"title":"Plan"}`))
	require.NoError(t, err)

	assert.Equal(t, "daily-plan", got.Surface)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, int64(1), got.Revision)
	assert.JSONEq(t, `{"title":"Plan"}`, string(got.Payload))
	assert.True(t, fixed.Equal(got.CreatedAt))
	assert.True(t, fixed.Equal(got.UpdatedAt))
}

func TestStorage_PutEntity_Update(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	created := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }
	_, err := s.PutEntity(ctx, "daily-plan", "p1", json.RawMessage(`{"title":"A"}`))
	require.NoError(t, err)

	updated := created.Add(time.Minute)
	s.now = func() time.Time { return updated }
	got, err := s.PutEntity(ctx, "daily-plan", "p1", json.RawMessage(`{"title":"B"}`))
	require.NoError(t, err)

	assert.Equal(t, int64(2), got.Revision)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, updated.Equal(got.UpdatedAt))

	stored, err := s.GetEntity(ctx, "daily-plan", "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"B"}`, string(stored.Payload))
	assert.Equal(t, int64(2), stored.Revision)
	assert.True(t, created.Equal(stored.CreatedAt))
}

func TestStorage_PutEntity_SamePayloadBumpsRevision(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	payload := json.RawMessage(`{"title":"A"}`)
	for i := 1; i <= 3; i++ {
		got, err := s.PutEntity(ctx, "daily-plan", "p1", payload)
		require.NoError(t, err)
		assert.Equal(t, int64(i), got.Revision)
	}
}

func TestStorage_GetEntity(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	_, err := s.PutEntity(ctx, "daily-plan", "p1", json.RawMessage(`{"title":"plan"}`))
	require.NoError(t, err)
	_, err = s.PutEntity(ctx, "task", "p1", json.RawMessage(`{"title":"task"}`))
	require.NoError(t, err)

	tests := []struct {
		wantErr     error
		name        string
		surface     string
		id          string
		wantPayload string
	}{
		{
			name:        "daily plan",
			surface:     "daily-plan",
			id:          "p1",
			wantPayload: `{"title":"plan"}`,
		},
		{
			name:        "same id on another surface",
			surface:     "task",
			id:          "p1",
			wantPayload: `{"title":"task"}`,
		},
		{
			name:    "unknown id",
			surface: "daily-plan",
			id:      "p2",
			wantErr: storage.ErrEntityNotFound,
		},
		{
			name:    "unknown surface",
			surface: "note",
			id:      "p1",
			wantErr: storage.ErrEntityNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetEntity(ctx, tt.surface, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.surface, got.Surface)
			assert.Equal(t, tt.id, got.ID)
			assert.JSONEq(t, tt.wantPayload, string(got.Payload))
		})
	}
}

func TestStorage_PutEntity_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.PutEntity(ctx, "daily-plan", "p1", json.RawMessage(`{}`))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetEntity(ctx, "daily-plan", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(writers), got.Revision)
}

func TestStorage_Migrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "server.sqlite")

	s, err := New(ctx, dbPath)
	require.NoError(t, err)
	_, err = s.PutEntity(ctx, "daily-plan", "p1", json.RawMessage(`{"title":"kept"}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetEntity(ctx, "daily-plan", "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"kept"}`, string(got.Payload))
}

func TestStorage_Ping(t *testing.T) {
	s := setupTestStorage(t)
	assert.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
