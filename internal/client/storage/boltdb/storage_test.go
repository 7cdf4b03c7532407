package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func bucketsExist(t *testing.T, db *bbolt.DB) {
	t.Helper()
	require.NoError(t, db.View(func(tx *bbolt.Tx) error {
		assert.NotNil(t, tx.Bucket(bucketBackups), "backups bucket")
		assert.NotNil(t, tx.Bucket(bucketMetadata), "metadata bucket")
		return nil
	}))
}

func TestNewWithOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want int
	}{
		{name: "default quota", opts: Options{}, want: DefaultMaxValueBytes},
		{name: "custom quota", opts: Options{MaxValueBytes: 1024}, want: 1024},
		{name: "unlimited", opts: Options{MaxValueBytes: -1}, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewWithOptions(context.Background(), filepath.Join(t.TempDir(), "client.db"), tt.opts)
			require.NoError(t, err)
			defer store.Close()

			assert.Equal(t, tt.want, store.maxValueBytes)
			bucketsExist(t, store.db)
		})
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "missing-dir", "client.db"))
	assert.ErrorContains(t, err, "failed to open boltdb")
	assert.Nil(t, store)
}

func TestNew_LockedByAnotherHandle(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "locked.db")
	ctx := context.Background()

	first, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer first.Close()

	// Второй редактор на том же файле упирается в flock
	second, err := NewWithOptions(ctx, dbPath, Options{OpenTimeout: 50 * time.Millisecond})
	assert.Error(t, err)
	assert.Nil(t, second)
}

func TestStorage_BackupSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()
	syncedAt := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.PutBackup(ctx, "autosave:daily-plan:p1", []byte(`{"entityId":"p1"}`)))
	require.NoError(t, store.SaveLastSyncedAt(ctx, "autosave:daily-plan:p1", syncedAt))
	require.NoError(t, store.Close())

	// Процесс упал и запустился снова
	store, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	value, err := store.GetBackup(ctx, "autosave:daily-plan:p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"entityId":"p1"}`, string(value))

	got, err := store.GetLastSyncedAt(ctx, "autosave:daily-plan:p1")
	require.NoError(t, err)
	assert.True(t, syncedAt.Equal(got))
}

func TestClose_Twice(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.Nil(t, store.db)
	assert.NoError(t, store.Close())
}

func TestInitBuckets_ExistingFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "client.db")

	// Файл от старой версии без наших бакетов
	db, err := bbolt.Open(dbPath, 0600, nil)
	require.NoError(t, err)
	defer db.Close()

	store := &Storage{db: db}
	require.NoError(t, store.initBuckets())
	// повторный вызов ничего не ломает
	require.NoError(t, store.initBuckets())

	bucketsExist(t, db)
}
