package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/autosave/internal/client/storage"
)

const (
	keyPrefixLastSyncedAt = "last_synced_at:"
)

// SaveLastSyncedAt saves the time of the last successful remote write for key
func (s *Storage) SaveLastSyncedAt(ctx context.Context, key string, at time.Time) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		// Храним UnixNano в big-endian
		tsBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(tsBytes, uint64(at.UnixNano()))

		if err := bucket.Put([]byte(keyPrefixLastSyncedAt+key), tsBytes); err != nil {
			return fmt.Errorf("failed to save last synced at: %w", err)
		}

		return nil
	})
}

// GetLastSyncedAt retrieves the time of the last successful remote write for key
// Returns zero time if the key has never been synced
func (s *Storage) GetLastSyncedAt(ctx context.Context, key string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return time.Time{}, storage.ErrStorageClosed
	}

	var at time.Time

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		tsBytes := bucket.Get([]byte(keyPrefixLastSyncedAt + key))
		if len(tsBytes) != 8 {
			// Еще не синхронизировались
			return nil
		}

		at = time.Unix(0, int64(binary.BigEndian.Uint64(tsBytes)))
		return nil
	})

	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last synced at: %w", err)
	}

	return at, nil
}
