package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/autosave/internal/client/storage"
)

// PutBackup stores value under key, replacing the previous value
func (s *Storage) PutBackup(ctx context.Context, key string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}

	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return fmt.Errorf("backup %q is %d bytes, limit %d: %w", key, len(value), s.maxValueBytes, storage.ErrQuotaExceeded)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBackups)
		if bucket == nil {
			return fmt.Errorf("backups bucket not found")
		}

		// Put заменяет предыдущее значение: по ключу всегда один бэкап
		if err := bucket.Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to save backup: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// GetBackup returns the value stored under key
func (s *Storage) GetBackup(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var value []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBackups)
		if bucket == nil {
			return storage.ErrBackupNotFound
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrBackupNotFound
		}

		// Значение валидно только внутри транзакции - копируем
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return value, nil
}

// DeleteBackup removes the value stored under key
func (s *Storage) DeleteBackup(ctx context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBackups)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})

	if err != nil {
		return fmt.Errorf("delete transaction failed: %w", err)
	}

	return nil
}
