package storage

import "context"

//go:generate moq -out backupstorage_mock.go . BackupStorage

// BackupStorage defines the client-local key-value store that holds
// unsaved edit state. Semantics follow getItem/setItem/removeItem:
// values are opaque bytes, a Put replaces any previous value for the key.
type BackupStorage interface {
	// PutBackup stores value under key, replacing the previous value
	// Returns ErrQuotaExceeded if the store cannot accept the value
	PutBackup(ctx context.Context, key string, value []byte) error

	// GetBackup returns the value stored under key
	// Returns ErrBackupNotFound if nothing is stored
	GetBackup(ctx context.Context, key string) ([]byte, error)

	// DeleteBackup removes the value stored under key
	// Deleting a missing key is not an error
	DeleteBackup(ctx context.Context, key string) error
}
