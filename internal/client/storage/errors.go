package storage

import "errors"

// Common client storage errors
var (
	// ErrBackupNotFound indicates that no local backup exists for the key
	ErrBackupNotFound = errors.New("local backup not found")

	// ErrQuotaExceeded indicates that the store refused a value because it is full
	ErrQuotaExceeded = errors.New("local storage quota exceeded")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
