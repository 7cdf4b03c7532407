package storage

import (
	"context"
	"time"
)

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client sync metadata
type MetadataStorage interface {
	// SaveLastSyncedAt saves the time of the last successful remote write for key
	SaveLastSyncedAt(ctx context.Context, key string, at time.Time) error

	// GetLastSyncedAt retrieves the time of the last successful remote write for key
	// Returns zero time if the key has never been synced
	GetLastSyncedAt(ctx context.Context, key string) (time.Time, error)
}
