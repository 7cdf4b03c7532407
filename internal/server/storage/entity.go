package storage

import (
	"context"
	"encoding/json"

	"github.com/iudanet/autosave/internal/models"
)

// EntityStorage defines interface for the system of record of editable entities
type EntityStorage interface {
	// PutEntity creates or replaces the payload of (surface, id).
	// Every call increments the revision, even for an identical payload
	// Returns the stored entity
	PutEntity(ctx context.Context, surface, id string, payload json.RawMessage) (*models.StoredEntity, error)

	// GetEntity retrieves an entity by surface and id
	// Returns ErrEntityNotFound if entity doesn't exist
	GetEntity(ctx context.Context, surface, id string) (*models.StoredEntity, error)

	// Ping checks that the storage is reachable
	Ping(ctx context.Context) error
}
