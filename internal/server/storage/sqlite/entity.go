package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/autosave/internal/models"
	"github.com/iudanet/autosave/internal/server/storage"
)

// PutEntity creates or replaces the payload of (surface, id)
// Each write increments the revision
func (s *Storage) PutEntity(ctx context.Context, surface, id string, payload json.RawMessage) (*models.StoredEntity, error) {
	now := s.now().UTC()

	query := `
		INSERT INTO entities (surface, id, payload, revision, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(surface, id) DO UPDATE SET
			payload    = excluded.payload,
			revision   = entities.revision + 1,
			updated_at = excluded.updated_at
		RETURNING revision, created_at, updated_at
	`

	entity := &models.StoredEntity{
		Surface: surface,
		ID:      id,
		Payload: payload,
	}
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query,
		surface,
		id,
		[]byte(payload),
		now.UnixNano(),
		now.UnixNano(),
	).Scan(&entity.Revision, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save entity: %w", err)
	}

	entity.CreatedAt = unixNanoToTime(createdAt)
	entity.UpdatedAt = unixNanoToTime(updatedAt)

	return entity, nil
}

// GetEntity retrieves an entity by surface and id
// Returns ErrEntityNotFound if entity doesn't exist
func (s *Storage) GetEntity(ctx context.Context, surface, id string) (*models.StoredEntity, error) {
	query := `
		SELECT surface, id, payload, revision, created_at, updated_at
		FROM entities
		WHERE surface = ? AND id = ?
	`

	entity := &models.StoredEntity{}
	var payload []byte
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, surface, id).Scan(
		&entity.Surface,
		&entity.ID,
		&payload,
		&entity.Revision,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	entity.Payload = json.RawMessage(payload)
	entity.CreatedAt = unixNanoToTime(createdAt)
	entity.UpdatedAt = unixNanoToTime(updatedAt)

	return entity, nil
}

func unixNanoToTime(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
