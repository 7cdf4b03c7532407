package autosync

import (
	"context"

	"github.com/iudanet/autosave/internal/models"
)

//go:generate moq -out saver_mock.go . Saver

// Saver is the remote save operation. Any returned error is treated as a failed write.
type Saver interface {
	Save(ctx context.Context, entity models.Entity) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, entity models.Entity) error

// Save calls f.
func (f SaverFunc) Save(ctx context.Context, entity models.Entity) error {
	return f(ctx, entity)
}

// Buffer is the part of the local durability buffer the scheduler needs.
type Buffer interface {
	ClearIfCurrent(ctx context.Context, key string, synced models.Entity) bool
}
