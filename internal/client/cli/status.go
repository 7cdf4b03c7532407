package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/autosave/internal/client/buffer"
	"github.com/iudanet/autosave/internal/models"
)

// statusView данные шаблона status
type statusView struct {
	LastSyncedAt  time.Time
	BackupSavedAt time.Time
	Surface       string
	ID            string
	BackupAge     time.Duration
	BackupBytes   int
	HasBackup     bool
}

// runStatus показывает время последней синхронизации и локальный бэкап записи
func (c *Cli) runStatus(ctx context.Context, args []string) error {
	surface, id, err := parseTarget("status", args)
	if err != nil {
		return err
	}

	key := buffer.Key(surface, id)
	view := statusView{Surface: surface, ID: id}

	if c.metadata != nil {
		at, err := c.metadata.GetLastSyncedAt(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to get sync metadata: %w", err)
		}
		view.LastSyncedAt = at
	}

	backup := c.buffer.Load(ctx, key)
	if backup != nil {
		savedAt, err := backup.SavedAt()
		if err == nil {
			view.HasBackup = true
			view.BackupSavedAt = savedAt
			view.BackupAge = max(c.now().Sub(savedAt), 0)
			view.BackupBytes = len(backup.Payload)
		}
	}

	if err := statusTmpl.Execute(c.io, view); err != nil {
		return fmt.Errorf("failed to render status: %w", err)
	}

	if view.HasBackup {
		c.io.Println()
		c.io.Println("Unsaved changes (offered on the next edit):")
		c.showPlan(models.Entity{ID: id, Payload: backup.Payload})
	} else {
		c.io.Println()
		c.io.Println("✓ No unsaved local changes")
	}

	return nil
}
