// Package buffer implements the local durability buffer: a synchronous,
// best-effort copy of the current edit state in a client-local store.
//
// Save never returns an error to the caller. If the primary store refuses the
// write the value goes to the secondary store; if both fail the failure is
// logged and the edit continues from memory.
package buffer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/autosave/internal/client/storage"
	"github.com/iudanet/autosave/internal/models"
)

// KeyPrefix пространство имен ключей буфера в локальном хранилище
const KeyPrefix = "autosave"

// Key строит ключ бэкапа для пары (поверхность редактирования, entityID).
func Key(surface, entityID string) string {
	return KeyPrefix + ":" + surface + ":" + entityID
}

// entityIDFromKey возвращает entityID из ключа, построенного Key.
func entityIDFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, KeyPrefix+":")
	if !ok {
		return "", false
	}
	_, id, ok := strings.Cut(rest, ":")
	return id, ok && id != ""
}

// Buffer is the local durability buffer.
type Buffer struct {
	primary   storage.BackupStorage
	secondary storage.BackupStorage
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
	// last сериализованный payload последней успешной записи по ключу
	last map[string][]byte
	// reloaded ключи, прочитанные через Load после последней записи:
	// следующий Save по ним пишет всегда, чтобы обновить Timestamp
	reloaded map[string]struct{}
}

// Option настраивает Buffer.
type Option func(*Buffer)

// WithClock подменяет источник времени для поля Timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *Buffer) {
		b.now = now
	}
}

// New creates a buffer over primary and an optional secondary store.
func New(primary, secondary storage.BackupStorage, logger *slog.Logger, opts ...Option) *Buffer {
	b := &Buffer{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		now:       time.Now,
		last:      make(map[string][]byte),
		reloaded:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Save synchronously writes entity under key. It is called on every edit.
func (b *Buffer) Save(ctx context.Context, key string, entity models.Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Та же правка еще раз - ничего не пишем
	if prev, ok := b.last[key]; ok && bytes.Equal(prev, entity.Payload) {
		if _, reloaded := b.reloaded[key]; !reloaded {
			return
		}
	}

	data, err := json.Marshal(models.NewLocalBackup(entity, b.now()))
	if err != nil {
		b.logger.Warn("Failed to encode local backup", "key", key, "error", err)
		return
	}

	if b.primary != nil {
		err = b.primary.PutBackup(ctx, key, data)
		if err == nil {
			b.remember(key, entity.Payload)
			// Старую копию из вторичного хранилища убираем: бэкап по ключу один
			if b.secondary != nil {
				if err := b.secondary.DeleteBackup(ctx, key); err != nil {
					b.logger.Debug("Failed to drop secondary backup copy", "key", key, "error", err)
				}
			}
			return
		}

		level := slog.LevelWarn
		if errors.Is(err, storage.ErrQuotaExceeded) {
			level = slog.LevelInfo
		}
		b.logger.Log(ctx, level, "Primary local store rejected backup, falling back", "key", key, "error", err)
	}

	if b.secondary == nil {
		delete(b.last, key)
		b.logger.Warn("Local backup lost: no secondary store", "key", key)
		return
	}

	if err := b.secondary.PutBackup(ctx, key, data); err != nil {
		delete(b.last, key)
		b.logger.Warn("Local backup failed on all stores", "key", key, "error", err)
		return
	}
	b.remember(key, entity.Payload)

	// Устаревшая копия в основном хранилище не должна пережить новую правку
	if b.primary != nil {
		if err := b.primary.DeleteBackup(ctx, key); err != nil {
			b.logger.Debug("Failed to drop stale primary backup", "key", key, "error", err)
		}
	}
}

func (b *Buffer) remember(key string, payload json.RawMessage) {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	b.last[key] = cp
	delete(b.reloaded, key)
}

// Load returns the backup stored under key or nil. Missing, corrupt and
// unsupported entries are all reported as nil.
func (b *Buffer) Load(ctx context.Context, key string) *models.LocalBackup {
	b.mu.Lock()
	if _, ok := b.last[key]; ok {
		b.reloaded[key] = struct{}{}
	}
	b.mu.Unlock()

	for _, store := range []storage.BackupStorage{b.primary, b.secondary} {
		if store == nil {
			continue
		}
		if backup := b.loadFrom(ctx, store, key); backup != nil {
			return backup
		}
	}
	return nil
}

func (b *Buffer) loadFrom(ctx context.Context, store storage.BackupStorage, key string) *models.LocalBackup {
	data, err := store.GetBackup(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrBackupNotFound) {
			b.logger.Warn("Failed to read local backup", "key", key, "error", err)
		}
		return nil
	}

	var backup models.LocalBackup
	if err := json.Unmarshal(data, &backup); err != nil {
		b.logger.Warn("Ignoring corrupt local backup", "key", key, "error", err)
		return nil
	}
	if err := backup.Validate(); err != nil {
		b.logger.Warn("Ignoring invalid local backup", "key", key, "error", err)
		return nil
	}
	if id, ok := entityIDFromKey(key); ok && id != backup.EntityID {
		b.logger.Warn("Ignoring local backup of another entity", "key", key, "entity_id", backup.EntityID)
		return nil
	}

	return &backup
}

// Clear removes the backup for key from every store.
func (b *Buffer) Clear(ctx context.Context, key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearLocked(ctx, key)
}

// ClearIfCurrent removes the backup for key only if it still holds synced.
// It reports false when a newer edit has been buffered since synced was sent.
func (b *Buffer) ClearIfCurrent(ctx context.Context, key string, synced models.Entity) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.last[key]; ok && !models.PayloadEqual(prev, synced.Payload) {
		return false
	}
	b.clearLocked(ctx, key)
	return true
}

func (b *Buffer) clearLocked(ctx context.Context, key string) {
	delete(b.last, key)
	delete(b.reloaded, key)

	for _, store := range []storage.BackupStorage{b.primary, b.secondary} {
		if store == nil {
			continue
		}
		if err := store.DeleteBackup(ctx, key); err != nil {
			b.logger.Warn("Failed to clear local backup", "key", key, "error", err)
		}
	}
}
