package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// BackupSchemaVersion текущая версия формата локального бэкапа.
// Записи с другой версией считаются отсутствующими.
const BackupSchemaVersion = 1

// BackupTimeLayout формат поля Timestamp (ISO-8601).
const BackupTimeLayout = time.RFC3339Nano

// LocalBackup представляет несохраненное на сервере состояние редактирования,
// записанное в локальное хранилище клиента.
type LocalBackup struct {
	EntityID      string          `json:"entity_id"`
	Timestamp     string          `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
	SchemaVersion int             `json:"schema_version"`
}

// NewLocalBackup создает бэкап для entity, помеченный временем at.
func NewLocalBackup(entity Entity, at time.Time) LocalBackup {
	return LocalBackup{
		EntityID:      entity.ID,
		Payload:       entity.Payload,
		Timestamp:     at.UTC().Format(BackupTimeLayout),
		SchemaVersion: BackupSchemaVersion,
	}
}

// SavedAt парсит Timestamp.
func (b LocalBackup) SavedAt() (time.Time, error) {
	t, err := time.Parse(BackupTimeLayout, b.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid backup timestamp %q: %w", b.Timestamp, err)
	}
	return t, nil
}

// Entity возвращает сохраненный снимок как Entity.
func (b LocalBackup) Entity() Entity {
	return Entity{ID: b.EntityID, Payload: b.Payload}
}

// Validate проверяет, что бэкап можно использовать.
func (b LocalBackup) Validate() error {
	if b.SchemaVersion != BackupSchemaVersion {
		return fmt.Errorf("unsupported backup schema version %d", b.SchemaVersion)
	}
	if b.EntityID == "" {
		return fmt.Errorf("backup has no entity id")
	}
	if len(b.Payload) == 0 || !json.Valid(b.Payload) {
		return fmt.Errorf("backup payload is not valid JSON")
	}
	if _, err := b.SavedAt(); err != nil {
		return err
	}
	return nil
}
