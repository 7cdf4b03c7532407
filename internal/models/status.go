package models

import "time"

// SyncStatus состояние синхронизации сущности с сервером
type SyncStatus int

const (
	StatusIdle   SyncStatus = iota // StatusIdle изменений еще не было
	StatusSaving                   // StatusSaving запись на сервер выполняется
	StatusSaved                    // StatusSaved последняя правка сохранена на сервере
	StatusError                    // StatusError последняя запись завершилась ошибкой
)

// String returns the lower-case name used in logs and in the UI surface.
func (s SyncStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// RetryState внутреннее состояние повторных попыток планировщика.
type RetryState struct {
	Attempt   int           // Attempt номер запланированного повтора (0 - повторов не было)
	NextDelay time.Duration // NextDelay задержка до следующей попытки (0 если попытка не запланирована)
}

// Reset обнуляет состояние после успешной записи или новой правки.
func (r *RetryState) Reset() {
	r.Attempt = 0
	r.NextDelay = 0
}
