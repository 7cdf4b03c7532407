package api

import (
	"encoding/json"
	"time"
)

// RequestIDHeader заголовок с идентификатором запроса записи
const RequestIDHeader = "X-Request-ID"

// SaveEntityRequest представляет запрос на сохранение снимка записи
type SaveEntityRequest struct {
	Payload json.RawMessage `json:"payload"` // непрозрачный JSON снимок формы
}

// EntityResponse представляет сохраненную на сервере запись
type EntityResponse struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Surface   string          `json:"surface"`  // поверхность редактирования
	ID        string          `json:"id"`       // идентификатор записи
	Payload   json.RawMessage `json:"payload"`  // последний сохраненный снимок
	Revision  int64           `json:"revision"` // номер ревизии, растет с каждой записью
}

// HealthResponse представляет ответ health endpoint
type HealthResponse struct {
	Status  string `json:"status"`            // "ok" или "unavailable"
	Version string `json:"version,omitempty"` // версия сервера
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
