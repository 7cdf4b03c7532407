package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/go-cmp/cmp"
)

// Entity представляет редактируемую запись (дневной план, задачу и т.д.).
// Движок автосохранения никогда не заглядывает внутрь Payload:
// это непрозрачный JSON-снимок, который сравнивается только структурно.
type Entity struct {
	ID      string          `json:"id"`      // ID стабильный идентификатор; пустой до первого создания на сервере
	Payload json.RawMessage `json:"payload"` // Payload сериализованный снимок состояния формы
}

// NewEntity сериализует value в JSON и возвращает Entity с этим снимком.
func NewEntity(id string, value any) (Entity, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return Entity{}, err
	}
	return Entity{ID: id, Payload: data}, nil
}

// HasID reports whether the entity exists remotely.
// An entity without an id keeps the engine inert.
func (e Entity) HasID() bool {
	return e.ID != ""
}

// Decode распаковывает Payload в target.
func (e Entity) Decode(target any) error {
	return json.Unmarshal(e.Payload, target)
}

// Equal сравнивает два снимка структурно: порядок ключей и пробелы в JSON
// не имеют значения. Если какой-либо payload не декодируется,
// используется побайтовое сравнение.
func (e Entity) Equal(other Entity) bool {
	if e.ID != other.ID {
		return false
	}
	return PayloadEqual(e.Payload, other.Payload)
}

// PayloadEqual сравнивает два JSON payload структурно.
func PayloadEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}

	va, errA := decodeValue(a)
	vb, errB := decodeValue(b)
	if errA != nil || errB != nil {
		return false
	}

	return cmp.Equal(va, vb)
}

func decodeValue(data json.RawMessage) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	// числа сравниваем по их текстовому представлению, без потерь float64
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Clone создает глубокую копию Entity
func (e Entity) Clone() Entity {
	payload := make(json.RawMessage, len(e.Payload))
	copy(payload, e.Payload)
	return Entity{ID: e.ID, Payload: payload}
}

// StoredEntity представляет запись в серверном хранилище (system of record).
type StoredEntity struct {
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Surface   string          `json:"surface"`  // Surface поверхность редактирования ("daily-plan", "task")
	ID        string          `json:"id"`       // ID идентификатор записи
	Payload   json.RawMessage `json:"payload"`  // Payload последний сохраненный снимок
	Revision  int64           `json:"revision"` // Revision растет на единицу при каждой записи
}
