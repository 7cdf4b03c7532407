package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/autosave/internal/models"
	"github.com/iudanet/autosave/pkg/api"
)

// ErrEntityNotFound возвращается, если запись на сервере еще не создана
var ErrEntityNotFound = errors.New("entity not found on server")

// StatusError ответ сервера с кодом вне 2xx
type StatusError struct {
	Message    string
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Идентификатор запроса сохраняем при редиректе
				if len(via) > 0 && via[0].Header.Get(api.RequestIDHeader) != "" {
					req.Header.Set(api.RequestIDHeader, via[0].Header.Get(api.RequestIDHeader))
				}
				return nil
			},
		},
	}
}

func entityPath(surface, id string) string {
	return fmt.Sprintf("/api/v1/entities/%s/%s", url.PathEscape(surface), url.PathEscape(id))
}

// GetEntity загружает запись с сервера
// Возвращает ErrEntityNotFound, если записи нет
func (c *Client) GetEntity(ctx context.Context, surface, id string) (*api.EntityResponse, error) {
	var resp api.EntityResponse
	err := c.doRequest(ctx, http.MethodGet, entityPath(surface, id), nil, &resp, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("get entity request failed: %w", err)
	}
	return &resp, nil
}

// SaveEntity сохраняет снимок записи на сервере (last-write-wins)
func (c *Client) SaveEntity(ctx context.Context, surface, id string, payload json.RawMessage) (*api.EntityResponse, error) {
	var resp api.EntityResponse
	headers := map[string]string{api.RequestIDHeader: uuid.NewString()}
	req := api.SaveEntityRequest{Payload: payload}
	if err := c.doRequest(ctx, http.MethodPut, entityPath(surface, id), req, &resp, headers); err != nil {
		return nil, fmt.Errorf("save entity request failed: %w", err)
	}
	return &resp, nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) error {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server unhealthy: %s", resp.Status)
	}
	return nil
}

// FetchSnapshot возвращает текущее состояние записи на сервере.
// Для еще не сохраненной записи возвращается Entity с пустым Payload.
func (c *Client) FetchSnapshot(ctx context.Context, surface, id string) (models.Entity, error) {
	resp, err := c.GetEntity(ctx, surface, id)
	if errors.Is(err, ErrEntityNotFound) {
		return models.Entity{ID: id}, nil
	}
	if err != nil {
		return models.Entity{}, err
	}
	return models.Entity{ID: resp.ID, Payload: resp.Payload}, nil
}

// EntitySaver адаптирует Client к удаленной операции сохранения одной поверхности
type EntitySaver struct {
	client  *Client
	surface string
}

// Saver returns the remote save operation for surface.
func (c *Client) Saver(surface string) *EntitySaver {
	return &EntitySaver{client: c, surface: surface}
}

// Save sends entity to the server.
func (s *EntitySaver) Save(ctx context.Context, entity models.Entity) error {
	_, err := s.client.SaveEntity(ctx, s.surface, entity.ID, entity.Payload)
	return err
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any, headers map[string]string) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			se.Message = errResp.Message
			if se.Message == "" {
				se.Message = errResp.Error
			}
		}
		return se
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
