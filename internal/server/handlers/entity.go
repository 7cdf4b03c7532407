package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/autosave/internal/models"
	"github.com/iudanet/autosave/internal/server/middleware"
	"github.com/iudanet/autosave/internal/server/storage"
	"github.com/iudanet/autosave/internal/validation"
	"github.com/iudanet/autosave/pkg/api"
)

// DefaultMaxPayloadBytes ограничение размера тела PUT запроса
const DefaultMaxPayloadBytes int64 = 1 << 20

//go:generate moq -out entity_store_mock.go . EntityStore

// EntityStore определяет интерфейс хранилища записей для handler
type EntityStore interface {
	GetEntity(ctx context.Context, surface, id string) (*models.StoredEntity, error)
	PutEntity(ctx context.Context, surface, id string, payload json.RawMessage) (*models.StoredEntity, error)
}

// EntityHandler обслуживает чтение и запись снимков редактируемых записей
type EntityHandler struct {
	logger     *slog.Logger
	store      EntityStore
	maxPayload int64
}

// NewEntityHandler creates a new entity handler.
// maxPayload <= 0 means DefaultMaxPayloadBytes.
func NewEntityHandler(logger *slog.Logger, store EntityStore, maxPayload int64) *EntityHandler {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayloadBytes
	}
	return &EntityHandler{
		logger:     logger,
		store:      store,
		maxPayload: maxPayload,
	}
}

// Get обрабатывает GET /api/v1/entities/{surface}/{id}
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	surface, id, ok := h.pathParams(w, r)
	if !ok {
		return
	}

	entity, err := h.store.GetEntity(r.Context(), surface, id)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "entity not found", "")
			return
		}
		h.logger.Error("Failed to get entity",
			"error", err,
			"surface", surface,
			"entity_id", id,
			"request_id", middleware.RequestIDFromContext(r.Context()))
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error", "")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, toResponse(entity))
}

// Put обрабатывает PUT /api/v1/entities/{surface}/{id}
// Сохраняет снимок целиком (last write wins), ревизия растет на единицу
func (h *EntityHandler) Put(w http.ResponseWriter, r *http.Request) {
	surface, id, ok := h.pathParams(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayload)

	var req api.SaveEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.logger, http.StatusRequestEntityTooLarge, "payload too large", "")
			return
		}
		h.logger.Warn("Failed to decode save request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if len(req.Payload) == 0 || string(req.Payload) == "null" {
		writeError(w, h.logger, http.StatusBadRequest, "payload is required", "")
		return
	}

	entity, err := h.store.PutEntity(r.Context(), surface, id, req.Payload)
	if err != nil {
		h.logger.Error("Failed to save entity",
			"error", err,
			"surface", surface,
			"entity_id", id,
			"request_id", middleware.RequestIDFromContext(r.Context()))
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error", "")
		return
	}

	h.logger.Debug("Entity saved",
		"surface", surface,
		"entity_id", id,
		"revision", entity.Revision,
		"request_id", middleware.RequestIDFromContext(r.Context()))

	writeJSON(w, h.logger, http.StatusOK, toResponse(entity))
}

func (h *EntityHandler) pathParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	surface := r.PathValue("surface")
	id := r.PathValue("id")

	if err := validation.ValidateSurface(surface); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid surface", err.Error())
		return "", "", false
	}
	if err := validation.ValidateEntityID(id); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid entity id", err.Error())
		return "", "", false
	}

	return surface, id, true
}

func toResponse(e *models.StoredEntity) api.EntityResponse {
	return api.EntityResponse{
		Surface:   e.Surface,
		ID:        e.ID,
		Payload:   e.Payload,
		Revision:  e.Revision,
		UpdatedAt: e.UpdatedAt,
	}
}
