package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iudanet/autosave/pkg/api"
)

// writeError пишет api.ErrorResponse с указанным статусом
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}
