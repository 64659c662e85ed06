package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/hdpredict/internal/models"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Detail interface{} `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

// writeError maps validation failures to 422 with field detail and anything
// else to an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: verr.Fields})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
}
