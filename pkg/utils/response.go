package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"dues-backend/internal/apperrors"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[HTTP] response encode: %v", err)
	}
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ServiceError maps a service-layer error onto an HTTP status.
func ServiceError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsDuplicate(err):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrAmountExceedsDue):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrAuth):
		Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperrors.ErrGateway):
		Error(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("[HTTP] internal error: %v", err)
		Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
