package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Every endpoint replies with this envelope: successes carry `data`,
// failures carry `message` and optionally per-field `errors`.
type response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeResponse(w http.ResponseWriter, code int, res response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(res)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
	}
}

func WriteData(w http.ResponseWriter, data interface{}) {
	writeResponse(w, http.StatusOK, response{Success: true, Data: data})
}

func WriteSuccess(w http.ResponseWriter) {
	WriteData(w, struct{}{})
}

func WriteError(w http.ResponseWriter, code int, message string) {
	writeResponse(w, code, response{Success: false, Message: message})
}

func WriteFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeResponse(w, http.StatusBadRequest, response{Success: false, Message: "validation failed", Errors: fields})
}

func ParseRequestBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dest)
	if err != nil {
		slog.Error("error parsing request body", "error", err)
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("error parsing request body: %v", err))
		return false
	}
	return true
}

func URLParam(r *http.Request, key string) (string, error) {
	param := chi.URLParam(r, key)
	if len(param) == 0 {
		return "", fmt.Errorf("missing {%v} url parameter", key)
	}
	return param, nil
}

func URLParamUUID(r *http.Request, key string) (uuid.UUID, error) {
	param := chi.URLParam(r, key)

	if len(param) == 0 {
		return uuid.Nil, fmt.Errorf("missing {%v} url parameter", key)
	}

	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid '%v' provided: %w", param, err)
	}

	return id, nil
}
