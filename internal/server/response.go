package server

import (
	"encoding/json"
	"net/http"
)

type apiError struct {
	Error string `json:"error"`
}

type apiListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalItems int `json:"total_items"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
