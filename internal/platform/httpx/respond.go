// Package httpx provides HTTP response utilities shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorBody is the uniform error payload returned by the portal.
type ErrorBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

// EnvelopeBody wraps structured endpoint responses.
type EnvelopeBody struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
	Status  int    `json:"status"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Envelope sends data wrapped in {message, data, status}.
func Envelope(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, EnvelopeBody{Message: message, Data: data, Status: status})
}

// Problem sends an error body.
func Problem(w http.ResponseWriter, status int, title, message string) {
	JSON(w, status, ErrorBody{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     title,
		Message:   message,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}
