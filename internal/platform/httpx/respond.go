// Package httpx provides helpers for the API's uniform JSON envelope.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response shape shared by all auth endpoints.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	User    any    `json:"user,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a success envelope with the given status code.
func OK(w http.ResponseWriter, status int, env Envelope) {
	env.Success = true
	JSON(w, status, env)
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
