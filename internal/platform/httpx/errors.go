package httpx

import "net/http"

// Fail sends a failure envelope with the given status code and message.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// Internal sends a generic 500 envelope without leaking the underlying error.
func Internal(w http.ResponseWriter) {
	Fail(w, http.StatusInternalServerError, "internal server error")
}
