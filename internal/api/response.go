package api

import (
	"encoding/json"
	"net/http"
)

// MessageResponse is the body for errors and simple acknowledgements.
// The wire contract is a flat {message} object; no internal error
// detail ever reaches the client.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

func badRequest(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusBadRequest, message)
}

func unauthorized(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusUnauthorized, message)
}

func forbidden(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusForbidden, message)
}

func notFound(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusNotFound, message)
}

func payloadTooLarge(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusRequestEntityTooLarge, message)
}

func internalError(w http.ResponseWriter) {
	writeMessage(w, http.StatusInternalServerError, "An internal error occurred")
}
