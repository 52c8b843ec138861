package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

type message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MessagesError sends an error in splunkd's format: {"messages":[{"type":"ERROR","text":...}]}.
func MessagesError(w http.ResponseWriter, text string, status int) {
	writeJSON(w, status, map[string][]message{"messages": {{Type: "ERROR", Text: text}}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
