package handler

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the body of every non-2xx API response.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CleanupEnvelope wraps ledger purge responses.
type CleanupEnvelope struct {
	OK      bool   `json:"ok"`
	Deleted int64  `json:"deleted"`
	Cutoff  string `json:"cutoff"`
	Archive string `json:"archive,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: code, Message: msg})
}
