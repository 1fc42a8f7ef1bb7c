package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/parcel-notify/internal/application/auth"
	"github.com/parcel-notify/internal/domain"
	"github.com/parcel-notify/internal/pkg/validate"
)

// SessionHandler issues admin bearer tokens.
type SessionHandler struct {
	svc auth.Service
	log *zap.Logger
}

func NewSessionHandler(svc auth.Service, log *zap.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, log: log}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.svc.SessionsEnabled() {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "sessions are disabled")
		return
	}
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
	case errors.Is(err, auth.ErrSessionsDisabled):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "sessions are disabled")
	default:
		h.log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "login failed")
	}
}
