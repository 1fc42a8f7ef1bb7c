package handler

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/parcel-notify/internal/application/dispatch"
	"github.com/parcel-notify/internal/domain"
	appmiddleware "github.com/parcel-notify/internal/transport/http/middleware"
)

// notifyRequest accepts count as a JSON number or numeric string; anything
// else is treated as absent.
type notifyRequest struct {
	Apartment string          `json:"apartment"`
	Count     json.RawMessage `json:"count"`
	Note      *string         `json:"note"`
}

// NotifyHandler handles parcel notice dispatch.
type NotifyHandler struct {
	svc dispatch.Service
	log *zap.Logger
}

func NewNotifyHandler(svc dispatch.Service, log *zap.Logger) *NotifyHandler {
	return &NotifyHandler{svc: svc, log: log}
}

func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	res, err := h.svc.Dispatch(r.Context(), dispatch.Request{
		Apartment: req.Apartment,
		Count:     parseCount(req.Count),
		Note:      req.Note,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMissingApartment):
		writeError(w, http.StatusBadRequest, "MISSING_APARTMENT", "apartment is required")
		return
	case errors.Is(err, domain.ErrInvalidApartment):
		writeError(w, http.StatusBadRequest, "INVALID_APARTMENT", "apartment number must look like 14F-1 or A-14-1")
		return
	case errors.Is(err, domain.ErrApartmentNotFound):
		writeError(w, http.StatusBadRequest, "APARTMENT_NOT_FOUND", "apartment is not registered")
		return
	case errors.Is(err, domain.ErrNotBound):
		writeError(w, http.StatusBadRequest, "NOT_BOUND", "apartment has no linked account")
		return
	default:
		h.log.Error("dispatch failed", zap.String("apartment", req.Apartment), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "dispatch failed")
		return
	}

	h.log.Info("notice dispatched",
		zap.String("admin", appmiddleware.AdminSubject(r.Context())),
		zap.String("apartment", req.Apartment),
		zap.String("status", string(res.Status)),
	)
	status := http.StatusOK
	if res.Status == domain.DispatchPartial {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, res)
}

func parseCount(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return nil
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}
