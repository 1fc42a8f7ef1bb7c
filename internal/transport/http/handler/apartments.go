package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parcel-notify/internal/application/apartment"
	"github.com/parcel-notify/internal/domain"
	"github.com/parcel-notify/internal/pkg/validate"
)

type createApartmentRequest struct {
	ApartmentNo string `json:"apartment_no" validate:"required,apartment_key"`
	DisplayName string `json:"display_name" validate:"max=64"`
}

// ApartmentHandler handles the apartment directory endpoints.
type ApartmentHandler struct {
	svc apartment.Service
	log *zap.Logger
}

func NewApartmentHandler(svc apartment.Service, log *zap.Logger) *ApartmentHandler {
	return &ApartmentHandler{svc: svc, log: log}
}

func (h *ApartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	apts, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("list apartments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load apartments")
		return
	}
	out := make([]apartmentView, len(apts))
	for i, a := range apts {
		out[i] = apartmentView{ApartmentNo: string(a.Key), DisplayName: a.Label()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ApartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_APARTMENT", err.Error())
		return
	}
	res, err := h.svc.Seed(r.Context(), []domain.Apartment{{
		Key:         domain.ApartmentKey(req.ApartmentNo),
		DisplayName: req.DisplayName,
	}})
	if err != nil {
		h.log.Error("create apartment", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to save apartment")
		return
	}
	status := http.StatusCreated
	if res.Inserted == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *ApartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Remove(r.Context(), chi.URLParam(r, "key"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrInvalidApartment):
		writeError(w, http.StatusBadRequest, "INVALID_APARTMENT", err.Error())
	case errors.Is(err, domain.ErrApartmentNotFound):
		writeError(w, http.StatusNotFound, "APARTMENT_NOT_FOUND", err.Error())
	default:
		h.log.Error("remove apartment", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to remove apartment")
	}
}

type apartmentView struct {
	ApartmentNo string `json:"apartment_no"`
	DisplayName string `json:"display_name"`
}
