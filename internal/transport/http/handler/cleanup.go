package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/parcel-notify/internal/application/ledger"
	"github.com/parcel-notify/internal/domain"
	appmiddleware "github.com/parcel-notify/internal/transport/http/middleware"
)

// CleanupHandler handles ledger retention.
type CleanupHandler struct {
	svc ledger.Service
	log *zap.Logger
}

func NewCleanupHandler(svc ledger.Service, log *zap.Logger) *CleanupHandler {
	return &CleanupHandler{svc: svc, log: log}
}

func (h *CleanupHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DAYS", "days must be a positive integer")
		return
	}
	res, err := h.svc.Purge(r.Context(), days)
	if errors.Is(err, domain.ErrInvalidDays) {
		writeError(w, http.StatusBadRequest, "INVALID_DAYS", err.Error())
		return
	}
	if err != nil {
		h.log.Error("cleanup failed", zap.Int("days", days), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "CLEANUP_FAILED", err.Error())
		return
	}
	h.log.Info("ledger purged",
		zap.String("admin", appmiddleware.AdminSubject(r.Context())),
		zap.Int("days", days),
		zap.Int64("deleted", res.Deleted),
	)
	writeJSON(w, http.StatusOK, CleanupEnvelope{
		OK:      true,
		Deleted: res.Deleted,
		Cutoff:  res.Cutoff.UTC().Format(time.RFC3339Nano),
		Archive: res.Archive,
	})
}

// parseDays reads {"days": N}. A missing body or key means the default;
// N must be a whole JSON number, so 45.0 is accepted and 1.5 is not.
func parseDays(body io.Reader) (int, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return 0, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return ledger.DefaultRetentionDays, nil
	}
	var req struct {
		Days json.RawMessage `json:"days"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return 0, err
	}
	if len(req.Days) == 0 {
		return ledger.DefaultRetentionDays, nil
	}
	var n json.Number
	if err := json.Unmarshal(req.Days, &n); err != nil || req.Days[0] == '"' {
		return 0, domain.ErrInvalidDays
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, domain.ErrInvalidDays
	}
	return int(f), nil
}
