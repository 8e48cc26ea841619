package asset

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/supaview/service-core-go/internal/asset/entity"
	"github.com/supaview/service-core-go/pkg/utilities"
)

// Handler receives status callbacks from the encoding pipeline.
type Handler struct {
	svc    *Service
	secret string
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, secret string, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, secret: secret, logger: logger}
}

func (h *Handler) StatusWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if !utilities.MatchesSecret(r, "x-webhook-secret", h.secret) {
		h.logger.Warnw("webhook rejected: bad secret", "remote", r.RemoteAddr)
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var p StatusPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.logger.Debugw("invalid webhook payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	row, err := h.svc.ApplyStatus(r.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrInvalidStatus):
			valid := make([]string, len(entity.ValidStatuses))
			for i, s := range entity.ValidStatuses {
				valid[i] = string(s)
			}
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":          "invalid status, must be one of: " + strings.Join(valid, ", "),
				"valid_statuses": valid,
			})
		case errors.Is(err, ErrNotFound):
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "asset not found", "asset_id": p.AssetID})
		default:
			h.logger.Errorw("webhook update failed", "asset_id", p.AssetID, "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}
	h.logger.Infow("asset status applied", "asset_id", row.AssetID, "status", row.Status)
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": row})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
