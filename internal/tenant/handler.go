package tenant

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/supaview/service-core-go/internal/tenant/repo"
	"github.com/supaview/service-core-go/pkg/utilities"
)

// Handler serves the per-product admin endpoints polled by the aggregator.
type Handler struct {
	svc    *Service
	secret string
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, secret string, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, secret: secret, logger: logger}
}

// authorize enforces GET and the shared service secret.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		h.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return false
	}
	if !utilities.MatchesSecret(r, "x-admin-token", h.secret) {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return false
	}
	return true
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	out, err := h.svc.Overview(r.Context())
	if err != nil {
		h.internalError(w, "admin overview failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) FreeEmbeds(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	q, ok := h.listQuery(w, r)
	if !ok {
		return
	}
	out, err := h.svc.FreeEmbeds(r.Context(), q)
	if err != nil {
		h.internalError(w, "admin free embeds failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ProAssets(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	q, ok := h.listQuery(w, r)
	if !ok {
		return
	}
	out, err := h.svc.ProAssets(r.Context(), q)
	if err != nil {
		h.internalError(w, "admin pro assets failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	q, ok := h.listQuery(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Users(r.Context(), q)
	if err != nil {
		h.internalError(w, "admin users failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listQuery(w http.ResponseWriter, r *http.Request) (repo.ListQuery, bool) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cursor must be an RFC 3339 timestamp"})
			return q, false
		}
		h.internalError(w, "parse list query", err)
		return q, false
	}
	return q, true
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Errorw(msg, "err", err)
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
