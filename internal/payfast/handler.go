package payfast

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes the payment initiation and notification endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// CreatePayment returns the gateway URL and the signed form fields.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var in PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Debugw("invalid payment payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	req, err := h.svc.CreatePayment(in)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingEmail):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			h.logger.Errorw("create payment failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create payment"})
		}
		return
	}
	h.logger.Infow("payment created", "m_payment_id", req.PaymentData["m_payment_id"])
	h.writeJSON(w, http.StatusOK, req)
}

// Notify receives gateway ITN callbacks. Past the method and source checks it
// answers 200 "OK" unconditionally: the gateway retries anything else.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ip := ClientIP(r)
	if !IsGatewayIP(ip) {
		h.logger.Warnw("itn rejected: source outside gateway range", "ip", ip)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	defer func() {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}()

	if err := r.ParseForm(); err != nil {
		h.logger.Errorw("itn body unreadable", "ip", ip, "outcome", "bad_body", "err", err)
		return
	}
	fields := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}

	outcome, err := h.svc.ApplyNotification(r.Context(), fields)
	kv := []any{
		"outcome", string(outcome),
		"m_payment_id", fields["m_payment_id"],
		"pf_payment_id", fields["pf_payment_id"],
		"payment_status", fields["payment_status"],
	}
	switch outcome {
	case OutcomeUpgraded:
		h.logger.Infow("itn processed", kv...)
	case OutcomeUpdateFailed:
		h.logger.Errorw("itn processing failed", append(kv, "err", err)...)
	default:
		h.logger.Warnw("itn not applied", kv...)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
