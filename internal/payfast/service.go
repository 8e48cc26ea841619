package payfast

import (
	"context"
	"errors"
	"strings"

	"github.com/supaview/service-core-go/internal/config"
	"github.com/supaview/service-core-go/pkg/utilities"
)

const (
	liveProcessURL    = "https://www.payfast.co.za/eng/process"
	sandboxProcessURL = "https://sandbox.payfast.co.za/eng/process"

	// PaidPlan is the plan and tier written on a completed payment.
	PaidPlan = "pro"
)

var (
	ErrMissingEmail  = errors.New("email is required")
	ErrNotConfigured = errors.New("payfast merchant credentials not configured")
)

// Outcome labels what a notification did; it is logged, never returned to the gateway.
type Outcome string

const (
	OutcomeUpgraded      Outcome = "upgraded"
	OutcomeIgnoredStatus Outcome = "ignored_status"
	OutcomeMissingEmail  Outcome = "missing_email"
	OutcomeBadSignature  Outcome = "bad_signature"
	OutcomeNoProfile     Outcome = "no_profile"
	OutcomeUpdateFailed  Outcome = "update_failed"
)

// PlanUpgrader applies the paid plan to the profile owning email and
// reports how many rows changed.
type PlanUpgrader interface {
	UpgradePlan(ctx context.Context, email, plan string) (int64, error)
}

// Service builds signed payment requests and applies payment notifications.
type Service struct {
	cfg      config.PayFast
	profiles PlanUpgrader
	newID    func() string
}

func NewService(cfg config.PayFast, profiles PlanUpgrader) *Service {
	return &Service{cfg: cfg, profiles: profiles, newID: utilities.NewSnowflakeID}
}

// PaymentInput is the caller-supplied part of a payment request.
type PaymentInput struct {
	Email     string `json:"email"`
	NameFirst string `json:"name_first"`
	NameLast  string `json:"name_last"`
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
	NotifyURL string `json:"notify_url"`
}

// PaymentRequest is what the client posts to the gateway.
type PaymentRequest struct {
	PayFastURL  string            `json:"payfast_url"`
	PaymentData map[string]string `json:"payment_data"`
}

// CreatePayment assembles and signs the gateway form fields.
func (s *Service) CreatePayment(in PaymentInput) (*PaymentRequest, error) {
	if s.cfg.MerchantID == "" || s.cfg.MerchantKey == "" {
		return nil, ErrNotConfigured
	}
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}
	data := map[string]string{
		"merchant_id":   s.cfg.MerchantID,
		"merchant_key":  s.cfg.MerchantKey,
		"return_url":    in.ReturnURL,
		"cancel_url":    in.CancelURL,
		"notify_url":    in.NotifyURL,
		"name_first":    in.NameFirst,
		"name_last":     in.NameLast,
		"email_address": email,
		"m_payment_id":  s.newID(),
		"amount":        s.cfg.Amount,
		"item_name":     s.cfg.ItemName,
	}
	// posted values must be byte-identical to the signed ones
	for k, v := range data {
		if v = strings.TrimSpace(v); v == "" {
			delete(data, k)
		} else {
			data[k] = v
		}
	}
	data["signature"] = Sign(data, s.cfg.Passphrase)

	target := liveProcessURL
	if s.cfg.Sandbox {
		target = sandboxProcessURL
	}
	return &PaymentRequest{PayFastURL: target, PaymentData: data}, nil
}

// ApplyNotification upgrades the payer's plan when the notification reports a
// completed payment. The returned error is only for logging.
func (s *Service) ApplyNotification(ctx context.Context, fields map[string]string) (Outcome, error) {
	if s.cfg.VerifyITNSignature && !Verify(fields, s.cfg.Passphrase) {
		return OutcomeBadSignature, nil
	}
	if fields["payment_status"] != "COMPLETE" {
		return OutcomeIgnoredStatus, nil
	}
	email := strings.TrimSpace(fields["email_address"])
	if email == "" {
		return OutcomeMissingEmail, nil
	}
	n, err := s.profiles.UpgradePlan(ctx, email, PaidPlan)
	if err != nil {
		return OutcomeUpdateFailed, err
	}
	if n == 0 {
		return OutcomeNoProfile, nil
	}
	return OutcomeUpgraded, nil
}
