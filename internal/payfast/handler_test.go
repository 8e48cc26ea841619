package payfast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/supaview/service-core-go/internal/config"
)

// MockUpgrader records UpgradePlan calls.
type MockUpgrader struct {
	UpgradeFunc func(ctx context.Context, email, plan string) (int64, error)
	Calls       []string
}

func (m *MockUpgrader) UpgradePlan(ctx context.Context, email, plan string) (int64, error) {
	m.Calls = append(m.Calls, email+":"+plan)
	if m.UpgradeFunc != nil {
		return m.UpgradeFunc(ctx, email, plan)
	}
	return 1, nil
}

func testConfig() config.PayFast {
	return config.PayFast{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  "jt7NOE43FZPn",
		Sandbox:     true,
		Amount:      "99.00",
		ItemName:    "SUPAView Pro",
	}
}

func newTestHandler(cfg config.PayFast, up PlanUpgrader) *Handler {
	svc := NewService(cfg, up)
	svc.newID = func() string { return "1700000000000" }
	return NewHandler(svc, zap.NewNop().Sugar())
}

func postITN(h *Handler, ip string, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/payfast-itn", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	h.Notify(w, r)
	return w
}

func TestNotifyRejectsNonPost(t *testing.T) {
	h := newTestHandler(testConfig(), &MockUpgrader{})
	w := httptest.NewRecorder()
	h.Notify(w, httptest.NewRequest(http.MethodGet, "/payfast-itn", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestNotifyIPGate(t *testing.T) {
	form := url.Values{"payment_status": {"COMPLETE"}, "email_address": {"a@b.co"}}
	cases := map[string]int{
		"197.97.145.143": http.StatusForbidden,
		"197.97.145.144": http.StatusOK,
		"197.97.145.159": http.StatusOK,
		"197.97.145.160": http.StatusForbidden,
	}
	for ip, want := range cases {
		up := &MockUpgrader{}
		w := postITN(newTestHandler(testConfig(), up), ip, form)
		if w.Code != want {
			t.Errorf("%s: status = %d, want %d", ip, w.Code, want)
		}
		if want == http.StatusForbidden && len(up.Calls) != 0 {
			t.Errorf("%s: profile updated despite rejection", ip)
		}
	}
}

func TestNotifyUpgradesOnComplete(t *testing.T) {
	up := &MockUpgrader{}
	w := postITN(newTestHandler(testConfig(), up), "197.97.145.150", url.Values{
		"payment_status": {"COMPLETE"},
		"email_address":  {"buyer@example.com"},
	})
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
	if len(up.Calls) != 1 || up.Calls[0] != "buyer@example.com:pro" {
		t.Fatalf("calls = %v", up.Calls)
	}
}

func TestNotifyAlwaysOK(t *testing.T) {
	cases := []struct {
		name    string
		form    url.Values
		upgrade func(context.Context, string, string) (int64, error)
		calls   int
	}{
		{"pending status", url.Values{"payment_status": {"PENDING"}, "email_address": {"a@b.co"}}, nil, 0},
		{"missing email", url.Values{"payment_status": {"COMPLETE"}}, nil, 0},
		{"store failure", url.Values{"payment_status": {"COMPLETE"}, "email_address": {"a@b.co"}},
			func(context.Context, string, string) (int64, error) { return 0, errors.New("db down") }, 1},
		{"unknown profile", url.Values{"payment_status": {"COMPLETE"}, "email_address": {"a@b.co"}},
			func(context.Context, string, string) (int64, error) { return 0, nil }, 1},
	}
	for _, c := range cases {
		up := &MockUpgrader{UpgradeFunc: c.upgrade}
		w := postITN(newTestHandler(testConfig(), up), "197.97.145.150", c.form)
		if w.Code != http.StatusOK || w.Body.String() != "OK" {
			t.Errorf("%s: got %d %q", c.name, w.Code, w.Body.String())
		}
		if len(up.Calls) != c.calls {
			t.Errorf("%s: calls = %d, want %d", c.name, len(up.Calls), c.calls)
		}
	}
}

func TestApplyNotificationSignatureCheck(t *testing.T) {
	cfg := testConfig()
	cfg.VerifyITNSignature = true
	up := &MockUpgrader{}
	svc := NewService(cfg, up)

	fields := map[string]string{"payment_status": "COMPLETE", "email_address": "a@b.co"}
	fields["signature"] = "deadbeef"
	outcome, err := svc.ApplyNotification(context.Background(), fields)
	if err != nil || outcome != OutcomeBadSignature || len(up.Calls) != 0 {
		t.Fatalf("forged notification: %s %v calls=%d", outcome, err, len(up.Calls))
	}

	delete(fields, "signature")
	fields["signature"] = Sign(fields, cfg.Passphrase)
	outcome, _ = svc.ApplyNotification(context.Background(), fields)
	if outcome != OutcomeUpgraded {
		t.Fatalf("signed notification outcome = %s", outcome)
	}
}

func TestCreatePayment(t *testing.T) {
	h := newTestHandler(testConfig(), &MockUpgrader{})
	body := `{"email":"buyer@example.com","name_first":"Ada","name_last":"","return_url":"https://app/ok","cancel_url":"https://app/cancel","notify_url":"https://api/payfast-itn"}`
	w := httptest.NewRecorder()
	h.CreatePayment(w, httptest.NewRequest(http.MethodPost, "/create-payfast-payment", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp PaymentRequest
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.PayFastURL != sandboxProcessURL {
		t.Errorf("url = %s", resp.PayFastURL)
	}
	d := resp.PaymentData
	if d["email_address"] != "buyer@example.com" || d["m_payment_id"] != "1700000000000" || d["amount"] != "99.00" {
		t.Errorf("payment data = %v", d)
	}
	if _, ok := d["name_last"]; ok {
		t.Error("empty field should be omitted")
	}
	if !Verify(d, "jt7NOE43FZPn") {
		t.Error("payment data signature does not verify")
	}
}

func TestCreatePaymentErrors(t *testing.T) {
	h := newTestHandler(testConfig(), &MockUpgrader{})
	w := httptest.NewRecorder()
	h.CreatePayment(w, httptest.NewRequest(http.MethodPost, "/create-payfast-payment", strings.NewReader(`{"name_first":"x"}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing email status = %d", w.Code)
	}

	h = newTestHandler(config.PayFast{}, &MockUpgrader{})
	w = httptest.NewRecorder()
	h.CreatePayment(w, httptest.NewRequest(http.MethodPost, "/create-payfast-payment", strings.NewReader(`{"email":"a@b.co"}`)))
	if w.Code != http.StatusInternalServerError || strings.Contains(w.Body.String(), "merchant") {
		t.Errorf("unconfigured: %d %s", w.Code, w.Body.String())
	}
}

func TestCreatePaymentPostsWhatItSigns(t *testing.T) {
	cfg := testConfig()
	h := newTestHandler(cfg, &MockUpgrader{})
	body := `{"email":" buyer@example.com ","name_first":" John","name_last":"   "}`
	w := httptest.NewRecorder()
	h.CreatePayment(w, httptest.NewRequest(http.MethodPost, "/create-payfast-payment", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp PaymentRequest
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	d := resp.PaymentData
	if d["name_first"] != "John" || d["email_address"] != "buyer@example.com" {
		t.Fatalf("posted values not trimmed: %q %q", d["name_first"], d["email_address"])
	}
	if _, ok := d["name_last"]; ok {
		t.Error("blank field should be omitted")
	}

	// the gateway hashes exactly the posted fields
	posted := make(map[string]string, len(d))
	for k, v := range d {
		if k != "signature" {
			posted[k] = v
		}
	}
	if d["signature"] != Sign(posted, cfg.Passphrase) {
		t.Fatal("signature does not cover the posted values")
	}
}
