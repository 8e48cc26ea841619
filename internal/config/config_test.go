package config

import (
	"errors"
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(env(nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:8431" || cfg.ProductKey != "supaview" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.FanoutTimeout != 10*time.Second || cfg.FanoutConcurrency != 8 {
		t.Errorf("unexpected fan-out defaults: %v %d", cfg.FanoutTimeout, cfg.FanoutConcurrency)
	}
	if cfg.PayFast.Amount != "99.00" || cfg.PayFast.Sandbox {
		t.Errorf("unexpected payfast defaults: %+v", cfg.PayFast)
	}
	if len(cfg.Products) != 0 {
		t.Errorf("expected no products, got %d", len(cfg.Products))
	}
}

func TestLoadValues(t *testing.T) {
	cfg, err := Load(env(map[string]string{
		"PRODUCTS_JSON":         `[{"product_key":"a","name":"A","admin_base_url":"https://a.example.com/functions/v1/"}]`,
		"ADMIN_EMAIL_ALLOWLIST": " Ops@Example.com , ,dev@example.com",
		"FANOUT_TIMEOUT":        "3s",
		"PAYFAST_SANDBOX":       "true",
		"SUPABASE_URL":          "https://x.supabase.co/",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Products[0].AdminBaseURL; got != "https://a.example.com/functions/v1" {
		t.Errorf("base url not trimmed: %s", got)
	}
	if len(cfg.AdminEmailAllowlist) != 2 || cfg.AdminEmailAllowlist[0] != "ops@example.com" {
		t.Errorf("allowlist = %v", cfg.AdminEmailAllowlist)
	}
	if cfg.FanoutTimeout != 3*time.Second || !cfg.PayFast.Sandbox {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.SupabaseURL != "https://x.supabase.co" {
		t.Errorf("supabase url = %s", cfg.SupabaseURL)
	}
}

func TestParseProductsRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"malformed": `[{`,
		"no key":    `[{"name":"A","admin_base_url":"https://a"}]`,
		"duplicate": `[{"product_key":"a","admin_base_url":"https://a"},{"product_key":"a","admin_base_url":"https://b"}]`,
		"relative":  `[{"product_key":"a","admin_base_url":"/functions"}]`,
	}
	for name, raw := range cases {
		if _, err := ParseProducts(raw); !errors.Is(err, ErrInvalidProducts) {
			t.Errorf("%s: expected ErrInvalidProducts, got %v", name, err)
		}
	}
}

func TestParseProductsDefaultsName(t *testing.T) {
	ps, err := ParseProducts(`[{"product_key":"k","admin_base_url":"http://localhost:8431"}]`)
	if err != nil {
		t.Fatal(err)
	}
	if ps[0].Name != "k" {
		t.Errorf("name = %q", ps[0].Name)
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	if _, err := Load(env(map[string]string{"FANOUT_TIMEOUT": "soon"})); err == nil {
		t.Fatal("expected error")
	}
}
