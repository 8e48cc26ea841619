// Package config builds the service configuration from the environment once
// at startup. Components receive the parsed Config by parameter.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProductConfig is one fan-out target.
type ProductConfig struct {
	ProductKey   string `json:"product_key"`
	Name         string `json:"name"`
	AdminBaseURL string `json:"admin_base_url"`
}

// PayFast holds merchant settings for the payment gateway.
type PayFast struct {
	MerchantID         string
	MerchantKey        string
	Passphrase         string
	Sandbox            bool
	Amount             string
	ItemName           string
	VerifyITNSignature bool
}

type Config struct {
	HTTPAddr   string
	ProductKey string
	Products   []ProductConfig

	AdminServiceSecret  string
	AdminEmailAllowlist []string

	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string

	WebhookSecret string
	PayFast       PayFast

	FanoutTimeout     time.Duration
	FanoutConcurrency int

	AllowedOrigins []string
	AutoMigrate    bool
}

var ErrInvalidProducts = errors.New("invalid PRODUCTS_JSON")

// FromEnv reads every setting from the process environment.
func FromEnv() (*Config, error) {
	return Load(os.Getenv)
}

// Load builds a Config using getenv as the variable source.
func Load(getenv func(string) string) (*Config, error) {
	products, err := ParseProducts(getenv("PRODUCTS_JSON"))
	if err != nil {
		return nil, err
	}

	timeout := 10 * time.Second
	if v := getenv("FANOUT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid FANOUT_TIMEOUT %q", v)
		}
		timeout = d
	}
	concurrency := 8
	if v := getenv("FANOUT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid FANOUT_CONCURRENCY %q", v)
		}
		concurrency = n
	}

	origins := splitList(getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	allowlist := splitList(getenv("ADMIN_EMAIL_ALLOWLIST"))
	for i, e := range allowlist {
		allowlist[i] = strings.ToLower(e)
	}

	return &Config{
		HTTPAddr:            withDefault(getenv("HTTP_ADDR"), "0.0.0.0:8431"),
		ProductKey:          withDefault(getenv("PRODUCT_KEY"), "supaview"),
		Products:            products,
		AdminServiceSecret:  getenv("ADMIN_SERVICE_SECRET"),
		AdminEmailAllowlist: allowlist,

		SupabaseURL:            strings.TrimRight(getenv("SUPABASE_URL"), "/"),
		SupabaseServiceRoleKey: getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseJWTSecret:      getenv("SUPABASE_JWT_SECRET"),

		WebhookSecret: getenv("WEBHOOK_SECRET"),
		PayFast: PayFast{
			MerchantID:         getenv("PAYFAST_MERCHANT_ID"),
			MerchantKey:        getenv("PAYFAST_MERCHANT_KEY"),
			Passphrase:         getenv("PAYFAST_PASSPHRASE"),
			Sandbox:            truthy(getenv("PAYFAST_SANDBOX")),
			Amount:             withDefault(getenv("PAYFAST_AMOUNT"), "99.00"),
			ItemName:           withDefault(getenv("PAYFAST_ITEM_NAME"), "SUPAView Pro"),
			VerifyITNSignature: truthy(getenv("PAYFAST_VERIFY_ITN_SIGNATURE")),
		},

		FanoutTimeout:     timeout,
		FanoutConcurrency: concurrency,
		AllowedOrigins:    origins,
		AutoMigrate:       truthy(getenv("DB_AUTO_MIGRATE")),
	}, nil
}

// ParseProducts decodes and validates a PRODUCTS_JSON value. An empty value
// yields no products.
func ParseProducts(raw string) ([]ProductConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var products []ProductConfig
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProducts, err)
	}
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if p.ProductKey == "" {
			return nil, fmt.Errorf("%w: entry %d has no product_key", ErrInvalidProducts, i)
		}
		if _, dup := seen[p.ProductKey]; dup {
			return nil, fmt.Errorf("%w: duplicate product_key %q", ErrInvalidProducts, p.ProductKey)
		}
		seen[p.ProductKey] = struct{}{}
		u, err := url.Parse(p.AdminBaseURL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, fmt.Errorf("%w: product %q has invalid admin_base_url", ErrInvalidProducts, p.ProductKey)
		}
		products[i].AdminBaseURL = strings.TrimRight(p.AdminBaseURL, "/")
		if products[i].Name == "" {
			products[i].Name = p.ProductKey
		}
	}
	return products, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
