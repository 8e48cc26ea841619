package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/supaview/service-core-go/internal/config"
	"github.com/supaview/service-core-go/internal/tenant/entity"
)

const secret = "svc-secret"

var epoch = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

// productServer answers like a healthy tenant backend.
func productServer(t *testing.T, key string, stats entity.Stats, recent []entity.Event) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-admin-token") != secret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/admin-overview":
			_ = json.NewEncoder(w).Encode(entity.Overview{ProductKey: key, Stats: &stats, Recent: recent})
		case "/admin-free-embeds":
			_ = json.NewEncoder(w).Encode(entity.Page[entity.FreeEmbed]{
				Data: []entity.FreeEmbed{
					{ID: key + "-1", EmbedURL: "https://x/" + r.URL.Query().Get("search")},
					{ID: key + "-2"},
				},
				Pagination: entity.Pagination{Limit: 50},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func failingServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func events(key string, n int, offset time.Duration) []entity.Event {
	out := make([]entity.Event, n)
	for i := range out {
		out[i] = entity.Event{
			Type:      entity.EventFreeEmbedCreated,
			ID:        fmt.Sprintf("%s-%d", key, i),
			UserID:    "u",
			CreatedAt: epoch.Add(offset + time.Duration(i)*time.Second),
		}
	}
	return out
}

func newAggregator(timeout time.Duration, products ...config.ProductConfig) *Aggregator {
	cfg := &config.Config{
		Products:           products,
		AdminServiceSecret: secret,
		FanoutTimeout:      timeout,
		FanoutConcurrency:  4,
	}
	return NewAggregator(cfg, nil, zap.NewNop().Sugar())
}

func product(key string, srv *httptest.Server) config.ProductConfig {
	return config.ProductConfig{ProductKey: key, Name: "Product " + key, AdminBaseURL: srv.URL}
}

func TestOverviewFaultIsolation(t *testing.T) {
	a := productServer(t, "a", entity.Stats{TotalUsers: 10, FreeEmbedCount: 5, ProAssetCount: 2}, events("a", 3, 0))
	b := failingServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	c := productServer(t, "c", entity.Stats{TotalUsers: 1, FreeEmbedCount: 1, ProAssetCount: 1}, events("c", 2, time.Hour))

	agg := newAggregator(2*time.Second, product("a", a), product("b", b), product("c", c))
	got, err := agg.Overview(context.Background(), nil)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}

	want := entity.Stats{TotalUsers: 11, FreeEmbedCount: 6, ProAssetCount: 3}
	if got.Global != want {
		t.Errorf("global = %+v, want %+v", got.Global, want)
	}
	if len(got.PerProduct) != 3 {
		t.Fatalf("per_product has %d entries", len(got.PerProduct))
	}
	withErr := 0
	for _, p := range got.PerProduct {
		if p.Error != "" {
			withErr++
			if p.ProductKey != "b" || p.Stats != nil {
				t.Errorf("unexpected failing entry %+v", p)
			}
		}
	}
	if withErr != 1 {
		t.Errorf("%d entries carry an error, want 1", withErr)
	}
	if len(got.Recent) != 5 || got.Recent[0].ProductKey != "c" || got.Recent[0].ProductName != "Product c" {
		t.Errorf("recent = %+v", got.Recent)
	}
	if len(got.Products) != 3 || got.Products[1].ProductKey != "b" {
		t.Errorf("products = %+v", got.Products)
	}
}

func TestOverviewTimeoutAndBadPayload(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	garbage := failingServer(t, http.StatusOK, `not json`)
	noStats := failingServer(t, http.StatusOK, `{"product_key":"x","recent":[]}`)
	ok := productServer(t, "ok", entity.Stats{TotalUsers: 7}, nil)

	agg := newAggregator(100*time.Millisecond,
		product("slow", slow), product("garbage", garbage), product("nostats", noStats), product("ok", ok))
	got, err := agg.Overview(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Global.TotalUsers != 7 {
		t.Errorf("total users = %d", got.Global.TotalUsers)
	}
	for _, p := range got.PerProduct[:3] {
		if p.Error == "" {
			t.Errorf("%s: expected error", p.ProductKey)
		}
	}
	if got.PerProduct[3].Error != "" {
		t.Errorf("ok product errored: %s", got.PerProduct[3].Error)
	}
}

func TestNoProducts(t *testing.T) {
	if _, err := newAggregator(time.Second).Overview(context.Background(), nil); !errors.Is(err, ErrNoProducts) {
		t.Fatalf("err = %v", err)
	}
}

func TestFreeEmbedsMergeAndFilter(t *testing.T) {
	var seenProductParam atomic.Bool
	a := productServer(t, "a", entity.Stats{}, nil)
	b := productServer(t, "b", entity.Stats{}, nil)
	spy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("product") {
			seenProductParam.Store(true)
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(spy.Close)

	agg := newAggregator(time.Second, product("a", a), product("b", b), product("spy", spy))

	all, err := agg.FreeEmbeds(context.Background(), url.Values{"search": {"cats"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Items) != 4 {
		t.Fatalf("items = %d", len(all.Items))
	}
	if all.Items[0].ProductKey != "a" || all.Items[0].EmbedURL != "https://x/cats" {
		t.Errorf("first item = %+v", all.Items[0])
	}
	if len(all.Errors) != 1 || all.Errors[0].ProductKey != "spy" {
		t.Errorf("errors = %+v", all.Errors)
	}

	onlyB, err := agg.FreeEmbeds(context.Background(), url.Values{"product": {"b"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyB.Items) != 2 || onlyB.Items[0].ProductKey != "b" || len(onlyB.Errors) != 0 {
		t.Errorf("filtered = %+v", onlyB)
	}
	if seenProductParam.Load() {
		t.Error("product filter was forwarded upstream")
	}
}

func TestStatusErrorText(t *testing.T) {
	if got := (&StatusError{Code: 503}).Error(); got != "HTTP 503 Service Unavailable" {
		t.Fatalf("got %q", got)
	}
}
