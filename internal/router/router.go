package router

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/supaview/service-core-go/internal/admincontrol"
	"github.com/supaview/service-core-go/internal/asset"
	"github.com/supaview/service-core-go/internal/payfast"
	"github.com/supaview/service-core-go/internal/tenant"
)

// Handlers groups the domain handlers mounted by RegisterRoutes. A nil
// handler leaves its routes unmounted.
type Handlers struct {
	AdminControl *admincontrol.Handler
	Tenant       *tenant.Handler
	Asset        *asset.Handler
	PayFast      *payfast.Handler
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux
// and wraps them in the middleware chain.
func RegisterRoutes(logger *zap.SugaredLogger, origins []string, h Handlers) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if h.AdminControl != nil {
		mux.HandleFunc("GET /admin-control/{resource...}", h.AdminControl.Serve)
	}

	// per-product endpoints check the method themselves so they answer 405 as JSON
	if h.Tenant != nil {
		mux.HandleFunc("/admin-overview", h.Tenant.Overview)
		mux.HandleFunc("/admin-free-embeds", h.Tenant.FreeEmbeds)
		mux.HandleFunc("/admin-pro-assets", h.Tenant.ProAssets)
		mux.HandleFunc("/admin-users", h.Tenant.Users)
	}

	if h.Asset != nil {
		mux.HandleFunc("/asset-status-webhook", h.Asset.StatusWebhook)
	}

	if h.PayFast != nil {
		mux.HandleFunc("/create-payfast-payment", h.PayFast.CreatePayment)
		mux.HandleFunc("/payfast-itn", h.PayFast.Notify)
	}

	return Wrap(logger, origins, mux)
}

// Wrap applies the middleware chain, outermost first: recovery, request id,
// logging, CORS, security headers.
func Wrap(logger *zap.SugaredLogger, origins []string, next http.Handler) http.Handler {
	handler := SecurityHeadersMiddleware()(next)
	handler = CORSMiddleware(origins)(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware()(handler)
	return RecoveryMiddleware(logger)(handler)
}
