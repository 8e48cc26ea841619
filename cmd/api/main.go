package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/supaview/service-core-go/internal/admincontrol"
	"github.com/supaview/service-core-go/internal/asset"
	assetrepo "github.com/supaview/service-core-go/internal/asset/repo"
	"github.com/supaview/service-core-go/internal/config"
	"github.com/supaview/service-core-go/internal/fanout"
	"github.com/supaview/service-core-go/internal/payfast"
	"github.com/supaview/service-core-go/internal/profile"
	profilerepo "github.com/supaview/service-core-go/internal/profile/repo"
	"github.com/supaview/service-core-go/internal/router"
	"github.com/supaview/service-core-go/internal/tenant"
	tenantrepo "github.com/supaview/service-core-go/internal/tenant/repo"
	"github.com/supaview/service-core-go/pkg/database"
	"github.com/supaview/service-core-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()

	cfg, err := config.FromEnv()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}
	sugar.Infow("starting service-core-go", "product_key", cfg.ProductKey, "products", len(cfg.Products))

	// init db
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handlers := buildHandlers(ctx, cfg, db, sugar)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.RegisterRoutes(sugar, cfg.AllowedOrigins, handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("service is running; press Ctrl+C to stop", "addr", cfg.HTTPAddr)

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

func buildHandlers(ctx context.Context, cfg *config.Config, db *sqlx.DB, logger *zap.SugaredLogger) router.Handlers {
	profiles := profilerepo.NewProfileRepo(db)
	assets := assetrepo.NewAssetRepo(db)
	admin := tenantrepo.NewAdminRepo(db)

	if cfg.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		for name, ensure := range map[string]func(context.Context) error{
			"profiles":    profiles.EnsureTables,
			"pro_assets":  assets.EnsureTable,
			"free_embeds": admin.EnsureTable,
		} {
			if err := ensure(migrateCtx); err != nil {
				logger.Fatalf("ensure %s: %v", name, err)
			}
		}
	}

	profileSvc := profile.NewService(profiles)

	h := router.Handlers{
		Tenant:  tenant.NewHandler(tenant.NewService(cfg.ProductKey, admin), cfg.AdminServiceSecret, logger),
		Asset:   asset.NewHandler(asset.NewService(assets), cfg.WebhookSecret, logger),
		PayFast: payfast.NewHandler(payfast.NewService(cfg.PayFast, profileSvc), logger),
	}

	if len(cfg.Products) > 0 {
		var resolver admincontrol.UserResolver
		switch {
		case cfg.SupabaseJWTSecret != "":
			resolver = admincontrol.NewJWTResolver(cfg.SupabaseJWTSecret)
		case cfg.SupabaseURL != "":
			resolver = admincontrol.NewRemoteResolver(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
		default:
			logger.Warn("no SUPABASE_JWT_SECRET or SUPABASE_URL; admin control accepts the service secret only")
		}
		verifier := admincontrol.NewVerifier(cfg.AdminServiceSecret, cfg.AdminEmailAllowlist, resolver, profileSvc, logger)
		client := &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
		h.AdminControl = admincontrol.NewHandler(verifier, fanout.NewAggregator(cfg, client, logger), logger)
	}
	return h
}
