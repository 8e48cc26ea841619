package admincontrol

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/supaview/service-core-go/internal/fanout"
	"github.com/supaview/service-core-go/internal/tenant/entity"
)

// Resources served under /admin-control/.
const (
	ResourceOverview   = "overview"
	ResourceFreeEmbeds = "free-embeds"
	ResourceProAssets  = "pro-assets"
	ResourceUsers      = "users"
)

var validPaths = []string{
	"/admin-control/" + ResourceOverview,
	"/admin-control/" + ResourceFreeEmbeds,
	"/admin-control/" + ResourceProAssets,
	"/admin-control/" + ResourceUsers,
}

// Aggregator is the fan-out side the router dispatches to.
type Aggregator interface {
	Overview(ctx context.Context, query url.Values) (*fanout.AggregateOverview, error)
	FreeEmbeds(ctx context.Context, query url.Values) (*fanout.ListResult[entity.FreeEmbed], error)
	ProAssets(ctx context.Context, query url.Values) (*fanout.ListResult[entity.ProAsset], error)
	Users(ctx context.Context, query url.Values) (*fanout.ListResult[entity.User], error)
}

type Handler struct {
	verifier *Verifier
	agg      Aggregator
	logger   *zap.SugaredLogger
}

func NewHandler(verifier *Verifier, agg Aggregator, logger *zap.SugaredLogger) *Handler {
	return &Handler{verifier: verifier, agg: agg, logger: logger}
}

// Serve authenticates the caller and dispatches on the {resource} path value.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	caller, err := h.verifier.VerifyAdmin(r)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		h.internalError(w, r, err)
		return
	}

	resource := r.PathValue("resource")
	query := r.URL.Query()
	var out any
	switch resource {
	case ResourceOverview:
		out, err = h.agg.Overview(r.Context(), query)
	case ResourceFreeEmbeds:
		var res *fanout.ListResult[entity.FreeEmbed]
		if res, err = h.agg.FreeEmbeds(r.Context(), query); err == nil {
			out = listResponse("embeds", res.Items, res.Errors)
		}
	case ResourceProAssets:
		var res *fanout.ListResult[entity.ProAsset]
		if res, err = h.agg.ProAssets(r.Context(), query); err == nil {
			out = listResponse("assets", res.Items, res.Errors)
		}
	case ResourceUsers:
		var res *fanout.ListResult[entity.User]
		if res, err = h.agg.Users(r.Context(), query); err == nil {
			out = listResponse("users", res.Items, res.Errors)
		}
	default:
		h.writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found", "valid_paths": validPaths})
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.logger.Debugw("admin request served", "resource", resource, "caller", string(caller.Kind), "user_id", caller.UserID)
	h.writeJSON(w, http.StatusOK, out)
}

func listResponse[T any](key string, items []T, errs []fanout.ProductError) map[string]any {
	out := map[string]any{key: items, "total": len(items)}
	if len(errs) > 0 {
		out["errors"] = errs
	}
	return out
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Errorw("admin control failed", "path", r.URL.Path, "err", err)
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
