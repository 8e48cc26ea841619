package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/supaview/service-core-go/internal/tenant/entity"
	"github.com/supaview/service-core-go/internal/tenant/repo"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
	// recentPerKind bounds how many rows of each kind feed the overview's recent list.
	recentPerKind = 20
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Store is the read side of one product's database.
type Store interface {
	Stats(ctx context.Context) (*entity.Stats, error)
	RecentEvents(ctx context.Context, perKind int) ([]entity.Event, error)
	ListFreeEmbeds(ctx context.Context, q repo.ListQuery) ([]entity.FreeEmbed, error)
	ListProAssets(ctx context.Context, q repo.ListQuery) ([]entity.ProAsset, error)
	ListUsers(ctx context.Context, q repo.ListQuery) ([]entity.User, error)
}

// Service answers the per-product admin queries.
type Service struct {
	productKey string
	store      Store
}

func NewService(productKey string, store Store) *Service {
	return &Service{productKey: productKey, store: store}
}

// ParseListQuery reads limit, cursor and search (alias query) from v.
// A missing or non-numeric limit falls back to DefaultLimit; the result is
// clamped to [1, MaxLimit].
func ParseListQuery(v url.Values) (repo.ListQuery, error) {
	q := repo.ListQuery{Limit: DefaultLimit}
	if raw := v.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.Limit = min(max(n, 1), MaxLimit)
		}
	}
	if raw := v.Get("cursor"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return q, fmt.Errorf("%w: %q", ErrInvalidCursor, raw)
		}
		q.Cursor = &t
	}
	q.Search = strings.TrimSpace(v.Get("search"))
	if q.Search == "" {
		q.Search = strings.TrimSpace(v.Get("query"))
	}
	return q, nil
}

func (s *Service) Overview(ctx context.Context) (*entity.Overview, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	recent, err := s.store.RecentEvents(ctx, recentPerKind)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	if recent == nil {
		recent = []entity.Event{}
	}
	return &entity.Overview{ProductKey: s.productKey, Stats: stats, Recent: recent}, nil
}

func (s *Service) FreeEmbeds(ctx context.Context, q repo.ListQuery) (*entity.Page[entity.FreeEmbed], error) {
	rows, err := s.store.ListFreeEmbeds(ctx, overFetch(q))
	if err != nil {
		return nil, fmt.Errorf("list free embeds: %w", err)
	}
	return paginate(rows, q.Limit, func(e entity.FreeEmbed) time.Time { return e.CreatedAt }), nil
}

func (s *Service) ProAssets(ctx context.Context, q repo.ListQuery) (*entity.Page[entity.ProAsset], error) {
	rows, err := s.store.ListProAssets(ctx, overFetch(q))
	if err != nil {
		return nil, fmt.Errorf("list pro assets: %w", err)
	}
	return paginate(rows, q.Limit, func(a entity.ProAsset) time.Time { return a.CreatedAt }), nil
}

func (s *Service) Users(ctx context.Context, q repo.ListQuery) (*entity.Page[entity.User], error) {
	rows, err := s.store.ListUsers(ctx, overFetch(q))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return paginate(rows, q.Limit, func(u entity.User) time.Time { return u.CreatedAt }), nil
}

// overFetch asks for one extra row so the page knows whether more exist.
func overFetch(q repo.ListQuery) repo.ListQuery {
	q.Limit++
	return q
}

func paginate[T any](rows []T, limit int, createdAt func(T) time.Time) *entity.Page[T] {
	page := &entity.Page[T]{Data: rows, Pagination: entity.Pagination{Limit: limit}}
	if len(rows) > limit {
		page.Data = rows[:limit]
		page.Pagination.HasMore = true
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	if n := len(page.Data); n > 0 {
		c := createdAt(page.Data[n-1])
		page.Pagination.NextCursor = &c
	}
	return page
}
