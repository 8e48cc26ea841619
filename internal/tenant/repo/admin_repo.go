package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/supaview/service-core-go/internal/tenant/entity"
)

// ListQuery selects one page of rows ordered created_at DESC, id DESC.
type ListQuery struct {
	Limit  int
	Cursor *time.Time
	Search string
}

// AdminRepo runs the read-only queries behind the per-product admin endpoints.
type AdminRepo struct {
	db *sqlx.DB
}

func NewAdminRepo(db *sqlx.DB) *AdminRepo { return &AdminRepo{db: db} }

// EnsureTable creates the free_embeds table if not exists (idempotent).
// profiles and pro_assets belong to their own repos.
func (r *AdminRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS free_embeds (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  user_id UUID NOT NULL,
  title TEXT,
  embed_url TEXT NOT NULL,
  platform TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_free_embeds_created_at ON free_embeds(created_at DESC, id DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *AdminRepo) Stats(ctx context.Context) (*entity.Stats, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM profiles) AS total_users,
		(SELECT COUNT(*) FROM free_embeds) AS free_embed_count,
		(SELECT COUNT(*) FROM pro_assets) AS pro_asset_count`
	var s entity.Stats
	if err := r.db.GetContext(ctx, &s, q); err != nil {
		return nil, err
	}
	return &s, nil
}

// RecentEvents returns up to perKind newest rows of each kind, newest first.
func (r *AdminRepo) RecentEvents(ctx context.Context, perKind int) ([]entity.Event, error) {
	const q = `
(SELECT 'FREE_EMBED_CREATED' AS type, id::text AS id, user_id::text AS user_id, created_at
   FROM free_embeds ORDER BY created_at DESC LIMIT $1)
UNION ALL
(SELECT 'PRO_ASSET_CREATED' AS type, id::text AS id, user_id::text AS user_id, created_at
   FROM pro_assets ORDER BY created_at DESC LIMIT $1)
ORDER BY created_at DESC`
	events := []entity.Event{}
	if err := r.db.SelectContext(ctx, &events, q, perKind); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *AdminRepo) ListFreeEmbeds(ctx context.Context, lq ListQuery) ([]entity.FreeEmbed, error) {
	base := `SELECT id, user_id, title, embed_url, platform, created_at FROM free_embeds`
	q, args := pageQuery(base, []string{"title", "embed_url"}, lq)
	rows := []entity.FreeEmbed{}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AdminRepo) ListProAssets(ctx context.Context, lq ListQuery) ([]entity.ProAsset, error) {
	base := `SELECT id, user_id, asset_id, title, status, playback_url, thumbnail_url,
		duration_seconds, COALESCE(metadata, 'null'::jsonb) AS metadata, created_at, updated_at
	  FROM pro_assets`
	q, args := pageQuery(base, []string{"title", "asset_id"}, lq)
	rows := []entity.ProAsset{}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AdminRepo) ListUsers(ctx context.Context, lq ListQuery) ([]entity.User, error) {
	base := `SELECT id, email::text AS email, full_name, plan, tier, created_at, updated_at FROM profiles`
	q, args := pageQuery(base, []string{"email::text", "full_name"}, lq)
	rows := []entity.User{}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// pageQuery appends the cursor, search and ordering clauses to base.
func pageQuery(base string, searchCols []string, lq ListQuery) (string, []any) {
	var where []string
	var args []any
	if lq.Cursor != nil {
		args = append(args, *lq.Cursor)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if lq.Search != "" {
		args = append(args, "%"+escapeLike(lq.Search)+"%")
		ors := make([]string, len(searchCols))
		for i, c := range searchCols {
			ors[i] = fmt.Sprintf("%s ILIKE $%d", c, len(args))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	q := base
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, lq.Limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	return q, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
