package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/supaview/service-core-go/internal/asset/entity"
)

// AssetRepo provides data access for the pro_assets table.
type AssetRepo struct {
	db *sqlx.DB
}

func NewAssetRepo(db *sqlx.DB) *AssetRepo { return &AssetRepo{db: db} }

// EnsureTable creates the pro_assets table if not exists (idempotent).
func (r *AssetRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS pro_assets (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  user_id UUID NOT NULL,
  asset_id TEXT NOT NULL UNIQUE,
  title TEXT,
  status TEXT NOT NULL DEFAULT 'UPLOADING',
  playback_url TEXT,
  thumbnail_url TEXT,
  duration_seconds DOUBLE PRECISION,
  metadata JSONB,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pro_assets_created_at ON pro_assets(created_at DESC, id DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// ApplyStatus writes u onto the row whose asset_id matches and returns the
// resulting row, or (nil, nil) when no row matches.
func (r *AssetRepo) ApplyStatus(ctx context.Context, u entity.StatusUpdate) (*entity.ProAsset, error) {
	const q = `UPDATE pro_assets SET
		status=$2,
		updated_at=$3,
		playback_url=COALESCE($4, playback_url),
		thumbnail_url=COALESCE($5, thumbnail_url),
		duration_seconds=COALESCE($6, duration_seconds),
		metadata=COALESCE($7::jsonb, metadata)
	  WHERE asset_id=$1
	  RETURNING id, user_id, asset_id, title, status, playback_url, thumbnail_url,
		duration_seconds, COALESCE(metadata, 'null'::jsonb) AS metadata, created_at, updated_at`
	// jsonb parameters must go over the wire as text, not bytea
	var metadata *string
	if len(u.Metadata) > 0 {
		m := string(u.Metadata)
		metadata = &m
	}
	var row entity.ProAsset
	err := r.db.GetContext(ctx, &row, q,
		u.AssetID, string(u.Status), u.UpdatedAt,
		u.PlaybackURL, u.ThumbnailURL, u.DurationSeconds, metadata)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
