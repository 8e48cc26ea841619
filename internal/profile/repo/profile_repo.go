package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ProfileRepo provides data access for the profiles and user_roles tables using sqlx.
type ProfileRepo struct {
	db *sqlx.DB
}

func NewProfileRepo(db *sqlx.DB) *ProfileRepo { return &ProfileRepo{db: db} }

// EnsureTables creates the profiles and user_roles tables if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *ProfileRepo) EnsureTables(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS profiles (
  id UUID PRIMARY KEY,
  email CITEXT UNIQUE,
  full_name TEXT,
  plan TEXT NOT NULL DEFAULT 'free',
  tier TEXT NOT NULL DEFAULT 'free',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_profiles_created_at ON profiles(created_at DESC, id DESC);
CREATE TABLE IF NOT EXISTS user_roles (
  user_id UUID NOT NULL,
  role TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  PRIMARY KEY (user_id, role)
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// UpgradePlan sets plan and tier on the profile matched by email (case-insensitive
// due to citext). Setting the same values again is harmless.
func (r *ProfileRepo) UpgradePlan(ctx context.Context, email, plan string) (int64, error) {
	const q = `UPDATE profiles SET plan=$2, tier=$2, updated_at=NOW() WHERE email=$1`
	res, err := r.db.ExecContext(ctx, q, email, plan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HasRole reports whether userID holds role.
func (r *ProfileRepo) HasRole(ctx context.Context, userID, role string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id=$1 AND role=$2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, q, userID, role); err != nil {
		return false, err
	}
	return ok, nil
}
