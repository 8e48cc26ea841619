package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/supaview/service-core-go/internal/profile/entity"
)

// Store is the persistence the profile service needs.
type Store interface {
	UpgradePlan(ctx context.Context, email, plan string) (int64, error)
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

var ErrInvalidUserID = errors.New("invalid user id")

// Service normalizes input before it reaches the profile store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// UpgradePlan applies plan to the profile owning email.
func (s *Service) UpgradePlan(ctx context.Context, email, plan string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return 0, nil
	}
	return s.store.UpgradePlan(ctx, email, plan)
}

// IsAdmin reports whether the user holds the admin role. User ids are
// auth-provider UUIDs; anything else cannot be an admin.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return s.store.HasRole(ctx, id.String(), entity.RoleAdmin)
}
