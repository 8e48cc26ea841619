package profile

import (
	"context"
	"errors"
	"testing"
)

type MockStore struct {
	UpgradeFunc func(ctx context.Context, email, plan string) (int64, error)
	HasRoleFunc func(ctx context.Context, userID, role string) (bool, error)
}

func (m *MockStore) UpgradePlan(ctx context.Context, email, plan string) (int64, error) {
	if m.UpgradeFunc != nil {
		return m.UpgradeFunc(ctx, email, plan)
	}
	return 1, nil
}

func (m *MockStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if m.HasRoleFunc != nil {
		return m.HasRoleFunc(ctx, userID, role)
	}
	return false, nil
}

func TestUpgradePlanNormalizesEmail(t *testing.T) {
	var got string
	svc := NewService(&MockStore{UpgradeFunc: func(_ context.Context, email, _ string) (int64, error) {
		got = email
		return 1, nil
	}})
	if _, err := svc.UpgradePlan(context.Background(), "  Buyer@Example.COM ", "pro"); err != nil {
		t.Fatal(err)
	}
	if got != "buyer@example.com" {
		t.Fatalf("email = %q", got)
	}
}

func TestIsAdmin(t *testing.T) {
	const id = "6f1c3a0e-8f0b-4e5e-9d43-0b7f1b0c2a11"
	svc := NewService(&MockStore{HasRoleFunc: func(_ context.Context, userID, role string) (bool, error) {
		return userID == id && role == "admin", nil
	}})

	ok, err := svc.IsAdmin(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("IsAdmin = %v, %v", ok, err)
	}
	ok, err = svc.IsAdmin(context.Background(), "not-a-uuid")
	if ok || !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("bad id: %v, %v", ok, err)
	}
}
