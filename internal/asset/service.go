package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/supaview/service-core-go/internal/asset/entity"
)

var (
	ErrMissingFields = errors.New("asset_id and status are required")
	ErrInvalidStatus = errors.New("invalid status")
	ErrNotFound      = errors.New("asset not found")
)

// Store applies a status update and returns the updated row, or nil when no
// row carries the asset id.
type Store interface {
	ApplyStatus(ctx context.Context, u entity.StatusUpdate) (*entity.ProAsset, error)
}

// StatusPayload is the webhook body sent by the encoding pipeline.
type StatusPayload struct {
	AssetID         string          `json:"asset_id"`
	Status          string          `json:"status"`
	PlaybackURL     *string         `json:"playback_url,omitempty"`
	ThumbnailURL    *string         `json:"thumbnail_url,omitempty"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// ApplyStatus validates p and writes it onto the matching asset. Delivering
// the same payload twice leaves the row in the same state.
func (s *Service) ApplyStatus(ctx context.Context, p StatusPayload) (*entity.ProAsset, error) {
	assetID := strings.TrimSpace(p.AssetID)
	if assetID == "" || p.Status == "" {
		return nil, ErrMissingFields
	}
	status := entity.Status(p.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}
	u := entity.StatusUpdate{
		AssetID:         assetID,
		Status:          status,
		PlaybackURL:     p.PlaybackURL,
		ThumbnailURL:    p.ThumbnailURL,
		DurationSeconds: p.DurationSeconds,
		UpdatedAt:       s.now(),
	}
	if m := bytes.TrimSpace(p.Metadata); len(m) > 0 && !bytes.Equal(m, []byte("null")) {
		u.Metadata = m
	}
	row, err := s.store.ApplyStatus(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("apply status %s: %w", assetID, err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}
