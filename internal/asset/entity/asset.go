package entity

import (
	"encoding/json"
	"time"
)

// Status is the encoding pipeline state of a pro asset.
type Status string

const (
	StatusUploading Status = "UPLOADING"
	StatusReady     Status = "READY"
	StatusFailed    Status = "FAILED"
)

// ValidStatuses lists every accepted status in a stable order.
var ValidStatuses = []Status{StatusUploading, StatusReady, StatusFailed}

func (s Status) Valid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ProAsset is a row of the `pro_assets` table. AssetID is the identifier
// assigned by the external encoding pipeline.
type ProAsset struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	AssetID         string          `db:"asset_id" json:"asset_id"`
	Title           *string         `db:"title" json:"title"`
	Status          Status          `db:"status" json:"status"`
	PlaybackURL     *string         `db:"playback_url" json:"playback_url"`
	ThumbnailURL    *string         `db:"thumbnail_url" json:"thumbnail_url"`
	DurationSeconds *float64        `db:"duration_seconds" json:"duration_seconds"`
	Metadata        json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// StatusUpdate is a partial update keyed by the external asset id. Nil
// fields leave the stored value untouched.
type StatusUpdate struct {
	AssetID         string
	Status          Status
	PlaybackURL     *string
	ThumbnailURL    *string
	DurationSeconds *float64
	Metadata        json.RawMessage
	UpdatedAt       time.Time
}
