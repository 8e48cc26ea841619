// Package entity holds the wire schemas of the per-product admin endpoints.
// The fan-out aggregator decodes the same types.
package entity

import (
	"time"

	assetentity "github.com/supaview/service-core-go/internal/asset/entity"
	profileentity "github.com/supaview/service-core-go/internal/profile/entity"
)

// ProductRef tags a record with the product it was read from. It is empty on
// the per-product endpoints and filled in by the aggregator.
type ProductRef struct {
	ProductKey  string `db:"-" json:"product_key,omitempty"`
	ProductName string `db:"-" json:"product_name,omitempty"`
}

func (p *ProductRef) SetProduct(key, name string) {
	p.ProductKey = key
	p.ProductName = name
}

type Stats struct {
	TotalUsers     int64 `db:"total_users" json:"total_users"`
	FreeEmbedCount int64 `db:"free_embed_count" json:"free_embed_count"`
	ProAssetCount  int64 `db:"pro_asset_count" json:"pro_asset_count"`
}

type EventType string

const (
	EventFreeEmbedCreated EventType = "FREE_EMBED_CREATED"
	EventProAssetCreated  EventType = "PRO_ASSET_CREATED"
)

// Event is one recent-activity record.
type Event struct {
	Type      EventType `db:"type" json:"type"`
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ProductRef
}

// Overview is the payload of GET /admin-overview.
type Overview struct {
	ProductKey string  `json:"product_key"`
	Stats      *Stats  `json:"stats"`
	Recent     []Event `json:"recent"`
}

type FreeEmbed struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     *string   `db:"title" json:"title"`
	EmbedURL  string    `db:"embed_url" json:"embed_url"`
	Platform  *string   `db:"platform" json:"platform"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ProductRef
}

type ProAsset struct {
	assetentity.ProAsset
	ProductRef
}

type User struct {
	profileentity.Profile
	ProductRef
}

// Pagination describes a created_at-descending cursor page. NextCursor is
// the created_at of the last row returned; the next page holds rows strictly
// older than it.
type Pagination struct {
	Limit      int        `json:"limit"`
	HasMore    bool       `json:"has_more"`
	NextCursor *time.Time `json:"next_cursor"`
}

// Page is the payload of the paginated per-product endpoints.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}
