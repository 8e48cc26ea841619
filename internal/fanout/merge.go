package fanout

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"github.com/supaview/service-core-go/internal/tenant/entity"
)

// RecentLimit caps the merged recent-activity list.
const RecentLimit = 50

// ProductOverview is one product's line in the aggregate overview. Stats is
// nil when the product failed.
type ProductOverview struct {
	ProductKey string        `json:"product_key"`
	Name       string        `json:"name"`
	Stats      *entity.Stats `json:"stats"`
	Error      string        `json:"error,omitempty"`
}

type ProductInfo struct {
	ProductKey string `json:"product_key"`
	Name       string `json:"name"`
}

// AggregateOverview is the merged admin overview across products.
type AggregateOverview struct {
	Global     entity.Stats      `json:"global"`
	PerProduct []ProductOverview `json:"per_product"`
	Recent     []entity.Event    `json:"recent"`
	Products   []ProductInfo     `json:"products"`
}

// ProductError reports a product that could not contribute to a list.
type ProductError struct {
	ProductKey string `json:"product_key"`
	Name       string `json:"name"`
	Error      string `json:"error"`
}

// ListResult is a flattened list of records tagged with their product.
type ListResult[T any] struct {
	Items  []T
	Errors []ProductError
}

// Overview fans out admin-overview and merges the answers.
func (a *Aggregator) Overview(ctx context.Context, query url.Values) (*AggregateOverview, error) {
	outcomes, err := fetchAll(ctx, a, EndpointOverview, forwardQuery(query), validateOverview)
	if err != nil {
		return nil, err
	}
	return MergeOverview(outcomes), nil
}

func (a *Aggregator) FreeEmbeds(ctx context.Context, query url.Values) (*ListResult[entity.FreeEmbed], error) {
	return fetchList[entity.FreeEmbed](ctx, a, EndpointFreeEmbeds, query)
}

func (a *Aggregator) ProAssets(ctx context.Context, query url.Values) (*ListResult[entity.ProAsset], error) {
	return fetchList[entity.ProAsset](ctx, a, EndpointProAssets, query)
}

func (a *Aggregator) Users(ctx context.Context, query url.Values) (*ListResult[entity.User], error) {
	return fetchList[entity.User](ctx, a, EndpointUsers, query)
}

func fetchList[T any, PT taggable[T]](ctx context.Context, a *Aggregator, endpoint Endpoint, query url.Values) (*ListResult[T], error) {
	outcomes, err := fetchAll(ctx, a, endpoint, forwardQuery(query), validatePage[T])
	if err != nil {
		return nil, err
	}
	return MergeList[T, PT](outcomes, query.Get("product")), nil
}

func validateOverview(o *entity.Overview) error {
	if o.Stats == nil {
		return fmt.Errorf("%w: missing stats", ErrInvalidResponse)
	}
	return nil
}

func validatePage[T any](p *entity.Page[T]) error {
	if p.Data == nil {
		return fmt.Errorf("%w: missing data", ErrInvalidResponse)
	}
	return nil
}

// MergeOverview sums stats over the products that answered, keeps one
// per_product entry per product, and returns the newest RecentLimit events
// across all products.
func MergeOverview(outcomes []Outcome[entity.Overview]) *AggregateOverview {
	agg := &AggregateOverview{
		PerProduct: make([]ProductOverview, 0, len(outcomes)),
		Recent:     []entity.Event{},
		Products:   make([]ProductInfo, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		agg.Products = append(agg.Products, ProductInfo{ProductKey: o.ProductKey, Name: o.Name})
		line := ProductOverview{ProductKey: o.ProductKey, Name: o.Name}
		if o.Err != nil || o.Data == nil {
			line.Error = errorText(o.Err)
			agg.PerProduct = append(agg.PerProduct, line)
			continue
		}
		s := o.Data.Stats
		line.Stats = s
		agg.Global.TotalUsers += s.TotalUsers
		agg.Global.FreeEmbedCount += s.FreeEmbedCount
		agg.Global.ProAssetCount += s.ProAssetCount
		agg.PerProduct = append(agg.PerProduct, line)

		for _, ev := range o.Data.Recent {
			ev.SetProduct(o.ProductKey, o.Name)
			agg.Recent = append(agg.Recent, ev)
		}
	}
	slices.SortStableFunc(agg.Recent, func(a, b entity.Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(agg.Recent) > RecentLimit {
		agg.Recent = agg.Recent[:RecentLimit]
	}
	return agg
}

// taggable is satisfied by pointers to records that embed entity.ProductRef.
type taggable[T any] interface {
	*T
	SetProduct(key, name string)
}

// MergeList flattens every product's page, tags each record with its
// product, then keeps only product when it is non-empty.
func MergeList[T any, PT taggable[T]](outcomes []Outcome[entity.Page[T]], product string) *ListResult[T] {
	res := &ListResult[T]{Items: []T{}}
	for _, o := range outcomes {
		if product != "" && o.ProductKey != product {
			continue
		}
		if o.Err != nil || o.Data == nil {
			res.Errors = append(res.Errors, ProductError{ProductKey: o.ProductKey, Name: o.Name, Error: errorText(o.Err)})
			continue
		}
		for _, rec := range o.Data.Data {
			PT(&rec).SetProduct(o.ProductKey, o.Name)
			res.Items = append(res.Items, rec)
		}
	}
	return res
}

func errorText(err error) string {
	if err == nil {
		return "no data"
	}
	return err.Error()
}
