// Package fanout queries every configured product backend concurrently and
// merges the answers. A failing product never fails the batch: its outcome
// carries the error and the merge reports it next to the healthy products.
package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/supaview/service-core-go/internal/config"
)

// Endpoint names a per-product admin endpoint.
type Endpoint string

const (
	EndpointOverview   Endpoint = "admin-overview"
	EndpointFreeEmbeds Endpoint = "admin-free-embeds"
	EndpointProAssets  Endpoint = "admin-pro-assets"
	EndpointUsers      Endpoint = "admin-users"
)

// maxResponseBytes caps how much of a product response is read.
const maxResponseBytes = 8 << 20

var (
	ErrNoProducts      = errors.New("no products configured")
	ErrInvalidResponse = errors.New("invalid response")
)

// StatusError is a non-2xx answer from a product backend.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

// Outcome is the settled result of one product call: Data on success, Err otherwise.
type Outcome[T any] struct {
	ProductKey string
	Name       string
	Data       *T
	Err        error
}

// Aggregator issues the same admin request to every product.
type Aggregator struct {
	products    []config.ProductConfig
	secret      string
	client      *http.Client
	timeout     time.Duration
	concurrency int
	logger      *zap.SugaredLogger
}

func NewAggregator(cfg *config.Config, client *http.Client, logger *zap.SugaredLogger) *Aggregator {
	if client == nil {
		client = &http.Client{}
	}
	return &Aggregator{
		products:    cfg.Products,
		secret:      cfg.AdminServiceSecret,
		client:      client,
		timeout:     cfg.FanoutTimeout,
		concurrency: cfg.FanoutConcurrency,
		logger:      logger,
	}
}

// Products returns the fan-out targets.
func (a *Aggregator) Products() []config.ProductConfig {
	return a.products
}

// fetchAll calls endpoint on every product and waits for all of them to
// settle. Outcomes keep the configured product order. validate rejects
// payloads that decoded but are not usable.
func fetchAll[T any](ctx context.Context, a *Aggregator, endpoint Endpoint, query url.Values, validate func(*T) error) ([]Outcome[T], error) {
	if len(a.products) == 0 {
		return nil, ErrNoProducts
	}
	outcomes := make([]Outcome[T], len(a.products))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, p := range a.products {
		g.Go(func() error {
			out := Outcome[T]{ProductKey: p.ProductKey, Name: p.Name}
			var data T
			if err := a.fetch(ctx, p, endpoint, query, &data); err != nil {
				out.Err = err
			} else if validate != nil {
				out.Err = validate(&data)
			}
			if out.Err == nil {
				out.Data = &data
			} else {
				a.logger.Warnw("product fetch failed",
					"product", p.ProductKey, "endpoint", string(endpoint), "err", out.Err)
			}
			outcomes[i] = out
			// never short-circuit the batch
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

// fetch performs one bounded GET and decodes the JSON body into dst.
func (a *Aggregator) fetch(ctx context.Context, p config.ProductConfig, endpoint Endpoint, query url.Values, dst any) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	target := p.AdminBaseURL + "/" + string(endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-admin-token", a.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &StatusError{Code: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// forwardQuery copies the caller's query minus the post-merge product filter.
func forwardQuery(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		if k == "product" {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}
