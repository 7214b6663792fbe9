package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	errx "github.com/webshop-agent/server/internal/core/error"
	logx "github.com/webshop-agent/server/pkg/logger"
)

// Config holds connection settings for the external product catalog API.
type Config struct {
	BaseURL        string `envconfig:"CATALOG_BASE_URL" required:"true"`
	BearerToken    string `envconfig:"CATALOG_BEARER_TOKEN"`
	TimeoutSeconds int    `envconfig:"CATALOG_TIMEOUT_SECONDS" default:"10"`
}

// Product is an authoritative catalog snapshot. It is fetched fresh on every
// request; the vector index only stores a coarse price hint.
type Product struct {
	ID        uint64  `json:"id"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Price     float64 `json:"price"`
	SalePrice *float64 `json:"sale_price"`
	Stock     int     `json:"stock"`
}

// EffectivePrice is the sale price when present, otherwise the list price.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// Client is a read-only HTTP client for the catalog API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func New(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.BearerToken,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetByID fetches one product by its catalog id. An id the catalog does not
// recognise yields errx.ErrCatalogNotFound.
func (c *Client) GetByID(ctx context.Context, id uint64) (*Product, error) {
	reqURL := fmt.Sprintf("%s%sid=%d", c.baseURL, querySeparator(c.baseURL), id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errx.WrapCatalog(errx.ErrCatalogNotFound)
	}
	if resp.StatusCode >= 300 {
		return nil, errx.WrapCatalog(fmt.Errorf("catalog GET %d failed: %s", id, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}

	product, err := decodeProduct(body)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	if product == nil {
		logx.Debug().Uint64("product_id", id).Msg("catalog returned no product")
		return nil, errx.WrapCatalog(errx.ErrCatalogNotFound)
	}
	return product, nil
}

// decodeProduct handles both observed response shapes: a bare product object
// and a paginated wrapper with a nested product list. An empty list means
// not-found, never a decode failure.
func decodeProduct(body []byte) (*Product, error) {
	var wrapped struct {
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Products) > 0 {
		return &wrapped.Products[0], nil
	}

	var single Product
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	if single.ID == 0 && single.Title == "" {
		return nil, nil
	}
	return &single, nil
}

func querySeparator(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.RawQuery != "" {
		return "&"
	}
	return "?"
}
