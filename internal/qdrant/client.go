package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	errx "github.com/webshop-agent/server/internal/core/error"
	logx "github.com/webshop-agent/server/pkg/logger"
)

// Config holds connection settings for the Qdrant REST API.
type Config struct {
	URL            string `envconfig:"QDRANT_URL" required:"true"`
	APIKey         string `envconfig:"QDRANT_API_KEY"`
	Collection     string `envconfig:"QDRANT_COLLECTION" default:"products"`
	TimeoutSeconds int    `envconfig:"QDRANT_TIMEOUT_SECONDS" default:"15"`
}

// Client is a minimal REST client to Qdrant. It assumes cosine distance for
// every collection it creates.
type Client struct {
	url    string
	apiKey string
	client *http.Client
}

func New(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// Point is a single vector with its numeric id and filterable payload.
type Point struct {
	ID      uint64         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ScoredPoint is one similarity search hit, ordered by descending score.
type ScoredPoint struct {
	ID    uint64  `json:"id"`
	Score float64 `json:"score"`
}

// Range is an inclusive numeric range filter on a payload field.
// Only the bounds that are set are sent to Qdrant.
type Range struct {
	Key string
	Gte *float64
	Lte *float64
}

// CollectionExists reports whether the named collection exists.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	var resp struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s/exists", c.url, name), nil, &resp); err != nil {
		return false, errx.WrapVectorIndex(err)
	}
	return resp.Result.Exists, nil
}

// CreateCollection creates the named collection with the given vector size
// and cosine distance. Qdrant answers 200 when the collection already exists
// with the same schema.
func (c *Client) CreateCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return errx.WrapVectorIndex(errors.New("invalid dimension"))
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", c.url, name), body, nil); err != nil {
		return errx.WrapVectorIndex(err)
	}
	logx.Debug().Str("collection", name).Int("dimension", dimension).Msg("created qdrant collection")
	return nil
}

// CreatePayloadIndex makes the given payload field filterable. Called once,
// right after collection creation.
func (c *Client) CreatePayloadIndex(ctx context.Context, name, field, schema string) error {
	body := map[string]any{
		"field_name":   field,
		"field_schema": schema,
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/index?wait=true", c.url, name), body, nil); err != nil {
		return errx.WrapVectorIndex(err)
	}
	logx.Debug().Str("collection", name).Str("field", field).Msg("created qdrant payload index")
	return nil
}

// Upsert writes the points into the collection as one request, waiting for
// the operation to be applied so a following search can see them.
func (c *Client) Upsert(ctx context.Context, name string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]any{"points": points}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", c.url, name), body, nil); err != nil {
		return errx.WrapVectorIndex(err)
	}
	return nil
}

// Search runs a similarity search capped at limit, optionally restricted by
// an inclusive payload range filter and a minimum score threshold.
func (c *Client) Search(ctx context.Context, name string, vector []float32, filter *Range, limit int, scoreThreshold *float64) ([]ScoredPoint, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector": vector,
		"limit":  limit,
	}
	if filter != nil {
		rng := map[string]any{}
		if filter.Gte != nil {
			rng["gte"] = *filter.Gte
		}
		if filter.Lte != nil {
			rng["lte"] = *filter.Lte
		}
		if len(rng) > 0 {
			req["filter"] = map[string]any{
				"must": []map[string]any{
					{"key": filter.Key, "range": rng},
				},
			}
		}
	}
	if scoreThreshold != nil {
		req["score_threshold"] = *scoreThreshold
	}

	var resp struct {
		Result []ScoredPoint `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", c.url, name), req, &resp); err != nil {
		return nil, errx.WrapVectorIndex(err)
	}
	return resp.Result, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
