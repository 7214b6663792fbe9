package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	method string
	path   string
	query  string
	apiKey string
	body   map[string]any
}

func newTestClient(t *testing.T, status int, response string) (*Client, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		captured.apiKey = r.Header.Get("api-key")
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &captured.body)
		}
		w.WriteHeader(status)
		if response != "" {
			_, _ = w.Write([]byte(response))
		}
	}))
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL, APIKey: "secret", TimeoutSeconds: 5}), captured
}

func TestCollectionExists(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"result":{"exists":true}}`)

	exists, err := c.CollectionExists(context.Background(), "products")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "/collections/products/exists", captured.path)
	assert.Equal(t, "secret", captured.apiKey)
}

func TestCreateCollectionUsesCosineDistance(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"result":true}`)

	require.NoError(t, c.CreateCollection(context.Background(), "products", 3072))
	assert.Equal(t, http.MethodPut, captured.method)
	assert.Equal(t, "/collections/products", captured.path)

	vectors, ok := captured.body["vectors"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3072), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestCreateCollectionRejectsInvalidDimension(t *testing.T) {
	c := New(Config{URL: "http://unused.invalid"})
	require.Error(t, c.CreateCollection(context.Background(), "products", 0))
}

func TestCreatePayloadIndexWaits(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"result":true}`)

	require.NoError(t, c.CreatePayloadIndex(context.Background(), "products", "price", "float"))
	assert.Equal(t, "/collections/products/index", captured.path)
	assert.Equal(t, "wait=true", captured.query)
	assert.Equal(t, "price", captured.body["field_name"])
	assert.Equal(t, "float", captured.body["field_schema"])
}

func TestUpsertWaitsAndSendsPoints(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"result":true}`)

	points := []Point{
		{ID: 1, Vector: []float32{0.1, 0.2}, Payload: map[string]any{"price": 100.0}},
		{ID: 2, Vector: []float32{0.3, 0.4}},
	}
	require.NoError(t, c.Upsert(context.Background(), "products", points))
	assert.Equal(t, "/collections/products/points", captured.path)
	assert.Equal(t, "wait=true", captured.query)

	sent, ok := captured.body["points"].([]any)
	require.True(t, ok)
	assert.Len(t, sent, 2)
}

func TestUpsertSkipsEmptyBatch(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, "")

	require.NoError(t, c.Upsert(context.Background(), "products", nil))
	assert.Empty(t, captured.method)
}

func TestSearchSendsFilterAndThreshold(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"result":[{"id":7,"score":0.83},{"id":3,"score":0.61}]}`)

	gte, lte, threshold := 100.0, 500.0, 0.45
	points, err := c.Search(context.Background(), "products", []float32{0.5, 0.5}, &Range{Key: "price", Gte: &gte, Lte: &lte}, 5, &threshold)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, uint64(7), points[0].ID)
	assert.Equal(t, 0.83, points[0].Score)

	assert.Equal(t, "/collections/products/points/search", captured.path)
	assert.Equal(t, float64(5), captured.body["limit"])
	assert.Equal(t, 0.45, captured.body["score_threshold"])

	filter, ok := captured.body["filter"].(map[string]any)
	require.True(t, ok)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	cond := must[0].(map[string]any)
	assert.Equal(t, "price", cond["key"])
	rng := cond["range"].(map[string]any)
	assert.Equal(t, 100.0, rng["gte"])
	assert.Equal(t, 500.0, rng["lte"])
}

func TestSearchOmitsFilterWithoutBounds(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"result":[]}`)

	_, err := c.Search(context.Background(), "products", []float32{0.5}, nil, 5, nil)
	require.NoError(t, err)
	_, hasFilter := captured.body["filter"]
	assert.False(t, hasFilter)
	_, hasThreshold := captured.body["score_threshold"]
	assert.False(t, hasThreshold)
}

func TestSearchOneSidedRange(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"result":[]}`)

	lte := 500.0
	_, err := c.Search(context.Background(), "products", []float32{0.5}, &Range{Key: "price", Lte: &lte}, 5, nil)
	require.NoError(t, err)

	filter := captured.body["filter"].(map[string]any)
	cond := filter["must"].([]any)[0].(map[string]any)
	rng := cond["range"].(map[string]any)
	assert.Equal(t, 500.0, rng["lte"])
	_, hasGte := rng["gte"]
	assert.False(t, hasGte)
}

func TestErrorStatusSurfacesAsVectorIndexError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusInternalServerError, `{"status":"error"}`)

	_, err := c.Search(context.Background(), "products", []float32{0.5}, nil, 5, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
