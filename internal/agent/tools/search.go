package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/webshop-agent/server/internal/catalog"
	errx "github.com/webshop-agent/server/internal/core/error"
	"github.com/webshop-agent/server/internal/qdrant"
	logx "github.com/webshop-agent/server/pkg/logger"
)

// Short queries are ambiguous, so only very close matches are trusted.
const (
	shortQueryRunes          = 30
	shortQueryScoreThreshold = 0.45
	longQueryScoreThreshold  = 0.25
)

// Embedder turns a query into a vector. A zero-length result means the
// query had no embeddable content.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is the similarity search slice of the Qdrant client.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, vector []float32, filter *qdrant.Range, limit int, scoreThreshold *float64) ([]qdrant.ScoredPoint, error)
}

// CatalogReader fetches authoritative product facts by id.
type CatalogReader interface {
	GetByID(ctx context.Context, id uint64) (*catalog.Product, error)
}

// Service implements both tools against the vector index and the catalog.
type Service struct {
	embedder   Embedder
	index      VectorSearcher
	catalog    CatalogReader
	collection string
}

func NewService(embedder Embedder, index VectorSearcher, catalogReader CatalogReader, collection string) *Service {
	return &Service{
		embedder:   embedder,
		index:      index,
		catalog:    catalogReader,
		collection: collection,
	}
}

// ProductHit is one search result enriched with catalog facts. Price and
// stock come from the catalog, never from the index payload.
type ProductHit struct {
	DisplayIndex int
	ID           uint64
	Score        float64
	Name         string
	Price        float64
	SalePrice    *float64
	URL          string
	Stock        int
}

func (h ProductHit) effectivePrice() float64 {
	if h.SalePrice != nil {
		return *h.SalePrice
	}
	return h.Price
}

// SearchVectorized embeds the query, searches the index with the optional
// price filter, resolves each hit against the catalog concurrently, drops
// ids the catalog no longer knows and optionally re-orders by ascending
// effective price. Re-ordering never changes the returned id set.
func (s *Service) SearchVectorized(ctx context.Context, args *SearchProductsArgs) ([]ProductHit, error) {
	vector, err := s.embedder.Embed(ctx, args.Query)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, nil
	}

	var filter *qdrant.Range
	if args.PriceLowerLimit != nil || args.PriceUpperLimit != nil {
		filter = &qdrant.Range{Key: "price"}
		if args.PriceLowerLimit != nil {
			v := float64(*args.PriceLowerLimit)
			filter.Gte = &v
		}
		if args.PriceUpperLimit != nil {
			v := float64(*args.PriceUpperLimit)
			filter.Lte = &v
		}
	}

	threshold := scoreThresholdFor(args.Query)
	points, err := s.index.Search(ctx, s.collection, vector, filter, args.Limit, &threshold)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		logx.Debug().Str("query", args.Query).Msg("vectorized search returned no points")
		return nil, nil
	}

	resolved := make([]*catalog.Product, len(points))
	g, gctx := errgroup.WithContext(ctx)
	for i, point := range points {
		g.Go(func() error {
			product, err := s.catalog.GetByID(gctx, point.ID)
			if err != nil {
				if errors.Is(err, errx.ErrCatalogNotFound) {
					logx.Warn().Uint64("product_id", point.ID).Msg("indexed product unknown to catalog, dropping")
					return nil
				}
				return err
			}
			resolved[i] = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hits := make([]ProductHit, 0, len(points))
	for i, point := range points {
		product := resolved[i]
		if product == nil {
			continue
		}
		hits = append(hits, ProductHit{
			ID:        point.ID,
			Score:     point.Score,
			Name:      product.Title,
			Price:     product.Price,
			SalePrice: product.SalePrice,
			URL:       product.URL,
			Stock:     product.Stock,
		})
	}

	if args.SortAscendingByPrice {
		sort.SliceStable(hits, func(i, j int) bool {
			return hits[i].effectivePrice() < hits[j].effectivePrice()
		})
	}
	for i := range hits {
		hits[i].DisplayIndex = i + 1
	}
	return hits, nil
}

func scoreThresholdFor(query string) float64 {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < shortQueryRunes {
		return shortQueryScoreThreshold
	}
	return longQueryScoreThreshold
}

// FormatHits renders the hits as the tool result the model reads.
func FormatHits(hits []ProductHit) string {
	if len(hits) == 0 {
		return "No matching products found."
	}
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "%d. %s (id %d, similarity %.2f)\n", h.DisplayIndex, h.Name, h.ID, h.Score)
		fmt.Fprintf(&b, "   Price: %.2f", h.Price)
		if h.SalePrice != nil {
			fmt.Fprintf(&b, ", sale price: %.2f", *h.SalePrice)
		}
		fmt.Fprintf(&b, "\n   Url: %s\n   Stock: %d\n", h.URL, h.Stock)
	}
	return strings.TrimRight(b.String(), "\n")
}
