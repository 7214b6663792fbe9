package ingest

import (
	"context"
	"fmt"
	"strconv"

	errx "github.com/webshop-agent/server/internal/core/error"
	"github.com/webshop-agent/server/internal/qdrant"
	logx "github.com/webshop-agent/server/pkg/logger"
)

// VectorIndex is the slice of the Qdrant client the pipeline needs.
type VectorIndex interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, name string, dimension int) error
	CreatePayloadIndex(ctx context.Context, name, field, schema string) error
	Upsert(ctx context.Context, name string, points []qdrant.Point) error
}

// PipelineConfig configures an ingestion run.
type PipelineConfig struct {
	FeedPath   string `envconfig:"PRODUCT_FEED_PATH" default:"data/products.csv"`
	BatchSize  int    `envconfig:"INGEST_BATCH_SIZE" default:"100"`
	Collection string `envconfig:"QDRANT_COLLECTION" default:"products"`
}

// Progress is called after every upserted batch with the number of records
// processed so far (skipped ones included) and the feed total.
type Progress func(processed, total int)

// Pipeline loads the product feed, embeds each record and upserts the
// vectors into the index in fixed-size batches. A failed batch aborts the
// remaining batches: a loud stop beats a silently partial index.
type Pipeline struct {
	cfg      PipelineConfig
	index    VectorIndex
	embedder *Embedder
	progress Progress
}

func NewPipeline(cfg PipelineConfig, index VectorIndex, embedder *Embedder, progress Progress) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Pipeline{
		cfg:      cfg,
		index:    index,
		embedder: embedder,
		progress: progress,
	}
}

// Run executes one full ingestion pass over the feed.
func (p *Pipeline) Run(ctx context.Context) error {
	records, err := LoadFeed(p.cfg.FeedPath)
	if err != nil {
		return err
	}
	return p.ingest(ctx, records)
}

func (p *Pipeline) ingest(ctx context.Context, records []ProductRecord) error {
	if err := p.ensureCollection(ctx); err != nil {
		return err
	}

	total := len(records)
	skipped := 0

	for start := 0; start < total; start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, total)
		batch := records[start:end]

		points := make([]qdrant.Point, 0, len(batch))
		for _, rec := range batch {
			text := rec.SearchableText()
			if text == "" {
				skipped++
				logx.Debug().Str("product_id", rec.ID).Msg("skipping record with empty text")
				continue
			}

			vector, err := p.embedder.Embed(ctx, text)
			if err != nil {
				return err
			}
			if len(vector) == 0 {
				skipped++
				logx.Debug().Str("product_id", rec.ID).Msg("skipping record with empty embedding")
				continue
			}

			id, err := strconv.ParseUint(rec.ID, 10, 64)
			if err != nil {
				return errx.Internal(fmt.Errorf("malformed product id %q: %w", rec.ID, err))
			}

			points = append(points, qdrant.Point{
				ID:     id,
				Vector: vector,
				Payload: map[string]any{
					"price": rec.Price,
					"title": rec.Title,
				},
			})
		}

		if err := p.index.Upsert(ctx, p.cfg.Collection, points); err != nil {
			return err
		}

		logx.Info().Int("uploaded", end).Int("total", total).Msg("upserted product batch")
		if p.progress != nil {
			p.progress(end, total)
		}
	}

	logx.Info().Int("total", total).Int("skipped", skipped).Msg("ingestion run finished")
	return nil
}

// ensureCollection creates the collection and its price payload index on the
// first run. The payload index is only created together with the collection.
func (p *Pipeline) ensureCollection(ctx context.Context) error {
	exists, err := p.index.CollectionExists(ctx, p.cfg.Collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := p.index.CreateCollection(ctx, p.cfg.Collection, p.embedder.Dimension()); err != nil {
		return err
	}
	return p.index.CreatePayloadIndex(ctx, p.cfg.Collection, "price", "float")
}
