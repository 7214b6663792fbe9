package ingest

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	errx "github.com/webshop-agent/server/internal/core/error"
	logx "github.com/webshop-agent/server/pkg/logger"
)

// EmbeddingConfig configures the embedding model and the chunking applied to
// oversized documents before they are embedded.
type EmbeddingConfig struct {
	Model        string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	Dimension    int    `envconfig:"EMBEDDING_DIMENSION" default:"3072"`
	ChunkSize    int    `envconfig:"EMBEDDING_CHUNK_SIZE" default:"22000"`
	ChunkOverlap int    `envconfig:"EMBEDDING_CHUNK_OVERLAP" default:"800"`
}

// EmbeddingBackend is one remote embedding call. Failures propagate; no
// retries happen at this layer.
type EmbeddingBackend interface {
	EmbedText(ctx context.Context, model, text string, dimension int) ([]float32, error)
}

// GeminiBackend embeds text through the Gemini embedding API.
type GeminiBackend struct {
	client *genai.Client
}

func NewGeminiBackend(client *genai.Client) *GeminiBackend {
	return &GeminiBackend{client: client}
}

func (g *GeminiBackend) EmbedText(ctx context.Context, model, text string, dimension int) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(dimension)),
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embed content: empty response for model %s", model)
	}
	return resp.Embeddings[0].Values, nil
}

// Embedder produces one representative vector per document: the text is
// normalized, chunked, each chunk embedded independently, and the chunk
// vectors averaged component-wise.
type Embedder struct {
	cfg        EmbeddingConfig
	backend    EmbeddingBackend
	normalizer *Normalizer
}

func NewEmbedder(cfg EmbeddingConfig, backend EmbeddingBackend) *Embedder {
	return &Embedder{
		cfg:        cfg,
		backend:    backend,
		normalizer: NewNormalizer(),
	}
}

// Dimension returns the fixed embedding dimension.
func (e *Embedder) Dimension() int {
	return e.cfg.Dimension
}

// Embed returns the averaged embedding for text. Blank text returns the
// zero-length sentinel without any remote call. A vector that comes back
// with the wrong dimension is an internal error, not a recoverable one.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	clean := e.normalizer.Normalize(text)

	var sum []float64
	count := 0
	for chunk := range Chunks(clean, e.cfg.ChunkSize, e.cfg.ChunkOverlap) {
		vec, err := e.backend.EmbedText(ctx, e.cfg.Model, chunk, e.cfg.Dimension)
		if err != nil {
			return nil, err
		}
		if len(vec) != e.cfg.Dimension {
			return nil, errx.Internal(fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), e.cfg.Dimension))
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		for i, v := range vec {
			sum[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil, nil
	}
	if count > 1 {
		logx.Debug().Int("chunks", count).Msg("averaged multi-chunk embedding")
	}

	avg := make([]float32, len(sum))
	for i := range sum {
		avg[i] = float32(sum[i] / float64(count))
	}
	return avg, nil
}
