package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/yungbote/classroom-backend/internal/domain/library"
	"github.com/yungbote/classroom-backend/internal/platform/docextract"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/platform/qdrant"
)

// VectorStore is satisfied by *qdrant.Store and *qdrant.MemoryStore.
type VectorStore interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	EnsureCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, points []qdrant.Point) error
	Search(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]qdrant.Match, error)
	DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error
	DeleteCollection(ctx context.Context, name string) error
}

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// HashEmbedder is a deterministic bag-of-words embedder for local runs without
// an embeddings API. Each token is hashed into one of Dim buckets.
type HashEmbedder struct {
	Dim int
}

func (h HashEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	if h.Dim <= 0 {
		return nil, fmt.Errorf("hash embedder: invalid dimension %d", h.Dim)
	}
	out := make([][]float32, len(inputs))
	for i, text := range inputs {
		vec := make([]float32, h.Dim)
		for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			f := fnv.New32a()
			_, _ = f.Write([]byte(tok))
			sum := f.Sum32()
			sign := float32(1)
			if sum&1 == 1 {
				sign = -1
			}
			vec[int(sum>>1)%h.Dim] += sign
		}
		normalize(vec)
		out[i] = vec
	}
	return out, nil
}

func normalize(v []float32) {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	if sq == 0 {
		return
	}
	n := float32(math.Sqrt(sq))
	for i := range v {
		v[i] /= n
	}
}

// VectorIndex chunks, embeds and writes segments into a collection.
type VectorIndex struct {
	log          *logger.Logger
	store        VectorStore
	embedder     Embedder
	chunkSize    int
	chunkOverlap int
}

func NewVectorIndex(log *logger.Logger, store VectorStore, embedder Embedder) *VectorIndex {
	return &VectorIndex{
		log:          log.With("service", "VectorIndex"),
		store:        store,
		embedder:     embedder,
		chunkSize:    docextract.DefaultChunkSize,
		chunkOverlap: docextract.DefaultChunkOverlap,
	}
}

// AddSegments appends the segments to collection, creating it if needed. Point ids
// derive from pointKey plus the chunk position, so re-adding under the same key
// overwrites chunks at matching positions only. A shorter re-index leaves the old
// tail behind; callers clear the key's chunks first (see IngestionPipeline.Reingest).
func (vi *VectorIndex) AddSegments(ctx context.Context, collection, pointKey string, segs []library.Segment) (int, error) {
	type chunk struct {
		text    string
		payload map[string]any
	}
	var chunks []chunk
	for si, s := range segs {
		for ci, text := range docextract.SplitIntoChunks(s.Text, vi.chunkSize, vi.chunkOverlap) {
			payload := make(map[string]any, len(s.Metadata)+4)
			for k, v := range s.Metadata {
				payload[k] = v
			}
			payload["text"] = text
			payload["segment_index"] = si
			payload["chunk_index"] = ci
			if s.Page != nil {
				payload["page"] = *s.Page
			}
			chunks = append(chunks, chunk{text: text, payload: payload})
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.text
	}
	vectors, err := vi.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embed chunks: got %d vectors for %d inputs", len(vectors), len(chunks))
	}

	if err := vi.store.EnsureCollection(ctx, collection); err != nil {
		return 0, err
	}
	points := make([]qdrant.Point, len(chunks))
	for i, c := range chunks {
		points[i] = qdrant.Point{
			ID:      pointKey + ":" + strconv.Itoa(i),
			Values:  vectors[i],
			Payload: c.payload,
		}
	}
	if err := vi.store.Upsert(ctx, collection, points); err != nil {
		return 0, err
	}
	vi.log.Debug("indexed chunks", "collection", collection, "chunks", len(points))
	return len(points), nil
}

func (vi *VectorIndex) DeleteWhere(ctx context.Context, collection string, filter map[string]any) error {
	return vi.store.DeleteByFilter(ctx, collection, filter)
}

func (vi *VectorIndex) DropCollection(ctx context.Context, collection string) error {
	return vi.store.DeleteCollection(ctx, collection)
}
