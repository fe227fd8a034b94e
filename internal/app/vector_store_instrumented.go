package app

import (
	"context"
	"time"

	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/platform/qdrant"
	"github.com/yungbote/classroom-backend/internal/services"
)

type instrumentedVectorStore struct {
	provider string
	inner    services.VectorStore
	metrics  *observability.Metrics
}

func instrumentVectorStore(provider string, inner services.VectorStore, metrics *observability.Metrics) services.VectorStore {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorStore{
		provider: provider,
		inner:    inner,
		metrics:  metrics,
	}
}

func (s *instrumentedVectorStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	ok, err := s.inner.CollectionExists(ctx, name)
	s.observe("collection_exists", err, time.Since(start))
	return ok, err
}

func (s *instrumentedVectorStore) EnsureCollection(ctx context.Context, name string) error {
	start := time.Now()
	err := s.inner.EnsureCollection(ctx, name)
	s.observe("ensure_collection", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, collection string, points []qdrant.Point) error {
	start := time.Now()
	err := s.inner.Upsert(ctx, collection, points)
	s.observe("upsert", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) Search(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]qdrant.Match, error) {
	start := time.Now()
	out, err := s.inner.Search(ctx, collection, vector, topK, filter)
	s.observe("search", err, time.Since(start))
	return out, err
}

func (s *instrumentedVectorStore) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	start := time.Now()
	err := s.inner.DeleteByFilter(ctx, collection, filter)
	s.observe("delete_by_filter", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) DeleteCollection(ctx context.Context, name string) error {
	start := time.Now()
	err := s.inner.DeleteCollection(ctx, name)
	s.observe("delete_collection", err, time.Since(start))
	return err
}

func (s *instrumentedVectorStore) observe(operation string, err error, dur time.Duration) {
	if s == nil || s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.ObserveVectorStoreOperation(s.provider, operation, status, dur)
}
