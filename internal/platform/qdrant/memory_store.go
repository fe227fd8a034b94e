package qdrant

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore keeps collections in process. It backs local runs without a
// qdrant server and mirrors Store's collection semantics.
type MemoryStore struct {
	dim int

	mu          sync.RWMutex
	collections map[string]map[string]Point
}

func NewMemoryStore(dim int) *MemoryStore {
	if dim <= 0 {
		dim = DefaultVectorDim
	}
	return &MemoryStore{dim: dim, collections: map[string]map[string]Point{}}
}

func (m *MemoryStore) CollectionExists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

func (m *MemoryStore) EnsureCollection(_ context.Context, name string) error {
	if name == "" {
		return opErr("ensure_collection", name, OperationErrorValidation, "collection name is required", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = map[string]Point{}
	}
	return nil
}

func (m *MemoryStore) Upsert(_ context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		return &OperationError{Code: OperationErrorRequestFailed, Operation: "upsert", Collection: collection, StatusCode: 404, Message: "collection not found"}
	}
	for _, p := range points {
		if p.ID == "" {
			return opErr("upsert", collection, OperationErrorValidation, "point id is required", nil)
		}
		if len(p.Values) != m.dim {
			return opErr("upsert", collection, OperationErrorValidation,
				fmt.Sprintf("point %q dimension mismatch: expected=%d got=%d", p.ID, m.dim, len(p.Values)), nil)
		}
		payload := clonePayload(p.Payload)
		payload[PayloadPointKey] = p.ID
		coll[p.ID] = Point{ID: p.ID, Values: append([]float32(nil), p.Values...), Payload: payload}
	}
	return nil
}

func (m *MemoryStore) Search(_ context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, ok := m.collections[collection]
	if !ok {
		return nil, &OperationError{Code: OperationErrorRequestFailed, Operation: "search", Collection: collection, StatusCode: 404, Message: "collection not found"}
	}
	out := make([]Match, 0, len(coll))
	for _, p := range coll {
		if !matches(p.Payload, filter) {
			continue
		}
		out = append(out, Match{ID: p.ID, Score: cosine(vector, p.Values), Payload: clonePayload(p.Payload)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (m *MemoryStore) DeleteByFilter(_ context.Context, collection string, filter map[string]any) error {
	if len(filter) == 0 {
		return opErr("delete_by_filter", collection, OperationErrorValidation, "refusing to delete with an empty filter", nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.collections[collection] {
		if matches(p.Payload, filter) {
			delete(m.collections[collection], id)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	return nil
}

// Count returns the number of points in collection.
func (m *MemoryStore) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
