package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/platform/openai"
	"github.com/yungbote/classroom-backend/internal/platform/qdrant"
	"github.com/yungbote/classroom-backend/internal/services"
)

func fakeQdrant(t *testing.T, readyStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/readyz" {
			w.WriteHeader(readyStatus)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveVectorStoreMemory(t *testing.T) {
	store, dim, err := resolveVectorStore(context.Background(), logger.NewNop(), Config{QdrantVectorDim: 16})
	if err != nil {
		t.Fatalf("resolveVectorStore: %v", err)
	}
	if dim != 16 {
		t.Fatalf("dim: want=16 got=%d", dim)
	}
	if _, ok := store.(*instrumentedVectorStore); !ok {
		t.Fatalf("expected instrumented store, got=%T", store)
	}
	if err := store.EnsureCollection(context.Background(), "course_x"); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
}

func TestResolveVectorStoreQdrantReady(t *testing.T) {
	srv := fakeQdrant(t, http.StatusOK)
	store, dim, err := resolveVectorStore(context.Background(), logger.NewNop(), Config{
		QdrantURL:       srv.URL,
		QdrantVectorDim: 32,
	})
	if err != nil {
		t.Fatalf("resolveVectorStore: %v", err)
	}
	if dim != 32 {
		t.Fatalf("dim: want=32 got=%d", dim)
	}
	inst, ok := store.(*instrumentedVectorStore)
	if !ok {
		t.Fatalf("expected instrumented store, got=%T", store)
	}
	if inst.provider != string(VectorProviderQdrant) {
		t.Fatalf("provider label: got=%q", inst.provider)
	}
}

func TestResolveVectorStoreQdrantNotReady(t *testing.T) {
	srv := fakeQdrant(t, http.StatusServiceUnavailable)
	_, _, err := resolveVectorStore(context.Background(), logger.NewNop(), Config{
		QdrantURL:       srv.URL,
		QdrantVectorDim: 32,
	})
	if code := vectorProviderBootstrapErrorCode(err); err == nil || code != VectorProviderBootstrapErrorConnectFailed {
		t.Fatalf("want connect_failed, got code=%q err=%v", code, err)
	}
}

func TestResolveVectorStoreQdrantUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, _, err := resolveVectorStore(context.Background(), logger.NewNop(), Config{
		QdrantURL:       url,
		QdrantVectorDim: 32,
	})
	if code := vectorProviderBootstrapErrorCode(err); err == nil || code != VectorProviderBootstrapErrorConnectFailed {
		t.Fatalf("want connect_failed, got code=%q err=%v", code, err)
	}
}

func TestResolveVectorStoreInvalidConfig(t *testing.T) {
	_, _, err := resolveVectorStore(context.Background(), logger.NewNop(), Config{
		QdrantURL:       "not a url",
		QdrantVectorDim: 32,
	})
	if code := vectorProviderBootstrapErrorCode(err); err == nil || code != VectorProviderBootstrapErrorInvalidConfig {
		t.Fatalf("want invalid_config, got code=%q err=%v", code, err)
	}
}

func TestResolveVectorStoreFactoryError(t *testing.T) {
	orig := newQdrantStore
	t.Cleanup(func() { newQdrantStore = orig })
	newQdrantStore = func(*logger.Logger, qdrant.Config) (readyVectorStore, error) {
		return nil, errors.New("boom")
	}

	_, _, err := resolveVectorStore(context.Background(), logger.NewNop(), Config{
		QdrantURL:       "http://qdrant:6333",
		QdrantVectorDim: 8,
	})
	if code := vectorProviderBootstrapErrorCode(err); code != VectorProviderBootstrapErrorProviderInitFailed {
		t.Fatalf("want provider_init_failed, got code=%q err=%v", code, err)
	}
}

func TestResolveEmbedderFallsBackToHash(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	emb, err := resolveEmbedder(logger.NewNop(), 24)
	if err != nil {
		t.Fatalf("resolveEmbedder: %v", err)
	}
	h, ok := emb.(services.HashEmbedder)
	if !ok || h.Dim != 24 {
		t.Fatalf("expected HashEmbedder{Dim:24}, got=%#v", emb)
	}
}

func TestResolveEmbedderPinsOpenAIDimensions(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_EMBED_DIMENSIONS", "")

	orig := newOpenAIEmbedder
	t.Cleanup(func() { newOpenAIEmbedder = orig })
	var captured openai.Config
	newOpenAIEmbedder = func(_ *logger.Logger, cfg openai.Config) (services.Embedder, error) {
		captured = cfg
		return services.HashEmbedder{Dim: cfg.Dimensions}, nil
	}

	if _, err := resolveEmbedder(logger.NewNop(), 512); err != nil {
		t.Fatalf("resolveEmbedder: %v", err)
	}
	if captured.Dimensions != 512 || captured.APIKey != "sk-test" {
		t.Fatalf("unexpected openai config: %+v", captured)
	}
}

func TestResolveEmbedderRejectsDimensionMismatch(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_EMBED_DIMENSIONS", "256")
	if _, err := resolveEmbedder(logger.NewNop(), 512); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestClassifyVectorProviderBootstrapErrorKeepsCause(t *testing.T) {
	src := &qdrant.ConfigError{Code: qdrant.ConfigErrorInvalidURL, Value: "x"}
	err := classifyVectorProviderBootstrapError("qdrant", src)
	var got *VectorProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected VectorProviderBootstrapError, got=%T", err)
	}
	if got.Code != VectorProviderBootstrapErrorInvalidConfig || got.Provider != "qdrant" {
		t.Fatalf("unexpected classification: %+v", got)
	}
	if !errors.Is(err, src) {
		t.Fatalf("cause not preserved")
	}
}
