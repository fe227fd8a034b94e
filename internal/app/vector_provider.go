package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/platform/openai"
	"github.com/yungbote/classroom-backend/internal/platform/qdrant"
	"github.com/yungbote/classroom-backend/internal/services"
)

// readyVectorStore is a remote store that can be probed before first use.
type readyVectorStore interface {
	services.VectorStore
	Ready(ctx context.Context) error
}

var (
	newQdrantStore = func(log *logger.Logger, cfg qdrant.Config) (readyVectorStore, error) {
		return qdrant.NewStore(log, cfg)
	}
	newOpenAIEmbedder = func(log *logger.Logger, cfg openai.Config) (services.Embedder, error) {
		return openai.NewEmbedder(log, cfg)
	}
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidConfig      VectorProviderBootstrapErrorCode = "invalid_config"
	VectorProviderBootstrapErrorConnectFailed      VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStore returns the instrumented store and the vector dimension
// embeddings must produce for it.
func resolveVectorStore(ctx context.Context, log *logger.Logger, cfg Config) (services.VectorStore, int, error) {
	metrics := observability.Current()

	pcfg, err := resolveVectorProviderConfig(cfg)
	if err != nil {
		classified := classifyVectorProviderBootstrapError(string(VectorProviderQdrant), err)
		code := vectorProviderBootstrapErrorCode(classified)
		metrics.ObserveProviderBootstrap("vector_store", string(VectorProviderQdrant), "error", string(code))
		log.Error("Vector store provider selection failed", "error_code", code, "error", classified)
		return nil, 0, classified
	}
	provider := string(pcfg.Provider)

	log.Info(
		"Selecting vector store provider",
		"provider", provider,
		"provider_mode_source", pcfg.ModeSource,
		"qdrant_url", pcfg.Qdrant.URL,
		"vector_dim", pcfg.VectorDim,
	)

	switch pcfg.Provider {
	case VectorProviderMemory:
		metrics.ObserveProviderBootstrap("vector_store", provider, "success", "none")
		return instrumentVectorStore(provider, qdrant.NewMemoryStore(pcfg.VectorDim), metrics), pcfg.VectorDim, nil

	default:
		store, err := newQdrantStore(log, pcfg.Qdrant)
		if err == nil {
			err = store.Ready(ctx)
		}
		if err != nil {
			classified := classifyVectorProviderBootstrapError(provider, err)
			code := vectorProviderBootstrapErrorCode(classified)
			metrics.ObserveProviderBootstrap("vector_store", provider, "error", string(code))
			log.Error(
				"Vector store provider bootstrap failed",
				"provider", provider,
				"provider_mode_source", pcfg.ModeSource,
				"error_code", code,
				"error", classified,
			)
			return nil, 0, classified
		}
		metrics.ObserveProviderBootstrap("vector_store", provider, "success", "none")
		return instrumentVectorStore(provider, store, metrics), pcfg.VectorDim, nil
	}
}

// resolveEmbedder uses OpenAI when OPENAI_API_KEY is set and the deterministic
// hash embedder otherwise. dim pins the output size to the vector store.
func resolveEmbedder(log *logger.Logger, dim int) (services.Embedder, error) {
	ocfg, err := openai.ResolveConfigFromEnv()
	if err != nil {
		log.Warn("OPENAI_API_KEY not set; using hash embeddings", "dim", dim)
		return services.HashEmbedder{Dim: dim}, nil
	}
	if ocfg.Dimensions == 0 {
		ocfg.Dimensions = dim
	}
	if ocfg.Dimensions != dim {
		return nil, fmt.Errorf("OPENAI_EMBED_DIMENSIONS=%d does not match vector dim %d", ocfg.Dimensions, dim)
	}
	return newOpenAIEmbedder(log, ocfg)
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	code := VectorProviderBootstrapErrorProviderInitFailed

	var (
		cfgErr  *VectorProviderConfigError
		qcfgErr *qdrant.ConfigError
		urlErr  *neturl.Error
		netErr  net.Error
		opErr   *qdrant.OperationError
	)
	errLower := strings.ToLower(err.Error())
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &qcfgErr):
		code = VectorProviderBootstrapErrorInvalidConfig
	case errors.As(err, &urlErr), errors.As(err, &netErr), errors.As(err, &opErr):
		code = VectorProviderBootstrapErrorConnectFailed
	case strings.Contains(errLower, "ready check failed"), strings.Contains(errLower, "connection refused"):
		code = VectorProviderBootstrapErrorConnectFailed
	}
	return &VectorProviderBootstrapError{
		Code:     code,
		Provider: provider,
		Cause:    err,
	}
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorConnectFailed
}
