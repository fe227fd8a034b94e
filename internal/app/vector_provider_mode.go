package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/classroom-backend/internal/platform/qdrant"
)

type VectorProvider string

const (
	VectorProviderQdrant VectorProvider = "qdrant"
	VectorProviderMemory VectorProvider = "memory"
)

type VectorProviderConfigErrorCode string

const (
	VectorProviderConfigErrorInvalidQdrantURL      VectorProviderConfigErrorCode = "invalid_qdrant_url"
	VectorProviderConfigErrorInvalidQdrantVector   VectorProviderConfigErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderConfigErrorInvalidQdrantDistance VectorProviderConfigErrorCode = "invalid_qdrant_distance"
	VectorProviderConfigErrorUnknownQdrantFailure  VectorProviderConfigErrorCode = "qdrant_config_error"
)

type VectorProviderConfigError struct {
	Code     VectorProviderConfigErrorCode
	Provider VectorProvider
	Cause    error
}

func (e *VectorProviderConfigError) Error() string {
	if e == nil {
		return "invalid vector provider config"
	}
	return fmt.Sprintf("invalid vector provider config (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

type VectorProviderConfig struct {
	Provider   VectorProvider
	ModeSource string
	VectorDim  int
	Qdrant     qdrant.Config
}

// resolveVectorProviderConfig selects qdrant when QDRANT_URL is set and the
// in-process store otherwise. Both use the same vector dimension.
func resolveVectorProviderConfig(cfg Config) (VectorProviderConfig, error) {
	dim := cfg.QdrantVectorDim
	if dim == 0 {
		dim = qdrant.DefaultVectorDim
	}
	if strings.TrimSpace(cfg.QdrantURL) == "" {
		if dim < 0 {
			return VectorProviderConfig{}, mapVectorProviderConfigError(&qdrant.ConfigError{
				Code:  qdrant.ConfigErrorInvalidVectorDim,
				Value: fmt.Sprint(dim),
			})
		}
		return VectorProviderConfig{
			Provider:   VectorProviderMemory,
			ModeSource: "qdrant_url_unset",
			VectorDim:  dim,
		}, nil
	}

	qcfg := qdrant.Config{
		URL:       strings.TrimSpace(cfg.QdrantURL),
		APIKey:    strings.TrimSpace(cfg.QdrantAPIKey),
		VectorDim: dim,
		Distance:  cfg.QdrantDistance,
	}
	if err := qdrant.ValidateConfig(qcfg); err != nil {
		return VectorProviderConfig{}, mapVectorProviderConfigError(err)
	}
	return VectorProviderConfig{
		Provider:   VectorProviderQdrant,
		ModeSource: "qdrant_url",
		VectorDim:  dim,
		Qdrant:     qcfg,
	}, nil
}

func mapVectorProviderConfigError(err error) error {
	code := VectorProviderConfigErrorUnknownQdrantFailure
	var qerr *qdrant.ConfigError
	if errors.As(err, &qerr) {
		switch qerr.Code {
		case qdrant.ConfigErrorInvalidURL, qdrant.ConfigErrorMissingURL:
			code = VectorProviderConfigErrorInvalidQdrantURL
		case qdrant.ConfigErrorInvalidVectorDim:
			code = VectorProviderConfigErrorInvalidQdrantVector
		case qdrant.ConfigErrorInvalidDistance:
			code = VectorProviderConfigErrorInvalidQdrantDistance
		}
	}
	return &VectorProviderConfigError{
		Code:     code,
		Provider: VectorProviderQdrant,
		Cause:    err,
	}
}
