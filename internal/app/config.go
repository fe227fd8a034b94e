package app

import (
	"strings"
	"time"

	"github.com/yungbote/classroom-backend/internal/platform/envutil"
	"github.com/yungbote/classroom-backend/internal/platform/gcp"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/platform/qdrant"
	"github.com/yungbote/classroom-backend/internal/services"
)

type Config struct {
	Port         string
	ServiceName  string
	Environment  string
	Version      string
	JWTSecretKey string

	// ClassroomOverride is CLASSROOM_MODE when set; it beats the persisted flag.
	ClassroomOverride *bool

	ObjectStorageMode         string
	StorageModeCompatFallback bool
	GCSBucket                 string
	StorageEmulatorHost       string
	LocalStorageDir           string

	QdrantURL       string
	QdrantAPIKey    string
	QdrantVectorDim int
	QdrantDistance  string

	OpenAIAPIKey string

	RedisAddr        string
	IngestionTimeout time.Duration

	MetricsAddr string
	CORSOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:         envutil.String("PORT", "8080", log),
		ServiceName:  envutil.String("OTEL_SERVICE_NAME", "classroom-backend", log),
		Environment:  envutil.String("APP_ENV", "development", log),
		Version:      envutil.String("APP_VERSION", "", log),
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", "", log),

		GCSBucket:           envutil.String("GCS_BUCKET", "", log),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", "", log),
		LocalStorageDir:     envutil.String("LOCAL_STORAGE_DIR", "./data/blobs", log),

		QdrantURL:       envutil.String("QDRANT_URL", "", log),
		QdrantAPIKey:    envutil.String("QDRANT_API_KEY", "", log),
		QdrantVectorDim: envutil.Int("QDRANT_VECTOR_DIM", qdrant.DefaultVectorDim, log),
		QdrantDistance:  envutil.String("QDRANT_DISTANCE", qdrant.DefaultDistance, log),

		OpenAIAPIKey: envutil.String("OPENAI_API_KEY", "", log),

		RedisAddr:        envutil.String("REDIS_ADDR", "", log),
		IngestionTimeout: envutil.Duration("INGESTION_TIMEOUT", services.DefaultIngestionTimeout, log),

		MetricsAddr: envutil.String("METRICS_ADDR", ":9090", log),
		CORSOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}

	if v, ok := envutil.Bool("CLASSROOM_MODE"); ok {
		cfg.ClassroomOverride = &v
	}

	// Mode precedence: explicit OBJECT_STORAGE_MODE, then emulator host, then bucket, then local disk.
	mode := strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", "", log))
	switch {
	case mode != "":
		cfg.ObjectStorageMode = mode
	case cfg.StorageEmulatorHost != "":
		cfg.ObjectStorageMode = string(gcp.ObjectStorageModeGCSEmulator)
		cfg.StorageModeCompatFallback = true
	case cfg.GCSBucket != "":
		cfg.ObjectStorageMode = string(gcp.ObjectStorageModeGCS)
	default:
		cfg.ObjectStorageMode = string(gcp.ObjectStorageModeLocal)
	}

	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY is empty; every bearer token will be rejected")
	}
	return cfg
}
