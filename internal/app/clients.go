package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/classroom-backend/internal/platform/docextract"
	"github.com/yungbote/classroom-backend/internal/platform/gcp"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/platform/redislock"
	"github.com/yungbote/classroom-backend/internal/services"
)

type Clients struct {
	Blobs     gcp.BlobStore
	Document  *gcp.DocumentAI
	Extractor *docextract.Extractor
	Vectors   services.VectorStore
	Embedder  services.Embedder
	Locker    redislock.Locker

	redis *redislock.Redis
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Object storage
	blobs, err := resolveBlobStore(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}
	out.Blobs = blobs

	// Document AI (optional OCR)
	var ocr docextract.OCR
	docCfg, err := gcp.ResolveDocumentAIConfigFromEnv(log)
	switch {
	case errors.Is(err, gcp.ErrDocumentAIDisabled):
		log.Info("Document AI not configured; using native extractors only")
	case err != nil:
		out.Close(log)
		return Clients{}, fmt.Errorf("document ai config: %w", err)
	default:
		doc, err := gcp.NewDocumentAI(ctx, log, docCfg)
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init document ai: %w", err)
		}
		out.Document = doc
		ocr = doc
	}
	out.Extractor = docextract.New(log, ocr)

	// Vectors
	vectors, dim, err := resolveVectorStore(ctx, log, cfg)
	if err != nil {
		out.Close(log)
		return Clients{}, err
	}
	out.Vectors = vectors
	embedder, err := resolveEmbedder(log, dim)
	if err != nil {
		out.Close(log)
		return Clients{}, fmt.Errorf("init embedder: %w", err)
	}
	out.Embedder = embedder

	// Redis (optional preset lock)
	out.Locker = redislock.Noop{}
	if cfg.RedisAddr != "" {
		lockCfg := redislock.ConfigFromEnv(log)
		lockCfg.Addr = cfg.RedisAddr
		rl, err := redislock.New(ctx, log, lockCfg)
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init redis lock: %w", err)
		}
		out.redis = rl
		out.Locker = rl
	} else {
		log.Info("REDIS_ADDR not set; preset upserts rely on the database transaction only")
	}

	return out, nil
}

func (c Clients) Close(log *logger.Logger) {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warn("close redis lock failed", "error", err)
		}
	}
	if c.Document != nil {
		if err := c.Document.Close(); err != nil {
			log.Warn("close document ai failed", "error", err)
		}
	}
	if c.Blobs != nil {
		if err := c.Blobs.Close(); err != nil {
			log.Warn("close blob store failed", "error", err)
		}
	}
}
