package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/domain/library"
	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/classroom-backend/internal/platform/docextract"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

// DefaultIngestionTimeout bounds one ingestion run end to end.
const DefaultIngestionTimeout = 2 * time.Minute

var errInvalidFileID = errors.New("invalid file id")

// BlobReader resolves a file's Path in object storage.
type BlobReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ContentExtractor turns document bytes into segments.
type ContentExtractor interface {
	Extract(ctx context.Context, src docextract.Source) ([]library.Segment, error)
}

// IngestionPipeline indexes a doc material's backing file into the course
// collection and records the outcome on the material.
type IngestionPipeline struct {
	log       *logger.Logger
	files     repos.FileRepo
	materials repos.MaterialRepo
	blobs     BlobReader
	extractor ContentExtractor
	vectors   *VectorIndex
	timeout   time.Duration
	now       func() time.Time
}

func NewIngestionPipeline(
	baseLog *logger.Logger,
	files repos.FileRepo,
	materials repos.MaterialRepo,
	blobs BlobReader,
	extractor ContentExtractor,
	vectors *VectorIndex,
	timeout time.Duration,
) *IngestionPipeline {
	if timeout <= 0 {
		timeout = DefaultIngestionTimeout
	}
	return &IngestionPipeline{
		log:       baseLog.With("service", "IngestionPipeline"),
		files:     files,
		materials: materials,
		blobs:     blobs,
		extractor: extractor,
		vectors:   vectors,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Ingest runs the pipeline for m, which must already be persisted with a
// queued record. It always leaves m's record at done or error; failures come
// back as a ValidationError carrying the cause.
func (ip *IngestionPipeline) Ingest(ctx context.Context, m *types.Material) error {
	start := ip.now()
	runCtx, cancel := context.WithTimeout(ctx, ip.timeout)
	defer cancel()
	runCtx, span := observability.StartSpan(runCtx, "ingestion.run",
		attribute.String("course_id", m.CourseID.String()),
		attribute.String("material_id", m.ID.String()),
	)
	defer span.End()

	rec, _ := m.IngestionRecord()
	startedAt := rec.StartedAt
	if startedAt == 0 {
		startedAt = start.Unix()
	}

	collection, runErr := ip.run(runCtx, m)

	final := classroom.Ingestion{StartedAt: startedAt, CompletedAt: ip.now().Unix()}
	if runErr != nil {
		final.Status = types.IngestionError
		final.Error = runErr.Error()
	} else {
		final.Status = types.IngestionDone
		final.Collection = collection
	}

	// The status write must land even when the run timed out.
	if err := ip.record(context.WithoutCancel(ctx), m, final); err != nil {
		ip.log.Error("recording ingestion status failed", "material_id", m.ID, "status", final.Status, "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	observability.Current().ObserveIngestion(string(final.Status), time.Since(start))
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		ip.log.Warn("ingestion failed", append(ctxutil.LogFields(ctx), "course_id", m.CourseID, "material_id", m.ID, "error", runErr)...)
		return &ValidationError{Reason: runErr.Error(), Err: runErr}
	}
	ip.log.Info("ingestion done", append(ctxutil.LogFields(ctx), "course_id", m.CourseID, "material_id", m.ID, "collection", collection)...)
	return nil
}

// NeedsReingest reports whether a recovery run should pick m up: doc
// materials whose last attempt failed, never finished (still queued), or left
// no record at all. all selects every doc material.
func NeedsReingest(m *types.Material, all bool) bool {
	if m == nil || !m.NeedsIngestion() {
		return false
	}
	if all {
		return true
	}
	rec, ok := m.IngestionRecord()
	if !ok {
		return true
	}
	return rec.Status == types.IngestionError || rec.Status == types.IngestionQueued
}

// Reingest starts a new attempt for m. Chunks written by earlier attempts are
// removed from the course collection first, then the record is reset to
// queued with a fresh started_at before Ingest runs.
func (ip *IngestionPipeline) Reingest(ctx context.Context, m *types.Material) error {
	if m == nil || !m.NeedsIngestion() {
		return invalid("material has no document to ingest")
	}
	if ip.vectors != nil {
		filter := map[string]any{"material_id": m.ID.String()}
		if err := ip.vectors.DeleteWhere(ctx, CollectionName(m.CourseID), filter); err != nil {
			return external("vector store", fmt.Errorf("clear previous chunks: %w", err))
		}
	}
	queued := classroom.Ingestion{Status: types.IngestionQueued, StartedAt: ip.now().Unix()}
	if err := ip.record(ctx, m, queued); err != nil {
		return fmt.Errorf("reset ingestion record: %w", err)
	}
	return ip.Ingest(ctx, m)
}

func (ip *IngestionPipeline) record(ctx context.Context, m *types.Material, rec classroom.Ingestion) error {
	meta := classroom.MergeBag(m.Meta, map[string]any{classroom.MetaIngestion: rec.AsMap()})
	if err := ip.materials.UpdateMeta(ctx, nil, m.ID, meta); err != nil {
		return err
	}
	m.Meta = meta
	return nil
}

func (ip *IngestionPipeline) run(ctx context.Context, m *types.Material) (string, error) {
	file, err := ip.resolveFile(ctx, m.URIOrBlobID)
	if err != nil {
		return "", err
	}

	segs, err := ip.segments(ctx, file)
	if err != nil {
		return "", err
	}
	segs = docextract.Normalize(segs)
	if len(segs) == 0 {
		return "", fmt.Errorf("no text could be extracted from %s", file.Filename)
	}

	text := docextract.JoinText(segs)
	hash := docextract.ContentHash(text)
	data := classroom.MergeBag(file.Data, map[string]any{"content": text})
	if err := ip.files.UpdateContent(ctx, nil, file.ID, hash, data); err != nil {
		return "", fmt.Errorf("save extracted content: %w", err)
	}

	segs = docextract.Stamp(segs, map[string]any{
		"name":        file.Filename,
		"source":      file.Filename,
		"created_by":  file.UserID.String(),
		"file_id":     file.ID.String(),
		"hash":        hash,
		"course_id":   m.CourseID.String(),
		"material_id": m.ID.String(),
	})

	collection := CollectionName(m.CourseID)
	_, span := observability.StartSpan(ctx, "ingestion.index", attribute.String("collection", collection))
	n, err := ip.vectors.AddSegments(ctx, collection, m.ID.String(), segs)
	span.End()
	if err != nil {
		return "", external("vector store", err)
	}
	ip.log.Debug("segments indexed", "material_id", m.ID, "segments", len(segs), "chunks", n)
	return collection, nil
}

func (ip *IngestionPipeline) resolveFile(ctx context.Context, ref string) (*types.File, error) {
	id, err := uuid.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, errInvalidFileID
	}
	file, err := ip.files.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, errInvalidFileID
	}
	return file, nil
}

// segments extracts from the stored blob, or falls back to the cached text
// for files without one.
func (ip *IngestionPipeline) segments(ctx context.Context, file *types.File) ([]library.Segment, error) {
	meta := classroom.DecodeBag(file.Meta)
	if !file.HasBlob() {
		text, _ := classroom.DecodeBag(file.Data)["content"].(string)
		return []library.Segment{{Text: text, Metadata: meta}}, nil
	}

	ctx, span := observability.StartSpan(ctx, "ingestion.extract", attribute.String("file_id", file.ID.String()))
	defer span.End()

	rc, err := ip.blobs.Open(ctx, file.Path)
	if err != nil {
		return nil, external("object storage", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, external("object storage", err)
	}

	contentType, _ := meta["content_type"].(string)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	segs, err := ip.extractor.Extract(ctx, docextract.Source{Name: file.Filename, MimeType: contentType, Data: raw})
	if err != nil {
		return nil, external("content extraction", err)
	}
	return docextract.Tag(segs, meta), nil
}

// =====================================
// Materials
// =====================================

type CreateMaterialInput struct {
	Kind        string
	Title       string
	URIOrBlobID string
	Meta        map[string]any
}

type MaterialService interface {
	List(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Material, error)
	Create(dbc dbctx.Context, courseID uuid.UUID, in CreateMaterialInput) (*types.Material, error)
	Delete(dbc dbctx.Context, courseID, materialID uuid.UUID) error
}

type materialService struct {
	db        *gorm.DB
	log       *logger.Logger
	materials repos.MaterialRepo
	pipeline  *IngestionPipeline
	vectors   *VectorIndex
	now       func() time.Time
}

func NewMaterialService(
	db *gorm.DB,
	baseLog *logger.Logger,
	materials repos.MaterialRepo,
	pipeline *IngestionPipeline,
	vectors *VectorIndex,
) MaterialService {
	return &materialService{
		db:        db,
		log:       baseLog.With("service", "MaterialService"),
		materials: materials,
		pipeline:  pipeline,
		vectors:   vectors,
		now:       time.Now,
	}
}

func (ms *materialService) List(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Material, error) {
	return ms.materials.ListByCourse(dbc.Ctx, dbc.Tx, courseID)
}

// Create stores the material and, for a doc backed by a file, ingests it
// before returning. A failed ingestion leaves the row in place with an error
// record and returns the row alongside a ValidationError.
func (ms *materialService) Create(dbc dbctx.Context, courseID uuid.UUID, in CreateMaterialInput) (*types.Material, error) {
	kind, ok := classroom.ParseMaterialKind(in.Kind)
	if !ok {
		return nil, invalid("invalid kind %q: must be one of doc, link, video", in.Kind)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	ref := strings.TrimSpace(in.URIOrBlobID)
	if kind != types.MaterialKindDoc {
		if kind == types.MaterialKindLink && ref == "" {
			return nil, invalid("link materials need a url")
		}
		if ref != "" {
			if err := validateExternalURL(ref); err != nil {
				return nil, err
			}
		}
	}

	m := &types.Material{
		CourseID:    courseID,
		Kind:        kind,
		Title:       title,
		URIOrBlobID: ref,
	}
	meta := copyBag(in.Meta)
	if m.NeedsIngestion() {
		if meta == nil {
			meta = map[string]any{}
		}
		meta[classroom.MetaIngestion] = classroom.Ingestion{
			Status:    types.IngestionQueued,
			StartedAt: ms.now().Unix(),
		}.AsMap()
	}
	m.Meta = classroom.EncodeBag(meta)

	if _, err := ms.materials.Create(dbc.Ctx, dbc.Tx, m); err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}
	ms.log.Info("material created", "course_id", courseID, "material_id", m.ID, "kind", kind)

	if !m.NeedsIngestion() {
		return m, nil
	}
	if err := ms.pipeline.Ingest(dbc.Ctx, m); err != nil {
		return m, err
	}
	return m, nil
}

// Delete removes the row, then best-effort removes its chunks from the course collection.
func (ms *materialService) Delete(dbc dbctx.Context, courseID, materialID uuid.UUID) error {
	m, err := ms.materials.GetByID(dbc.Ctx, dbc.Tx, materialID)
	if err != nil {
		return err
	}
	if m == nil || m.CourseID != courseID {
		return notFound("material")
	}
	if err := ms.materials.Delete(dbc.Ctx, dbc.Tx, materialID); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if ms.vectors == nil {
		return nil
	}
	// A failed run may still have written some chunks.
	if !m.NeedsIngestion() {
		return nil
	}
	filter := map[string]any{"material_id": materialID.String()}
	if err := ms.vectors.DeleteWhere(dbc.Ctx, CollectionName(courseID), filter); err != nil {
		observability.Current().IncTeardownFailure("material_vectors")
		ms.log.Warn("material vector cleanup failed", "material_id", materialID, "error", err)
	}
	return nil
}

func validateExternalURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("malformed url %q", raw)
	}
	return nil
}
