package docextract

import (
	"context"
	"fmt"

	"github.com/yungbote/classroom-backend/internal/domain/library"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

// OCR is a layout-aware extractor for scanned PDFs and images (Document AI in production).
type OCR interface {
	Extract(ctx context.Context, mimeType string, data []byte) ([]library.Segment, error)
}

type Source struct {
	Name     string
	MimeType string
	Data     []byte
}

// Extractor turns document bytes into tagged segments.
type Extractor struct {
	log *logger.Logger
	ocr OCR
}

// New returns an Extractor; ocr may be nil.
func New(log *logger.Logger, ocr OCR) *Extractor {
	return &Extractor{log: log.With("service", "docextract.Extractor"), ocr: ocr}
}

// weakTextThreshold: below this many OCR characters the native extractor is tried as well.
const weakTextThreshold = 500

func (e *Extractor) Extract(ctx context.Context, src Source) ([]library.Segment, error) {
	if len(src.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, src.Name)
	}
	kind := Sniff(src.Name, src.MimeType, src.Data)

	var segs []library.Segment
	if kind == KindPDF && e.ocr != nil {
		ocrSegs, err := e.ocr.Extract(ctx, "application/pdf", src.Data)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.log.Warn("ocr extraction failed, falling back to native", "name", src.Name, "error", err)
		}
		segs = Normalize(ocrSegs)
		if textLen(segs) >= weakTextThreshold {
			return segs, nil
		}
	}

	text, err := ExtractText(src.Name, src.MimeType, src.Data)
	if err != nil {
		if len(segs) > 0 {
			e.log.Debug("native extraction failed, keeping ocr text", "name", src.Name, "error", err)
			return segs, nil
		}
		return nil, err
	}
	native := library.Segment{Text: text, Metadata: map[string]any{"kind": "native_text", "format": string(kind)}}
	return Normalize(append(segs, native)), nil
}

func textLen(segs []library.Segment) int {
	n := 0
	for _, s := range segs {
		n += len(s.Text)
	}
	return n
}
