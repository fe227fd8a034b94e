package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/yungbote/classroom-backend/internal/domain/library"
	"github.com/yungbote/classroom-backend/internal/pkg/httpx"
	"github.com/yungbote/classroom-backend/internal/platform/envutil"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

const docAIProvider = "gcp_documentai"

// ErrDocumentAIDisabled means the DOCUMENTAI_* variables are not configured.
var ErrDocumentAIDisabled = errors.New("document ai not configured")

type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
	MaxRetries       int
}

func ResolveDocumentAIConfigFromEnv(log *logger.Logger) (DocumentAIConfig, error) {
	cfg := DocumentAIConfig{
		ProjectID:        envutil.String("DOCUMENTAI_PROJECT_ID", "", log),
		Location:         envutil.String("DOCUMENTAI_LOCATION", "us", log),
		ProcessorID:      envutil.String("DOCUMENTAI_PROCESSOR_ID", "", log),
		ProcessorVersion: envutil.String("DOCUMENTAI_PROCESSOR_VERSION", "", log),
		Timeout:          envutil.Duration("DOCUMENTAI_TIMEOUT", 3*time.Minute, log),
		MaxRetries:       envutil.Int("DOCUMENTAI_MAX_RETRIES", 2, log),
	}
	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return cfg, ErrDocumentAIDisabled
	}
	return cfg, nil
}

func (c DocumentAIConfig) ProcessorName() string {
	return processorName(c.ProjectID, c.Location, c.ProcessorID, c.ProcessorVersion)
}

type processClient interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentAI runs OCR/layout extraction for PDFs and images.
type DocumentAI struct {
	log    *logger.Logger
	cfg    DocumentAIConfig
	client processClient
}

func NewDocumentAI(ctx context.Context, log *logger.Logger, cfg DocumentAIConfig) (*DocumentAI, error) {
	if cfg.ProcessorName() == "" {
		return nil, ErrDocumentAIDisabled
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptions(cloudPlatformScope)...)
	c, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	slog := log.With("service", "gcp.DocumentAI")
	slog.Info("Document AI initialized", "endpoint", endpoint, "processor", cfg.ProcessorName())
	return &DocumentAI{log: slog, cfg: cfg, client: c}, nil
}

func (d *DocumentAI) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

// Extract sends raw bytes to the processor and returns page, table and form segments.
func (d *DocumentAI) Extract(ctx context.Context, mimeType string, data []byte) ([]library.Segment, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	name := d.cfg.ProcessorName()
	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		},
		FieldMask: &fieldmaskpb.FieldMask{Paths: []string{"text", "pages.page_number", "pages.paragraphs", "pages.tables", "pages.form_fields"}},
	}

	var lastErr error
	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		resp, err := d.client.ProcessDocument(ctx, req)
		if err == nil {
			if resp == nil {
				return nil, nil
			}
			return BuildSegments(resp.Document), nil
		}
		lastErr = err
		if !isRetryableRPC(err) || attempt == d.cfg.MaxRetries {
			break
		}
		d.log.Warn("documentai retry", "attempt", attempt+1, "code", status.Code(err).String())
		if serr := httpx.Sleep(ctx, httpx.Backoff(attempt, 500*time.Millisecond, 8*time.Second)); serr != nil {
			return nil, serr
		}
	}
	return nil, fmt.Errorf("documentai ProcessDocument: %w", lastErr)
}

func isRetryableRPC(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		return true
	default:
		return false
	}
}

// BuildSegments flattens a processed document into text segments. Paragraphs are
// grouped per page; tables are rendered as markdown; form fields as "key: value".
func BuildSegments(doc *documentaipb.Document) []library.Segment {
	if doc == nil {
		return nil
	}
	var pages, tables, forms []library.Segment

	for _, p := range doc.Pages {
		if p == nil {
			continue
		}
		pageNum := int(p.PageNumber)

		var pageText strings.Builder
		for _, para := range p.Paragraphs {
			if para == nil || para.Layout == nil {
				continue
			}
			if t := strings.TrimSpace(textFromAnchor(doc.Text, para.Layout.TextAnchor)); t != "" {
				pageText.WriteString(t)
				pageText.WriteString("\n")
			}
		}
		if pt := strings.TrimSpace(pageText.String()); pt != "" {
			pn := pageNum
			pages = append(pages, library.Segment{
				Text:     pt,
				Page:     &pn,
				Metadata: map[string]any{"kind": "docai_page_text", "provider": docAIProvider},
			})
		}

		for ti, table := range p.Tables {
			md := strings.TrimSpace(tableToMarkdown(doc.Text, table))
			if md == "" {
				continue
			}
			pn := pageNum
			tables = append(tables, library.Segment{
				Text:     md,
				Page:     &pn,
				Metadata: map[string]any{"kind": "table_text", "provider": docAIProvider, "table_index": ti},
			})
		}

		for fi, ff := range p.FormFields {
			if ff == nil {
				continue
			}
			var k, v string
			if ff.FieldName != nil {
				k = strings.TrimSpace(textFromAnchor(doc.Text, ff.FieldName.TextAnchor))
			}
			if ff.FieldValue != nil {
				v = strings.TrimSpace(textFromAnchor(doc.Text, ff.FieldValue.TextAnchor))
			}
			if k == "" && v == "" {
				continue
			}
			pn := pageNum
			forms = append(forms, library.Segment{
				Text:     strings.TrimSpace(k + ": " + v),
				Page:     &pn,
				Metadata: map[string]any{"kind": "form_text", "provider": docAIProvider, "field_index": fi},
			})
		}
	}

	out := append(append(pages, tables...), forms...)
	// some processors fill doc.Text without page structure
	if len(out) == 0 {
		if primary := strings.TrimSpace(doc.Text); primary != "" {
			out = append(out, library.Segment{
				Text:     primary,
				Metadata: map[string]any{"kind": "docai_primary_text", "provider": docAIProvider},
			})
		}
	}
	return out
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || len(anchor.TextSegments) == 0 || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start, end := int(seg.StartIndex), int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}

func tableToMarkdown(full string, t *documentaipb.Document_Page_Table) string {
	if t == nil {
		return ""
	}
	var header []string
	if len(t.HeaderRows) > 0 {
		header = tableRowToCells(full, t.HeaderRows[0])
	}
	body := t.BodyRows
	if len(header) == 0 && len(body) > 0 {
		header = tableRowToCells(full, body[0])
		body = body[1:]
	}
	if len(header) == 0 {
		return ""
	}

	rows := [][]string{header}
	for _, r := range body {
		if r != nil {
			rows = append(rows, tableRowToCells(full, r))
		}
	}
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	for i := range rows {
		for len(rows[i]) < cols {
			rows[i] = append(rows[i], "")
		}
	}

	var out strings.Builder
	writeRow := func(cells []string) {
		out.WriteString("| ")
		out.WriteString(strings.Join(cells, " | "))
		out.WriteString(" |\n")
	}
	writeRow(escapePipes(rows[0]))
	sep := make([]string, cols)
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, r := range rows[1:] {
		writeRow(escapePipes(r))
	}
	return out.String()
}

func tableRowToCells(full string, r *documentaipb.Document_Page_Table_TableRow) []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Cells))
	for _, c := range r.Cells {
		if c == nil || c.Layout == nil {
			out = append(out, "")
			continue
		}
		out = append(out, strings.TrimSpace(textFromAnchor(full, c.Layout.TextAnchor)))
	}
	return out
}

func escapePipes(row []string) []string {
	out := make([]string, len(row))
	for i, s := range row {
		out[i] = strings.ReplaceAll(s, "|", "\\|")
	}
	return out
}

func processorName(project, location, processorID, version string) string {
	project = strings.TrimSpace(project)
	location = strings.TrimSpace(location)
	processorID = strings.TrimSpace(processorID)
	version = strings.TrimSpace(version)
	if project == "" || location == "" || processorID == "" {
		return ""
	}
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID)
	if version != "" {
		return base + "/processorVersions/" + version
	}
	return base
}
