package gcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

func anchor(start, end int64) *documentaipb.Document_TextAnchor {
	return &documentaipb.Document_TextAnchor{
		TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
	}
}

func layout(start, end int64) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{TextAnchor: anchor(start, end)}
}

func sampleDocument() *documentaipb.Document {
	text := "Intro paragraph\nName|Score\nAda\n10\nTerm Fall"
	return &documentaipb.Document{
		Text: text,
		Pages: []*documentaipb.Document_Page{{
			PageNumber: 1,
			Paragraphs: []*documentaipb.Document_Page_Paragraph{{Layout: layout(0, 15)}},
			Tables: []*documentaipb.Document_Page_Table{{
				HeaderRows: []*documentaipb.Document_Page_Table_TableRow{{
					Cells: []*documentaipb.Document_Page_Table_TableCell{{Layout: layout(16, 26)}},
				}},
				BodyRows: []*documentaipb.Document_Page_Table_TableRow{{
					Cells: []*documentaipb.Document_Page_Table_TableCell{{Layout: layout(27, 30)}, {Layout: layout(31, 33)}},
				}},
			}},
			FormFields: []*documentaipb.Document_Page_FormField{{
				FieldName:  layout(34, 38),
				FieldValue: layout(39, 43),
			}},
		}},
	}
}

func TestBuildSegments(t *testing.T) {
	segs := BuildSegments(sampleDocument())
	if len(segs) != 3 {
		t.Fatalf("expected page, table and form segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Text != "Intro paragraph" || segs[0].Page == nil || *segs[0].Page != 1 {
		t.Fatalf("page segment: %+v", segs[0])
	}
	if !strings.Contains(segs[1].Text, `| Name\|Score |  |`) || !strings.Contains(segs[1].Text, "| Ada | 10 |") {
		t.Fatalf("table markdown: %q", segs[1].Text)
	}
	if segs[2].Text != "Term: Fall" {
		t.Fatalf("form segment: %q", segs[2].Text)
	}
}

func TestBuildSegmentsFallsBackToPrimaryText(t *testing.T) {
	segs := BuildSegments(&documentaipb.Document{Text: "  just text  "})
	if len(segs) != 1 || segs[0].Text != "just text" || segs[0].Metadata["kind"] != "docai_primary_text" {
		t.Fatalf("fallback: %+v", segs)
	}
	if BuildSegments(nil) != nil {
		t.Fatalf("nil document should yield nil")
	}
}

type fakeProcessClient struct {
	errs  []error
	calls int
	last  *documentaipb.ProcessRequest
}

func (f *fakeProcessClient) ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error) {
	f.calls++
	f.last = req
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &documentaipb.ProcessResponse{Document: &documentaipb.Document{Text: "ocr text"}}, nil
}

func (f *fakeProcessClient) Close() error { return nil }

func testDocAI(client processClient) *DocumentAI {
	return &DocumentAI{
		log:    logger.NewNop(),
		cfg:    DocumentAIConfig{ProjectID: "p", Location: "us", ProcessorID: "proc", Timeout: time.Minute, MaxRetries: 2},
		client: client,
	}
}

func TestDocumentAIRetriesUnavailable(t *testing.T) {
	fake := &fakeProcessClient{errs: []error{status.Error(codes.Unavailable, "try again")}}
	segs, err := testDocAI(fake).Extract(context.Background(), "", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fake.calls != 2 {
		t.Fatalf("expected one retry, calls=%d", fake.calls)
	}
	if len(segs) != 1 || segs[0].Text != "ocr text" {
		t.Fatalf("segments: %+v", segs)
	}
	raw := fake.last.GetRawDocument()
	if raw.GetMimeType() != "application/pdf" || fake.last.GetName() != "projects/p/locations/us/processors/proc" {
		t.Fatalf("request: %+v", fake.last)
	}
}

func TestDocumentAIDoesNotRetryInvalidArgument(t *testing.T) {
	fake := &fakeProcessClient{errs: []error{status.Error(codes.InvalidArgument, "bad pdf")}}
	if _, err := testDocAI(fake).Extract(context.Background(), "application/pdf", []byte("x")); err == nil {
		t.Fatalf("expected error")
	}
	if fake.calls != 1 {
		t.Fatalf("expected no retry, calls=%d", fake.calls)
	}
}

func TestResolveDocumentAIConfigDisabled(t *testing.T) {
	t.Setenv("DOCUMENTAI_PROJECT_ID", "")
	t.Setenv("DOCUMENTAI_PROCESSOR_ID", "")
	if _, err := ResolveDocumentAIConfigFromEnv(nil); err != ErrDocumentAIDisabled {
		t.Fatalf("expected ErrDocumentAIDisabled, got %v", err)
	}
}
