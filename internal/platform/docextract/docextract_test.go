package docextract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/classroom-backend/internal/domain/library"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   `<w:document xmlns:w="w"><w:body><w:p><w:r><w:t>Week one</w:t></w:r><w:r><w:t>syllabus</w:t></w:r></w:p></w:body></w:document>`,
	})
	if k := Sniff("notes.docx", "", data); k != KindDOCX {
		t.Fatalf("Sniff: %s", k)
	}
	got, err := ExtractText("notes.docx", "", data)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "Week one syllabus" {
		t.Fatalf("ExtractText: %q", got)
	}
}

func TestExtractTextPPTXSlideOrder(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/slides/slide10.xml": `<p:sld xmlns:a="a" xmlns:p="p"><a:t>ten</a:t></p:sld>`,
		"ppt/slides/slide2.xml":  `<p:sld xmlns:a="a" xmlns:p="p"><a:t>two</a:t></p:sld>`,
		"ppt/slides/slide1.xml":  `<p:sld xmlns:a="a" xmlns:p="p"><a:t>one</a:t></p:sld>`,
	})
	got, err := ExtractText("deck.pptx", "", data)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "one two ten" {
		t.Fatalf("slide order: %q", got)
	}
}

func TestExtractTextHTMLAndText(t *testing.T) {
	page := `<!DOCTYPE html><html><head><style>p{}</style><script>var x=1</script></head><body><p>Tom &amp; Jerry</p></body></html>`
	got, err := ExtractText("page.html", "text/html", []byte(page))
	if err != nil || got != "Tom & Jerry" {
		t.Fatalf("html: err=%v got=%q", err, got)
	}
	got, err = ExtractText("a.md", "", []byte("# Title\n\n  body\ttext "))
	if err != nil || got != "# Title body text" {
		t.Fatalf("text: err=%v got=%q", err, got)
	}
}

func TestExtractTextErrors(t *testing.T) {
	if _, err := ExtractText("x.txt", "", nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := ExtractText("blob.bin", "", []byte{0x00, 0x01, 0x02, 0xff}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("binary: %v", err)
	}
	if _, err := ExtractText("ws.txt", "", []byte("   \n\t ")); !errors.Is(err, ErrEmpty) {
		t.Fatalf("whitespace only: %v", err)
	}
}

func TestSplitIntoChunks(t *testing.T) {
	text := strings.Repeat("a", 2600)
	chunks := SplitIntoChunks(text, DefaultChunkSize, DefaultChunkOverlap)
	// windows start at 0, 1000, 2000
	if len(chunks) != 3 {
		t.Fatalf("chunks: %d", len(chunks))
	}
	if len(chunks[0]) != 1200 || len(chunks[2]) != 600 {
		t.Fatalf("chunk sizes: %d %d", len(chunks[0]), len(chunks[2]))
	}
	if got := SplitIntoChunks("short", 1200, 200); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short: %v", got)
	}
	if SplitIntoChunks("   ", 1200, 200) != nil {
		t.Fatalf("blank should be nil")
	}
	multi := strings.Repeat("é", 1300)
	for _, c := range SplitIntoChunks(multi, 1200, 200) {
		if !strings.HasPrefix(c, "é") {
			t.Fatalf("chunk split inside a rune")
		}
	}
}

func TestNormalizeAndTag(t *testing.T) {
	page := 1
	in := []library.Segment{
		{Text: "  hello  ", Page: &page},
		{Text: "hello", Page: &page},
		{Text: "   "},
		{Text: "world", Metadata: map[string]any{"kind": "table_text"}},
	}
	out := Normalize(in)
	if len(out) != 2 || out[0].Text != "hello" {
		t.Fatalf("Normalize: %+v", out)
	}
	tagged := Tag(out, map[string]any{"course_id": "c1", "kind": "default"})
	if tagged[0].Metadata["course_id"] != "c1" || tagged[1].Metadata["kind"] != "table_text" {
		t.Fatalf("Tag: %+v", tagged)
	}
	if out[1].Metadata["course_id"] != nil {
		t.Fatalf("Tag mutated its input")
	}
	stamped := Stamp(out, map[string]any{"kind": "course"})
	if stamped[1].Metadata["kind"] != "course" || out[1].Metadata["kind"] != "table_text" {
		t.Fatalf("Stamp: %+v", stamped)
	}
	if JoinText(tagged) != "hello\n\nworld" {
		t.Fatalf("JoinText: %q", JoinText(tagged))
	}
	if len(ContentHash("x")) != 64 {
		t.Fatalf("ContentHash length")
	}
}

type fakeOCR struct {
	segs  []library.Segment
	err   error
	calls int
}

func (f *fakeOCR) Extract(ctx context.Context, mimeType string, data []byte) ([]library.Segment, error) {
	f.calls++
	return f.segs, f.err
}

func TestExtractorUsesOCRForPDF(t *testing.T) {
	ocr := &fakeOCR{segs: []library.Segment{{Text: strings.Repeat("scanned ", 100)}}}
	ex := New(logger.NewNop(), ocr)
	segs, err := ex.Extract(context.Background(), Source{Name: "scan.pdf", Data: []byte("%PDF-1.7 not really")})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ocr.calls != 1 || len(segs) != 1 {
		t.Fatalf("expected OCR-only result, calls=%d segs=%d", ocr.calls, len(segs))
	}
}

func TestExtractorSkipsOCRForText(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("should not be called")}
	ex := New(logger.NewNop(), ocr)
	segs, err := ex.Extract(context.Background(), Source{Name: "notes.txt", Data: []byte("plain notes")})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ocr.calls != 0 || len(segs) != 1 || segs[0].Metadata["kind"] != "native_text" {
		t.Fatalf("unexpected: calls=%d segs=%+v", ocr.calls, segs)
	}
}

func TestExtractorKeepsWeakOCRWhenNativeFails(t *testing.T) {
	ocr := &fakeOCR{segs: []library.Segment{{Text: "short scan"}}}
	ex := New(logger.NewNop(), ocr)
	segs, err := ex.Extract(context.Background(), Source{Name: "scan.pdf", Data: []byte("%PDF-broken")})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(segs) != 1 || segs[0].Text != "short scan" {
		t.Fatalf("segs: %+v", segs)
	}
}
