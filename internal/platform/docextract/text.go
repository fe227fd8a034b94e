package docextract

import (
	"archive/zip"
	"bytes"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var (
	ErrEmpty       = errors.New("empty document")
	ErrUnsupported = errors.New("unsupported document type")
)

// Kind is the sniffed container format of a document.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindPPTX    Kind = "pptx"
	KindHTML    Kind = "html"
	KindText    Kind = "text"
	KindUnknown Kind = "unknown"
)

// Sniff decides the document kind from magic bytes first, then mime type and extension.
func Sniff(name, mimeType string, data []byte) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case isPDF(data):
		return KindPDF
	case isZip(data):
		return openXMLKind(data)
	case looksLikeHTML(data), mt == "text/html", ext == ".html", ext == ".htm":
		return KindHTML
	case isProbablyText(data), mt == "text/plain", mt == "text/markdown", ext == ".txt", ext == ".md", ext == ".markdown":
		return KindText
	default:
		return KindUnknown
	}
}

// ExtractText returns whitespace-collapsed plain text for PDF, DOCX, PPTX, HTML and text files.
func ExtractText(name, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: name=%s", ErrEmpty, name)
	}
	var (
		out string
		err error
	)
	switch kind := Sniff(name, mimeType, data); kind {
	case KindPDF:
		out, err = extractPDF(data)
	case KindDOCX:
		out, err = extractOpenXML(data, func(n string) bool { return n == "word/document.xml" })
	case KindPPTX:
		out, err = extractOpenXML(data, func(n string) bool {
			return strings.HasPrefix(n, "ppt/slides/slide") && strings.HasSuffix(n, ".xml")
		})
	case KindHTML:
		out = stripHTML(string(data))
	case KindText:
		out = CollapseWhitespace(string(data))
	default:
		return "", fmt.Errorf("%w: name=%s mime=%s head=%s", ErrUnsupported, name, mimeType, headHex(data, 16))
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: no text in %s", ErrEmpty, name)
	}
	return out, nil
}

func isPDF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("%PDF-"))
}

func isZip(b []byte) bool {
	return bytes.HasPrefix(b, []byte{'P', 'K', 3, 4})
}

func looksLikeHTML(b []byte) bool {
	s := strings.ToLower(strings.TrimSpace(string(b[:min(len(b), 2048)])))
	if strings.HasPrefix(s, "<!doctype html") || strings.HasPrefix(s, "<html") {
		return true
	}
	return strings.Contains(s, "<html") && strings.Contains(s, "</html>")
}

// isProbablyText: no NULs and at least 90% printable bytes in the first 4KiB.
func isProbablyText(b []byte) bool {
	sample := b[:min(len(b), 4096)]
	if len(sample) == 0 {
		return false
	}
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}

func headHex(b []byte, n int) string {
	return hex.EncodeToString(b[:min(len(b), n)])
}

// extractPDF recovers from parser panics, which malformed xref tables can trigger.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parse panic: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return CollapseWhitespace(string(b)), nil
}

func openXMLKind(data []byte) Kind {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return KindUnknown
	}
	var word, ppt bool
	for _, f := range zr.File {
		word = word || strings.HasPrefix(f.Name, "word/")
		ppt = ppt || strings.HasPrefix(f.Name, "ppt/")
	}
	switch {
	case word && !ppt:
		return KindDOCX
	case ppt && !word:
		return KindPPTX
	default:
		return KindUnknown
	}
}

// extractOpenXML concatenates every <*:t> run of the matching parts, in part-name order.
func extractOpenXML(data []byte, want func(name string) bool) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("openxml: %w", err)
	}
	parts := make([]*zip.File, 0, 8)
	for _, f := range zr.File {
		if want(f.Name) {
			parts = append(parts, f)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return partLess(parts[i].Name, parts[j].Name) })

	var out strings.Builder
	for _, f := range parts {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("openxml open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("openxml read %s: %w", f.Name, err)
		}
		out.WriteString(textRuns(b))
		out.WriteString("\n")
	}
	return CollapseWhitespace(out.String()), nil
}

// partLess orders slide2.xml before slide10.xml.
func partLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func textRuns(xmlBytes []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "t" {
			continue
		}
		var v string
		if err := dec.DecodeElement(&v, &se); err == nil && v != "" {
			out.WriteString(v)
			out.WriteString(" ")
		}
	}
	return out.String()
}

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe         = regexp.MustCompile(`(?s)<[^>]*>`)
)

func stripHTML(s string) string {
	s = scriptStyleRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	return CollapseWhitespace(html.UnescapeString(s))
}

// CollapseWhitespace folds every run of unicode whitespace (NBSP included) to one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
