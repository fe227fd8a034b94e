package docextract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/classroom-backend/internal/domain/library"
)

const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200
	minChunkSize        = 200
)

// Normalize trims segments, drops empty ones, and removes duplicates that share
// text, page and kind.
func Normalize(in []library.Segment) []library.Segment {
	out := make([]library.Segment, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		t := strings.TrimSpace(s.Text)
		if t == "" {
			continue
		}
		s.Text = t
		k := segmentKey(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

func segmentKey(s library.Segment) string {
	var b strings.Builder
	b.WriteString(s.Text)
	b.WriteString("|")
	if s.Page != nil {
		fmt.Fprintf(&b, "p=%d", *s.Page)
	}
	if k, ok := s.Metadata["kind"]; ok {
		fmt.Fprintf(&b, "|k=%v", k)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Tag returns copies of in with extra merged into each segment's metadata.
// Keys already on a segment win over extra.
func Tag(in []library.Segment, extra map[string]any) []library.Segment {
	out := make([]library.Segment, 0, len(in))
	for _, s := range in {
		md := make(map[string]any, len(s.Metadata)+len(extra))
		for k, v := range extra {
			md[k] = v
		}
		for k, v := range s.Metadata {
			md[k] = v
		}
		s.Metadata = md
		out = append(out, s)
	}
	return out
}

// Stamp is Tag with the precedence reversed: keys in extra overwrite the segment's.
func Stamp(in []library.Segment, extra map[string]any) []library.Segment {
	out := Tag(in, nil)
	for i := range out {
		for k, v := range extra {
			out[i].Metadata[k] = v
		}
	}
	return out
}

// JoinText concatenates segment texts with blank lines between them.
func JoinText(segs []library.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		t := strings.TrimSpace(s.Text)
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t)
	}
	return b.String()
}

// ContentHash is the hex sha256 of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SplitIntoChunks windows text by runes: chunkSize wide, advancing chunkSize-overlap.
func SplitIntoChunks(text string, chunkSize, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunkSize < minChunkSize {
		chunkSize = minChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	step := chunkSize - overlap

	if utf8.RuneCountInString(text) <= chunkSize {
		return []string{text}
	}
	runes := []rune(text)
	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := min(start+chunkSize, len(runes))
		if p := strings.TrimSpace(string(runes[start:end])); p != "" {
			out = append(out, p)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
