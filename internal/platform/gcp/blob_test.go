package gcp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLocalBlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlobStore: %v", err)
	}

	if err := store.Put(ctx, "/uploads/u1/notes.txt", strings.NewReader("hello"), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := store.Open(ctx, "uploads/u1/notes.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "hello" {
		t.Fatalf("Open: got=%q", string(b))
	}

	if err := store.Delete(ctx, "uploads/u1/notes.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "uploads/u1/notes.txt"); err != nil {
		t.Fatalf("Delete (missing) should be a no-op: %v", err)
	}
	if _, err := store.Open(ctx, "uploads/u1/notes.txt"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Open after delete: expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalBlobStoreRejectsEscape(t *testing.T) {
	store, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlobStore: %v", err)
	}
	if _, err := store.Open(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatalf("expected escape to be rejected")
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a/b/report.PDF":   "application/pdf",
		"slides.pptx?x=1":  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"readme.md":        "text/markdown",
		"blob-without-ext": "application/octet-stream",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
