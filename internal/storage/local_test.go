package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()
	if err := store.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}

	key := ArtifactKey("owner-1", "job-1", "document", "html")
	payload := []byte("<html>doc</html>")

	if err := store.Upload(ctx, key, bytes.NewReader(payload), int64(len(payload)), "text/html"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	ok, err := store.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	rc, contentType, err := store.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch: %q", got)
	}
	if !strings.HasPrefix(contentType, "text/html") {
		t.Errorf("contentType = %q", contentType)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := store.Exists(ctx, key); ok {
		t.Error("object should be gone after delete")
	}
	// Deleting again is not an error.
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	for _, key := range []string{"../outside", "a/../../b"} {
		err := store.Upload(context.Background(), key, strings.NewReader("x"), 1, "")
		if err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestArtifactKey(t *testing.T) {
	got := ArtifactKey("owner-1", "job-9", "cover_letter", "pdf")
	want := "owner/owner-1/results/job-9/cover_letter.pdf"
	if got != want {
		t.Errorf("ArtifactKey = %q, want %q", got, want)
	}
}
