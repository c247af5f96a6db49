package storage

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return s
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	want := []byte("payload")
	if err := s.Upload(ctx, "embeddings/u1.npy", want, "application/octet-stream"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	got, err := s.Download(ctx, "embeddings/u1.npy")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDownloadMissingObject(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.Download(context.Background(), "missing.npy")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "models/classifier.json")
	if err != nil || ok {
		t.Errorf("Exists before upload = %v, %v", ok, err)
	}
	if err := s.Upload(ctx, "models/classifier.json", []byte("{}"), "application/json"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	ok, err = s.Exists(ctx, "models/classifier.json")
	if err != nil || !ok {
		t.Errorf("Exists after upload = %v, %v", ok, err)
	}
}

func TestListByPrefix(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, key := range []string{
		"embeddings/avg_u1.npy",
		"embeddings/avg_u2.npy",
		"embeddings/u1.npy",
		"dataset/u1/front_1.jpg",
	} {
		if err := s.Upload(ctx, key, []byte("x"), "application/octet-stream"); err != nil {
			t.Fatalf("Upload(%s): %v", key, err)
		}
	}

	keys, err := s.List(ctx, "embeddings/avg_")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	sort.Strings(keys)
	want := []string{"embeddings/avg_u1.npy", "embeddings/avg_u2.npy"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestUploadOverwrites(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.Upload(ctx, "k", []byte("old"), ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := s.Upload(ctx, "k", []byte("new"), ""); err != nil {
		t.Fatalf("Upload overwrite: %v", err)
	}
	got, err := s.Download(ctx, "k")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("got %q, want new", got)
	}
}

func TestDeleteAndTraversalRejected(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.Upload(ctx, "k", []byte("x"), ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("second Delete = %v, want ErrObjectNotFound", err)
	}
	if err := s.Upload(ctx, "../outside", []byte("x"), ""); err == nil {
		t.Error("expected error for key escaping the root")
	}
}
