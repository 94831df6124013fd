package headpose

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestEnsureModelDownloadsOnce(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("onnx-bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "models", "headpose.onnx")
	ctx := context.Background()

	fetched, err := EnsureModel(ctx, srv.Client(), path, srv.URL+"/headpose.onnx")
	if err != nil || !fetched {
		t.Fatalf("EnsureModel = %v, %v", fetched, err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "onnx-bytes" {
		t.Fatalf("model file = %q, %v", data, err)
	}

	fetched, err = EnsureModel(ctx, srv.Client(), path, srv.URL+"/headpose.onnx")
	if err != nil || fetched {
		t.Fatalf("expected existing model to be kept, got %v, %v", fetched, err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 request, got %d", n)
	}
}

func TestEnsureModelWithoutURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headpose.onnx")
	fetched, err := EnsureModel(context.Background(), nil, path, "")
	if err != nil || fetched {
		t.Fatalf("EnsureModel = %v, %v", fetched, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no model file, got %v", err)
	}
}

func TestEnsureModelBadStatusLeavesNothing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "headpose.onnx")
	if _, err := EnsureModel(context.Background(), srv.Client(), path, srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}
}
