package headpose

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// EnsureModel downloads url to path when path does not exist yet. It
// reports whether a download happened. An empty url leaves a missing
// model missing. The file is written to a temporary name and renamed so
// an interrupted download never looks like a model.
func EnsureModel(ctx context.Context, client *http.Client, path, url string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if url == "" {
		return false, nil
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("creating model request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("downloading model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("downloading model: %s returned %d", url, resp.StatusCode)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("creating model dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return false, fmt.Errorf("creating model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return false, fmt.Errorf("writing model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("writing model: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("installing model: %w", err)
	}
	return true, nil
}
