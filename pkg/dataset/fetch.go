package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Fetch downloads the container at url once into a temporary file in dir
// and returns its path. The caller removes the file when done.
func Fetch(ctx context.Context, client *http.Client, url, dir string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status %s", url, resp.Status)
	}

	file, err := os.CreateTemp(dir, "anglegrid-*.h5")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to write download: %w", err)
	}
	return file.Name(), nil
}
