// Package fetcher handles downloading and verifying CA certificate bundles.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	certerrors "github.com/princespaghetti/certfetch/internal/errors"
)

const (
	// DefaultTimeout bounds a single bundle download.
	DefaultTimeout = 30 * time.Second

	userAgent = "certfetch/1.0 (cloud CA bundle fetcher)"
)

// Fetcher handles downloading certificate bundles.
type Fetcher struct {
	client HTTPClient
}

// NewFetcher creates a new Fetcher with the given HTTP client.
// If client is nil, uses http.DefaultClient.
func NewFetcher(client HTTPClient) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client: client,
	}
}

// Fetch downloads a certificate bundle from the specified URL.
// The context can be used to cancel the download or set a timeout.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Set User-Agent to identify ourselves
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download bundle: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // Ignore close error - standard practice

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if len(data) == 0 {
		return nil, certerrors.ErrEmptyBundle
	}

	return data, nil
}
