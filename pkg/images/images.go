// Package images downloads article photos into a local directory.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Downloader fetches one image per call and writes it under dir keyed by
// filename. Failures are the caller's to log; nothing here is retried.
type Downloader struct {
	dir     string
	timeout time.Duration
	client  *http.Client
}

// New creates a Downloader writing into dir, creating it if needed.
func New(dir string, timeout time.Duration) (*Downloader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create images dir %s: %w", dir, err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}

	return &Downloader{
		dir:     dir,
		timeout: timeout,
		client:  &http.Client{Transport: transport, Jar: jar},
	}, nil
}

// Download fetches rawURL and writes the body to dir/filename. The whole
// operation is bounded by the configured timeout.
func (d *Downloader) Download(ctx context.Context, rawURL, filename string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", rawURL, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", rawURL, err)
	}

	// filename must stay a bare name; Base keeps the write inside dir.
	target := filepath.Join(d.dir, filepath.Base(filename))
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
