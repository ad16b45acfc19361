package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/joshmayeda/pGEN-server/internal/errs"
)

// DefaultMaxBytes caps a single downloaded image at 25 MiB
const DefaultMaxBytes = 25 << 20

// Fetcher retrieves raw card image bytes over HTTP
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
	UserAgent  string
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes:  DefaultMaxBytes,
		UserAgent: "pgen",
	}
}

// Fetch downloads the complete payload behind ref.
// Every failure is reported as errs.FetchFailed carrying ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, errs.Wrap(errs.FetchFailed, ref, err, "invalid image URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errs.New(errs.FetchFailed, ref, "unsupported URL scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, errs.Wrap(errs.FetchFailed, ref, err, "failed to create request")
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "image/*")

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.FetchFailed, ref, err, "failed to download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.New(errs.FetchFailed, ref, "HTTP %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if f.MaxBytes > 0 {
		// one extra byte distinguishes "exactly at the cap" from "over it"
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}

	imageData, err := io.ReadAll(body)
	if err != nil {
		return nil, errs.Wrap(errs.FetchFailed, ref, err, "failed to read image data")
	}
	if f.MaxBytes > 0 && int64(len(imageData)) > f.MaxBytes {
		return nil, errs.New(errs.FetchFailed, ref, "image too large (max %s)", formatBytes(f.MaxBytes))
	}

	slog.Debug("Fetched image", "ref", ref, "bytes", len(imageData), "elapsed", time.Since(start))
	return imageData, nil
}

func formatBytes(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
