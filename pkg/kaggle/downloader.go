// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package kaggle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/foodvision/datasetprep/pkg/extract"
)

// markerName is written next to an extracted bundle once it is
// complete. Its presence makes later downloads a pure cache hit.
const markerName = ".complete"

// DatasetDownload fetches the dataset bundle for ref, extracts it into
// the cache, and returns the extracted directory path.
//
// Cache layout: <cache>/datasets/<owner>/<slug>/extracted plus the
// bundle zip alongside it. A completed extraction is reused without
// touching the network.
func (c *Client) DatasetDownload(ctx context.Context, ref string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ref = strings.TrimSpace(ref)
	if !IsValidRef(ref) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}

	owner, slug, _ := strings.Cut(ref, "/")
	base := filepath.Join(c.cfg.CacheDir, "datasets", owner, slug)
	extracted := filepath.Join(base, "extracted")
	marker := filepath.Join(base, markerName)

	if fileExists(marker) && dirExists(extracted) {
		return extracted, nil
	}

	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}

	bundle := filepath.Join(base, slug+".zip")
	if err := c.downloadBundle(ctx, ref, bundle); err != nil {
		return "", err
	}

	// A fresh bundle invalidates any partial extraction.
	if err := os.RemoveAll(extracted); err != nil {
		return "", err
	}
	if err := extract.Archive(bundle, extracted); err != nil {
		return "", fmt.Errorf("extract bundle for %s: %w", ref, err)
	}

	stamp := fmt.Sprintf("%s %s\n", ref, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(marker, []byte(stamp), 0o644); err != nil {
		return "", err
	}
	return extracted, nil
}

// downloadBundle fetches the bundle zip to dst via a temp file, with
// retry and exponential backoff.
func (c *Client) downloadBundle(ctx context.Context, ref, dst string) error {
	tmp := dst + ".part"
	retry := newRetry(c.cfg)
	var lastErr error

	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = c.fetchOnce(ctx, ref, tmp)
		if lastErr == nil {
			return os.Rename(tmp, dst)
		}

		// Only network and server-side failures are worth retrying.
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && !apiErr.IsRetryable() {
			return lastErr
		}

		if attempt < c.cfg.Retries {
			if d := retry.Next(); !sleepCtx(ctx, d) {
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func (c *Client) fetchOnce(ctx context.Context, ref, tmp string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.downloadURL(ref), nil)
	if err != nil {
		return err
	}
	c.addAuth(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, URL: req.URL.String()}
	}

	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	var src io.Reader = resp.Body
	if c.cfg.Progress != nil {
		src = &progressReader{
			reader:   resp.Body,
			total:    resp.ContentLength,
			emit:     c.cfg.Progress,
			interval: 200 * time.Millisecond,
		}
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// progressReader emits throttled progress callbacks during reads.
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	emit       ProgressFunc
	lastEmit   time.Time
	interval   time.Duration
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		if time.Since(pr.lastEmit) >= pr.interval || err == io.EOF {
			pr.emit(pr.downloaded, pr.total)
			pr.lastEmit = time.Now()
		}
	}
	return n, err
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func dirExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
