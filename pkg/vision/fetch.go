// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package vision wraps an external object-detection toolkit (the
// ultralytics "yolo" CLI) for one-shot inference and training, plus a
// small helper for materializing input images.
package vision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrNoSource is returned by EnsureImage when the image is missing
// locally and no URL was provided.
var ErrNoSource = errors.New("image not found locally and no url given")

// EnsureImage makes sure an image exists at localPath and returns that
// path. A missing file is downloaded from url when one is given.
func EnsureImage(ctx context.Context, localPath, url string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", err
	}

	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}
	if url == "" {
		return "", fmt.Errorf("%w: %s", ErrNoSource, localPath)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download %s: %s", url, resp.Status)
	}

	tmp := localPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, localPath); err != nil {
		return "", err
	}
	return localPath, nil
}
