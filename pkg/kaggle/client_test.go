// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package kaggle

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func bundleZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadCredentials_Env(t *testing.T) {
	t.Setenv("KAGGLE_USERNAME", "alice")
	t.Setenv("KAGGLE_KEY", "sekrit")

	c, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if c.Username != "alice" || c.Key != "sekrit" {
		t.Errorf("got %+v", c)
	}
}

func TestLoadCredentials_File(t *testing.T) {
	t.Setenv("KAGGLE_USERNAME", "")
	t.Setenv("KAGGLE_KEY", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".kaggle")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "kaggle.json"),
		[]byte(`{"username":"bob","key":"hunter2"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if c.Username != "bob" || c.Key != "hunter2" {
		t.Errorf("got %+v", c)
	}
}

func TestLoadCredentials_Missing(t *testing.T) {
	t.Setenv("KAGGLE_USERNAME", "")
	t.Setenv("KAGGLE_KEY", "")
	t.Setenv("HOME", t.TempDir())

	if _, err := LoadCredentials(); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestDatasetDownload(t *testing.T) {
	bundle := bundleZip(t, map[string]string{
		"food-101/images/apple_pie/001.jpg": "jpegdata",
		"food-101/meta/classes.txt":         "apple_pie\n",
	})

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/datasets/download/dansbecker/food-101" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if user, key, ok := r.BasicAuth(); !ok || user != "alice" || key != "sekrit" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		hits.Add(1)
		w.Write(bundle)
	}))
	defer srv.Close()

	c := NewClient(Settings{
		Endpoint:    srv.URL,
		CacheDir:    t.TempDir(),
		Credentials: Credentials{Username: "alice", Key: "sekrit"},
	})

	extracted, err := c.DatasetDownload(context.Background(), "dansbecker/food-101")
	if err != nil {
		t.Fatalf("DatasetDownload: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(extracted, "food-101", "meta", "classes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "apple_pie\n" {
		t.Errorf("content = %q", b)
	}
	if hits.Load() != 1 {
		t.Fatalf("hits = %d", hits.Load())
	}

	// Second call is served from cache even with the server gone.
	srv.Close()
	again, err := c.DatasetDownload(context.Background(), "dansbecker/food-101")
	if err != nil {
		t.Fatalf("cache hit failed: %v", err)
	}
	if again != extracted {
		t.Errorf("cache path changed: %s vs %s", again, extracted)
	}
	if hits.Load() != 1 {
		t.Errorf("cache hit touched the network, hits = %d", hits.Load())
	}
}

func TestDatasetDownload_InvalidRef(t *testing.T) {
	c := NewClient(Settings{CacheDir: t.TempDir()})
	for _, ref := range []string{"", "food-101", "a/b/c", "/slug", "owner/"} {
		if _, err := c.DatasetDownload(context.Background(), ref); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("ref %q: expected ErrInvalidRef, got %v", ref, err)
		}
	}
}

func TestDatasetDownload_NotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Settings{Endpoint: srv.URL, CacheDir: t.TempDir(), Retries: 3})
	_, err := c.DatasetDownload(context.Background(), "nobody/nothing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("404 retried, hits = %d", hits.Load())
	}
}

func TestDatasetDownload_RetriesServerErrors(t *testing.T) {
	bundle := bundleZip(t, map[string]string{"readme.txt": "ok"})

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(bundle)
	}))
	defer srv.Close()

	c := NewClient(Settings{
		Endpoint:       srv.URL,
		CacheDir:       t.TempDir(),
		Retries:        4,
		BackoffInitial: "1ms",
		BackoffMax:     "5ms",
	})
	extracted, err := c.DatasetDownload(context.Background(), "owner/flaky")
	if err != nil {
		t.Fatalf("DatasetDownload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(extracted, "readme.txt")); err != nil {
		t.Errorf("missing extracted file: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
}

func TestIsValidRef(t *testing.T) {
	valid := []string{"owner/slug", "a/b"}
	invalid := []string{"", "owner", "owner/", "/slug", "a/b/c"}
	for _, ref := range valid {
		if !IsValidRef(ref) {
			t.Errorf("IsValidRef(%q) = false", ref)
		}
	}
	for _, ref := range invalid {
		if IsValidRef(ref) {
			t.Errorf("IsValidRef(%q) = true", ref)
		}
	}
}
