// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datasetprep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type stubDownloader struct {
	path  string
	err   error
	calls int
}

func (s *stubDownloader) DatasetDownload(ctx context.Context, ref string) (string, error) {
	s.calls++
	return s.path, s.err
}

// buildFood101Cache lays out the doubly-nested shape the hosting service
// produces for food-101: cache/food-101/food-101/{images,meta}.
func buildFood101Cache(t *testing.T) string {
	t.Helper()
	cache := t.TempDir()
	base := filepath.Join(cache, "food-101", "food-101")
	for _, class := range []string{"apple_pie", "waffles", "tacos"} {
		mkdirs(t, filepath.Join(base, "images", class))
		if err := os.WriteFile(filepath.Join(base, "images", class, "001.jpg"), []byte("jpegdata"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mkdirs(t, filepath.Join(base, "meta"))
	if err := os.WriteFile(filepath.Join(base, "meta", "classes.txt"), []byte("apple_pie\nwaffles\ntacos\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return cache
}

func TestPrepare_DoubleNestedLayout(t *testing.T) {
	cache := buildFood101Cache(t)
	out := filepath.Join(t.TempDir(), "out")
	dl := &stubDownloader{path: cache}

	res, err := Prepare(context.Background(), dl, Food101, Settings{OutputDir: out}, nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if res.Skipped {
		t.Fatal("unexpected skip")
	}
	if res.ClassCount != 3 {
		t.Errorf("ClassCount = %d, want 3", res.ClassCount)
	}
	if _, err := os.Stat(filepath.Join(out, "images", "waffles", "001.jpg")); err != nil {
		t.Errorf("missing image: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "meta", "classes.txt")); err != nil {
		t.Errorf("missing meta file: %v", err)
	}
	if dl.calls != 1 {
		t.Errorf("download calls = %d", dl.calls)
	}
}

func TestPrepare_SkipWithoutForce(t *testing.T) {
	cache := buildFood101Cache(t)
	out := t.TempDir()
	marker := filepath.Join(out, "existing.txt")
	if err := os.WriteFile(marker, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	var events []string
	res, err := Prepare(context.Background(), &stubDownloader{path: cache}, Food101,
		Settings{OutputDir: out}, func(ev ProgressEvent) { events = append(events, ev.Event) })
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !res.Skipped {
		t.Fatal("expected Skipped=true")
	}

	if b, err := os.ReadFile(marker); err != nil || string(b) != "keep" {
		t.Errorf("existing output was mutated: %q, %v", b, err)
	}
	if _, err := os.Stat(filepath.Join(out, "images")); err == nil {
		t.Error("images copied despite skip")
	}
	for _, ev := range events {
		if ev == "copy" || ev == "extract" {
			t.Errorf("unexpected %q event during skip", ev)
		}
	}
}

func TestPrepare_ForceOverwrites(t *testing.T) {
	cache := buildFood101Cache(t)
	out := t.TempDir()
	stale := filepath.Join(out, "stale.txt")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Prepare(context.Background(), &stubDownloader{path: cache}, Food101,
		Settings{OutputDir: out, Force: true}, nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if res.Skipped {
		t.Fatal("forced run reported skip")
	}
	if _, err := os.Stat(stale); err == nil {
		t.Error("stale file survived force")
	}
	if _, err := os.Stat(filepath.Join(out, "images", "apple_pie", "001.jpg")); err != nil {
		t.Errorf("missing image after force: %v", err)
	}
}

func TestPrepare_CombinedArchive(t *testing.T) {
	cache := t.TempDir()
	writeTarGz(t, filepath.Join(cache, "food-101.tar.gz"), map[string]string{
		"food-101/images/apple_pie/001.jpg": "jpegdata",
		"food-101/meta/classes.txt":         "apple_pie\n",
	})
	// broken per-category archives must be ignored in favor of the
	// combined one
	for _, name := range []string{"images.zip", "meta.tar.gz"} {
		if err := os.WriteFile(filepath.Join(cache, name), []byte("garbage"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out := filepath.Join(t.TempDir(), "out")
	res, err := Prepare(context.Background(), &stubDownloader{path: cache}, Food101,
		Settings{OutputDir: out}, nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if res.ClassCount != 1 {
		t.Errorf("ClassCount = %d, want 1", res.ClassCount)
	}
	if _, err := os.Stat(filepath.Join(out, "images", "apple_pie", "001.jpg")); err != nil {
		t.Errorf("missing image: %v", err)
	}
}

func TestPrepare_SelfCopyAvoided(t *testing.T) {
	// Per-category archives extract straight into the output, so the
	// resolved directories already sit at their targets and must not be
	// copied onto themselves.
	cache := t.TempDir()
	writeTarGz(t, filepath.Join(cache, "images.tar.gz"), map[string]string{
		"images/apple_pie/001.jpg": "jpegdata",
	})
	writeTarGz(t, filepath.Join(cache, "meta.tar.gz"), map[string]string{
		"meta/classes.txt": "apple_pie\n",
	})

	out := filepath.Join(t.TempDir(), "out")
	var events []string
	res, err := Prepare(context.Background(), &stubDownloader{path: cache}, Food101,
		Settings{OutputDir: out}, func(ev ProgressEvent) { events = append(events, ev.Event) })
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if res.ClassCount != 1 {
		t.Errorf("ClassCount = %d", res.ClassCount)
	}

	var already, copies int
	for _, ev := range events {
		switch ev {
		case "already_at":
			already++
		case "copy":
			copies++
		}
	}
	if already != 2 {
		t.Errorf("already_at events = %d, want 2", already)
	}
	if copies != 0 {
		t.Errorf("copy events = %d, want 0", copies)
	}
	if b, err := os.ReadFile(filepath.Join(out, "meta", "classes.txt")); err != nil || string(b) != "apple_pie\n" {
		t.Errorf("meta content = %q, %v", b, err)
	}
}

func TestPrepare_MirrorsWithoutPair(t *testing.T) {
	cache := t.TempDir()
	mkdirs(t, filepath.Join(cache, "training"))
	if err := os.WriteFile(filepath.Join(cache, "training", "0.jpg"), []byte("jpegdata"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "out")
	res, err := Prepare(context.Background(), &stubDownloader{path: cache}, Food11,
		Settings{OutputDir: out}, nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if res.PrimaryDir != "" {
		t.Errorf("PrimaryDir = %s, want empty for a mirrored dataset", res.PrimaryDir)
	}
	if _, err := os.Stat(filepath.Join(out, "training", "0.jpg")); err != nil {
		t.Errorf("missing mirrored file: %v", err)
	}
}

func TestPrepare_NoCachePath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	_, err := Prepare(context.Background(), &stubDownloader{path: ""}, Food101,
		Settings{OutputDir: out}, nil)
	if !errors.Is(err, ErrNoCachePath) {
		t.Fatalf("expected ErrNoCachePath, got %v", err)
	}
}

func TestPrepare_DownloadErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	_, err := Prepare(context.Background(), &stubDownloader{err: boom}, Food101,
		Settings{OutputDir: filepath.Join(t.TempDir(), "out")}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected downloader error, got %v", err)
	}
}

func TestPrepare_LayoutNotFound(t *testing.T) {
	cache := t.TempDir() // empty: no pair, no archives
	_, err := Prepare(context.Background(), &stubDownloader{path: cache}, Food101,
		Settings{OutputDir: filepath.Join(t.TempDir(), "out")}, nil)
	if !errors.Is(err, ErrLayoutNotFound) {
		t.Fatalf("expected ErrLayoutNotFound, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"food-101", "food-101", true},
		{"food101", "food-101", true},
		{"FOOD-11", "food-11", true},
		{"nutrition5k", "nutrition5k", true},
		{"cifar10", "", false},
	}
	for _, c := range cases {
		sp, ok := Lookup(c.in)
		if ok != c.ok || sp.Name != c.want {
			t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", c.in, sp.Name, ok, c.want, c.ok)
		}
	}
}
