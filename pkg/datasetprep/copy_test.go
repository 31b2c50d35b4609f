// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datasetprep

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	mkdirs(t, filepath.Join(src, "apple_pie"), filepath.Join(src, "waffles"))
	if err := os.WriteFile(filepath.Join(src, "apple_pie", "001.jpg"), []byte("jpegdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "classes.txt"), []byte("apple_pie\nwaffles\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "out")
	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dst, "apple_pie", "001.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "jpegdata" {
		t.Errorf("content = %q", b)
	}
	fi, err := os.Stat(filepath.Join(dst, "classes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", fi.Mode().Perm())
	}
	if _, err := os.Stat(filepath.Join(dst, "waffles")); err != nil {
		t.Errorf("empty directory not copied: %v", err)
	}
}

func TestCopyTree_PopulatedDestination(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	if err := os.WriteFile(filepath.Join(dst, "stale.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := CopyTree(src, dst)
	if !errors.Is(err, ErrDestinationPopulated) {
		t.Fatalf("expected ErrDestinationPopulated, got %v", err)
	}
}

func TestCopyTree_EmptyExistingDestination(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := t.TempDir()
	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree into empty dir: %v", err)
	}
}

func TestCopyTree_SymlinkedFileCopiedByContent(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "real.txt"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(src, "real.txt"), filepath.Join(src, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "out")
	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree: %v", err)
	}

	fi, err := os.Lstat(filepath.Join(dst, "link.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		t.Error("symlink copied as symlink, want regular file")
	}
	b, err := os.ReadFile(filepath.Join(dst, "link.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "data" {
		t.Errorf("content = %q", b)
	}
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()

	if !SamePath(dir, dir) {
		t.Error("identical paths not equal")
	}
	if SamePath(dir, other) {
		t.Error("distinct paths reported equal")
	}

	link := filepath.Join(t.TempDir(), "alias")
	if err := os.Symlink(dir, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if !SamePath(dir, link) {
		t.Error("symlink alias not recognized")
	}
}

func TestCountClassDirs(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, filepath.Join(dir, "apple_pie"), filepath.Join(dir, "waffles"), filepath.Join(dir, "tacos"))
	if err := os.WriteFile(filepath.Join(dir, "classes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if n := CountClassDirs(dir); n != 3 {
		t.Errorf("CountClassDirs = %d, want 3", n)
	}
	if n := CountClassDirs(filepath.Join(dir, "missing")); n != 0 {
		t.Errorf("CountClassDirs(missing) = %d, want 0", n)
	}
}
