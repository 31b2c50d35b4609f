// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datasetprep

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyTree recursively copies the directory tree at src into dst.
// dst may exist only if it is empty; copying into a populated directory
// returns ErrDestinationPopulated.
func CopyTree(src, dst string) error {
	if entries, err := os.ReadDir(dst); err == nil && len(entries) > 0 {
		return fmt.Errorf("%w: %s", ErrDestinationPopulated, dst)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			// sockets, devices etc. have no place in a dataset tree;
			// symlinked files are copied by content below
			if d.Type()&os.ModeSymlink == 0 {
				return nil
			}
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// SamePath reports whether two paths resolve to the same location after
// following symlinks. Used to avoid copying a directory onto itself.
func SamePath(a, b string) bool {
	return canonicalPath(a) == canonicalPath(b)
}

// CountClassDirs counts the immediate subdirectories of dir. Each is
// treated as one dataset class in the final summary. A missing or
// unreadable dir counts as zero.
func CountClassDirs(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			n++
		}
	}
	return n
}
