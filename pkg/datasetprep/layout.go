// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datasetprep

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/foodvision/datasetprep/pkg/extract"
)

// CandidateRoots returns the ordered list of directories that may hold
// the dataset content: the cache root itself, its dataset-named
// subdirectory, and a doubly-nested copy of the same (some mirrors nest
// the dataset twice).
func CandidateRoots(cacheDir, name string) []string {
	roots := []string{cacheDir}
	nested := filepath.Join(cacheDir, name)
	if pathExists(nested) {
		roots = append(roots, nested)
	}
	double := filepath.Join(nested, name)
	if pathExists(double) {
		roots = append(roots, double)
	}
	return roots
}

// FindContentPair searches each root breadth-first for a directory that
// has both pair members as immediate subdirectories, descending at most
// maxDepth levels (a root is depth 0). The first match wins: roots are
// tried in order, breadth-first within each. Directories are visited at
// most once per root, keyed on symlink-resolved path, so cyclic
// symlinks terminate. Unreadable subtrees are skipped.
//
// Returns empty strings when no match exists.
func FindContentPair(roots []string, pair ContentPair, maxDepth int) (primary, secondary string) {
	if maxDepth <= 0 {
		maxDepth = 3
	}

	type item struct {
		dir   string
		depth int
	}

	for _, root := range roots {
		seen := make(map[string]struct{})
		queue := []item{{root, 0}}

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]

			key := canonicalPath(cur.dir)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			p := filepath.Join(cur.dir, pair.Primary)
			s := filepath.Join(cur.dir, pair.Secondary)
			if isDir(p) && isDir(s) {
				return p, s
			}

			if cur.depth >= maxDepth {
				continue
			}
			entries, err := os.ReadDir(cur.dir)
			if err != nil {
				// inaccessible subtree, keep searching elsewhere
				continue
			}
			for _, e := range entries {
				if e.IsDir() {
					queue = append(queue, item{filepath.Join(cur.dir, e.Name()), cur.depth + 1})
				}
			}
		}
	}
	return "", ""
}

// archiveSet holds at most one discovered archive per role. A later
// match replaces an earlier one (last one scanned wins).
type archiveSet struct {
	combined  string
	primary   string
	secondary string
}

// scanArchives inspects the immediate children of each root for archive
// files and classifies them by filename prefix, case-insensitively:
// the primary label, the secondary label, or the dataset name itself
// (a combined archive holding both directories).
func scanArchives(roots []string, name string, pair ContentPair) archiveSet {
	var found archiveSet
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			low := strings.ToLower(e.Name())
			if !extract.HasArchiveSuffix(low) {
				continue
			}
			full := filepath.Join(root, e.Name())
			switch {
			case strings.HasPrefix(low, strings.ToLower(pair.Primary)):
				found.primary = full
			case strings.HasPrefix(low, strings.ToLower(pair.Secondary)):
				found.secondary = full
			case strings.HasPrefix(low, strings.ToLower(name)):
				found.combined = full
			}
		}
	}
	return found
}

// ResolveLayout locates the content pair under the candidate roots.
// When the direct search fails, archives found in the roots are
// extracted into outDir and the search is retried there at depth 2:
// a combined archive takes precedence and per-category archives found
// alongside it are ignored. Failure after extraction is fatal.
func ResolveLayout(roots []string, name string, pair ContentPair, outDir string, maxDepth int, emit ProgressFunc) (primary, secondary string, err error) {
	primary, secondary = FindContentPair(roots, pair, maxDepth)
	if primary != "" && secondary != "" {
		return primary, secondary, nil
	}

	found := scanArchives(roots, name, pair)
	if found.combined != "" {
		emitEvent(emit, ProgressEvent{Event: "extract", Path: found.combined})
		if err := extract.Archive(found.combined, outDir); err != nil {
			return "", "", err
		}
	} else {
		if found.primary != "" {
			emitEvent(emit, ProgressEvent{Event: "extract", Path: found.primary})
			if err := extract.Archive(found.primary, outDir); err != nil {
				return "", "", err
			}
		}
		if found.secondary != "" {
			emitEvent(emit, ProgressEvent{Event: "extract", Path: found.secondary})
			if err := extract.Archive(found.secondary, outDir); err != nil {
				return "", "", err
			}
		}
	}

	primary, secondary = FindContentPair([]string{outDir}, pair, 2)
	if primary == "" || secondary == "" {
		return "", "", &LayoutError{Pair: pair, Searched: append(append([]string{}, roots...), outDir)}
	}
	return primary, secondary, nil
}

func emitEvent(emit ProgressFunc, ev ProgressEvent) {
	if emit != nil {
		emit(ev)
	}
}

// canonicalPath resolves symlinks where possible, falling back to a
// cleaned absolute path for locations that do not exist.
func canonicalPath(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return filepath.Clean(p)
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
