// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datasetprep

import (
	"context"
	"strings"
	"time"
)

// ContentPair names the two sibling directories that must both be
// present for a location to be recognized as a valid dataset root.
type ContentPair struct {
	// Primary is the directory carrying the per-class content,
	// e.g. "images".
	Primary string

	// Secondary is the companion directory, e.g. "meta".
	Secondary string
}

// IsZero reports whether no content pair is configured. Datasets without
// a pair are mirrored from the cache as-is.
func (p ContentPair) IsZero() bool {
	return p.Primary == "" && p.Secondary == ""
}

// Spec describes a named dataset and how to lay it out locally.
type Spec struct {
	// Name is the canonical dataset name. It doubles as the expected
	// nesting directory inside the download cache and as the filename
	// prefix of a combined archive (e.g. "food-101" for food-101.tar).
	Name string

	// Ref is the default hosting-service dataset reference in
	// "owner/slug" format. Overridable per run via Settings.Ref.
	Ref string

	// DefaultOut is the output directory used when Settings.OutputDir
	// is empty.
	DefaultOut string

	// Pair, when set, requests normalization to the canonical
	// two-directory layout. When zero the whole cache tree is copied.
	Pair ContentPair
}

// Built-in dataset specs.
var (
	Nutrition5k = Spec{
		Name:       "nutrition5k",
		Ref:        "siddhantrout/nutrition5k-dataset",
		DefaultOut: "/datasets/dataset-01-Nutrition5k",
	}
	Food101 = Spec{
		Name:       "food-101",
		Ref:        "dansbecker/food-101",
		DefaultOut: "/datasets/dataset-02-Food-101",
		Pair:       ContentPair{Primary: "images", Secondary: "meta"},
	}
	Food11 = Spec{
		Name:       "food-11",
		Ref:        "trolukovich/food11-image-dataset",
		DefaultOut: "/datasets/dataset-03-Food-11",
	}
)

// Known lists the built-in dataset specs in preparation order.
var Known = []Spec{Nutrition5k, Food101, Food11}

// Lookup returns the built-in spec for a dataset name. Hyphens are
// optional: "food101" and "food-101" both match.
func Lookup(name string) (Spec, bool) {
	squash := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(s), "-", "")
	}
	for _, sp := range Known {
		if squash(sp.Name) == squash(name) {
			return sp, true
		}
	}
	return Spec{}, false
}

// Settings configures a single preparation run.
type Settings struct {
	// OutputDir is the target directory. Empty means Spec.DefaultOut.
	OutputDir string

	// Force removes a pre-existing output directory before preparing.
	// Without it, an existing output makes the run a clean no-op.
	Force bool

	// Ref overrides the spec's dataset reference.
	Ref string

	// MaxDepth bounds the layout search below each candidate root.
	// If <= 0, defaults to 3.
	MaxDepth int
}

// Result summarizes a preparation run.
type Result struct {
	OutputDir    string `json:"outputDir"`
	PrimaryDir   string `json:"primaryDir,omitempty"`
	SecondaryDir string `json:"secondaryDir,omitempty"`

	// ClassCount is the number of immediate subdirectories of the
	// primary output directory. Informational only; zero is valid.
	ClassCount int `json:"classCount"`

	// Skipped is true when the output already existed and Force was
	// not set; nothing was written.
	Skipped bool `json:"skipped,omitempty"`
}

// ProgressEvent reports a step of the preparation pipeline.
//
// The Event field is one of:
//   - "download_start": the dataset bundle fetch has begun
//   - "cache_ready": the download cache path is known
//   - "force_remove": an existing output directory is being removed
//   - "skip": output exists and Force is off; nothing will be written
//   - "search": the layout search over candidate roots has begun
//   - "found": the content pair was located
//   - "extract": an archive is being expanded
//   - "copy": a directory tree is being copied into the output
//   - "already_at": a resolved directory already sits at its target
//   - "verify": final layout summary
//   - "done": the run finished
type ProgressEvent struct {
	Time    time.Time `json:"time"`
	Event   string    `json:"event"`
	Dataset string    `json:"dataset,omitempty"`
	Ref     string    `json:"ref,omitempty"`
	Path    string    `json:"path,omitempty"`
	Classes int       `json:"classes,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ProgressFunc receives progress events. Callbacks are invoked from the
// preparing goroutine only.
type ProgressFunc func(ProgressEvent)

// Downloader fetches a named dataset and returns an opaque local cache
// path holding its files. Implemented by kaggle.Client.
type Downloader interface {
	DatasetDownload(ctx context.Context, ref string) (string, error)
}

// DefaultSettings returns Settings with defaults filled in.
func DefaultSettings() Settings {
	return Settings{MaxDepth: 3}
}
