// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datasetprep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Prepare fetches the dataset named by spec via dl and materializes it
// at the configured output directory.
//
// For datasets with a content pair the pipeline is: download to cache,
// locate the pair under the candidate roots (extracting archives into
// the output when needed), then copy both directories to their
// canonical targets. Datasets without a pair are mirrored whole.
//
// A pre-existing output directory makes the run a no-op unless
// cfg.Force is set; the returned Result has Skipped=true and no
// filesystem mutation happens.
func Prepare(ctx context.Context, dl Downloader, spec Spec, cfg Settings, progress ProgressFunc) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ref := cfg.Ref
	if ref == "" {
		ref = spec.Ref
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}

	emit := func(ev ProgressEvent) {
		if progress == nil {
			return
		}
		if ev.Time.IsZero() {
			ev.Time = time.Now()
		}
		if ev.Dataset == "" {
			ev.Dataset = spec.Name
		}
		if ev.Ref == "" {
			ev.Ref = ref
		}
		progress(ev)
	}

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = spec.DefaultOut
	}
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return nil, err
	}

	emit(ProgressEvent{Event: "download_start", Message: "downloading " + ref})
	cachePath, err := dl.DatasetDownload(ctx, ref)
	if err != nil {
		return nil, err
	}
	if cachePath == "" {
		return nil, ErrNoCachePath
	}
	cacheDir := canonicalPath(cachePath)
	emit(ProgressEvent{Event: "cache_ready", Path: cacheDir})

	if pathExists(outDir) {
		if !cfg.Force {
			emit(ProgressEvent{Event: "skip", Path: outDir,
				Message: "output folder already exists; use force to overwrite"})
			return &Result{OutputDir: outDir, Skipped: true}, nil
		}
		emit(ProgressEvent{Event: "force_remove", Path: outDir})
		if err := os.RemoveAll(outDir); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	if spec.Pair.IsZero() {
		emit(ProgressEvent{Event: "copy", Path: outDir})
		if err := CopyTree(cacheDir, outDir); err != nil {
			return nil, err
		}
		emit(ProgressEvent{Event: "done", Path: outDir})
		return &Result{OutputDir: outDir}, nil
	}

	roots := CandidateRoots(cacheDir, spec.Name)
	emit(ProgressEvent{Event: "search", Message: fmt.Sprintf("searching %d candidate roots", len(roots))})

	primary, secondary, err := ResolveLayout(roots, spec.Name, spec.Pair, outDir, maxDepth, emit)
	if err != nil {
		return nil, err
	}
	emit(ProgressEvent{Event: "found", Path: filepath.Dir(primary)})

	res := &Result{
		OutputDir:    outDir,
		PrimaryDir:   filepath.Join(outDir, spec.Pair.Primary),
		SecondaryDir: filepath.Join(outDir, spec.Pair.Secondary),
	}

	for _, step := range []struct{ src, dst string }{
		{primary, res.PrimaryDir},
		{secondary, res.SecondaryDir},
	} {
		if SamePath(step.src, step.dst) {
			emit(ProgressEvent{Event: "already_at", Path: step.dst})
			continue
		}
		emit(ProgressEvent{Event: "copy", Path: step.dst})
		if err := CopyTree(step.src, step.dst); err != nil {
			return nil, err
		}
	}

	res.ClassCount = CountClassDirs(res.PrimaryDir)
	emit(ProgressEvent{Event: "verify", Path: res.PrimaryDir, Classes: res.ClassCount,
		Message: fmt.Sprintf("%d class folders", res.ClassCount)})
	emit(ProgressEvent{Event: "done", Path: outDir})
	return res, nil
}
