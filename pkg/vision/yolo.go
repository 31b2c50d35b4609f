// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package vision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// ErrToolkitMissing is returned when the yolo command is not on PATH.
var ErrToolkitMissing = errors.New("yolo command not found: install the ultralytics toolkit (pip install ultralytics)")

// DetectOptions configures a one-shot inference run.
type DetectOptions struct {
	// Model is the weights file or name (e.g. "yolo11n.pt").
	Model string

	// Source is the input image path.
	Source string

	// ResultsDir is where annotated output is saved. Defaults to
	// "results".
	ResultsDir string

	// Bin overrides the toolkit binary name. Defaults to "yolo".
	Bin string
}

// TrainProfile selects a set of augmentation defaults.
type TrainProfile string

const (
	// ProfileCharacter uses gentle augmentations suitable for glyph
	// detection, where flips and color shifts destroy the label.
	ProfileCharacter TrainProfile = "character"

	// ProfileLicensePlates uses stronger augmentations for plates
	// photographed in the wild.
	ProfileLicensePlates TrainProfile = "license_plates"
)

// TrainOptions configures a training run.
type TrainOptions struct {
	Data    string // path to data.yaml; empty means profile default
	Weights string // e.g. "yolo11m.pt"
	Profile TrainProfile

	ImageSize int
	Epochs    int
	Batch     int
	Name      string
	Device    string
	Resume    bool

	// Augmentations overrides individual profile defaults, keyed by
	// toolkit argument name (e.g. "mosaic", "hsv_h").
	Augmentations map[string]float64

	Bin string
}

// profileAugmentations returns the augmentation defaults for a profile.
func profileAugmentations(p TrainProfile) map[string]float64 {
	if p == ProfileCharacter {
		return map[string]float64{
			"hsv_h": 0, "hsv_s": 0, "hsv_v": 0,
			"degrees": 1.0, "translate": 0.0, "scale": 0.1, "shear": 0.0, "perspective": 0.001,
			"flipud": 0.0, "fliplr": 0.0, "mosaic": 0.0, "mixup": 0.0,
		}
	}
	return map[string]float64{
		"hsv_h": 0.015, "hsv_s": 0.7, "hsv_v": 0.6,
		"degrees": 10.0, "translate": 0.1, "scale": 0.3, "shear": 3.0, "perspective": 0.002,
		"flipud": 0.0, "fliplr": 0.5, "mosaic": 0.5, "mixup": 0.1,
	}
}

func lookupBin(bin string) (string, error) {
	if bin == "" {
		bin = "yolo"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", ErrToolkitMissing
	}
	return path, nil
}

// Detect runs the toolkit on one image and returns the directory the
// annotated result was saved to.
func Detect(ctx context.Context, opts DetectOptions) (string, error) {
	bin, err := lookupBin(opts.Bin)
	if err != nil {
		return "", err
	}
	if opts.Model == "" {
		opts.Model = "yolo11n.pt"
	}
	if opts.ResultsDir == "" {
		opts.ResultsDir = "results"
	}
	if err := os.MkdirAll(opts.ResultsDir, 0o755); err != nil {
		return "", err
	}

	name := "results_" + trimExt(filepath.Base(opts.Source))
	args := []string{
		"predict",
		"model=" + opts.Model,
		"source=" + opts.Source,
		"project=" + opts.ResultsDir,
		"name=" + name,
		"save=True",
		"exist_ok=True",
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yolo predict: %w", err)
	}
	return filepath.Join(opts.ResultsDir, name), nil
}

// TrainArgs builds the full toolkit argument list for a training run,
// merging profile augmentation defaults with explicit overrides.
// Exposed for inspection; Train executes them.
func TrainArgs(opts TrainOptions) []string {
	if opts.Weights == "" {
		opts.Weights = "yolo11m.pt"
	}
	if opts.Profile == "" {
		opts.Profile = ProfileCharacter
	}
	if opts.Data == "" {
		if opts.Profile == ProfileLicensePlates {
			opts.Data = "all_datasets/dataset_1_licenseplates/data.yaml"
		} else {
			opts.Data = "all_datasets/dataset_2_characters/data.yaml"
		}
	}
	if opts.ImageSize <= 0 {
		opts.ImageSize = 640
	}
	if opts.Epochs <= 0 {
		opts.Epochs = 100
	}
	if opts.Batch <= 0 {
		opts.Batch = 16
	}
	if opts.Name == "" {
		opts.Name = "run_yolo11"
	}
	if opts.Device == "" {
		opts.Device = "0"
	}

	args := []string{
		"detect", "train",
		"model=" + opts.Weights,
		"data=" + opts.Data,
		fmt.Sprintf("imgsz=%d", opts.ImageSize),
		fmt.Sprintf("epochs=%d", opts.Epochs),
		fmt.Sprintf("batch=%d", opts.Batch),
		"name=" + opts.Name,
		"device=" + opts.Device,
		"resume=" + pyBool(opts.Resume),
		"save=True",
		"plots=True",
		"lr0=0.001",
	}

	aug := profileAugmentations(opts.Profile)
	for k, v := range opts.Augmentations {
		aug[k] = v
	}
	keys := make([]string, 0, len(aug))
	for k := range aug {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%g", k, aug[k]))
	}
	return args
}

// Train runs a toolkit training session. Training mechanics (schedules,
// checkpoints, metrics) are entirely the toolkit's business.
func Train(ctx context.Context, opts TrainOptions) error {
	bin, err := lookupBin(opts.Bin)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, bin, TrainArgs(opts)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yolo train: %w", err)
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
