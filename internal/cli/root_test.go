// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/foodvision/datasetprep/pkg/datasetprep"
	"github.com/foodvision/datasetprep/pkg/kaggle"
	"github.com/foodvision/datasetprep/pkg/vision"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"layout not found", datasetprep.ErrLayoutNotFound, 3},
		{"wrapped layout error", &datasetprep.LayoutError{}, 3},
		{"no cache path", datasetprep.ErrNoCachePath, 2},
		{"wrapped no cache path", fmt.Errorf("prepare: %w", datasetprep.ErrNoCachePath), 2},
		{"missing credentials", kaggle.ErrMissingCredentials, 1},
		{"toolkit missing", vision.ErrToolkitMissing, 1},
		{"generic", errors.New("boom"), 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ExitCode(c.err); got != c.want {
				t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
			}
		})
	}
}
