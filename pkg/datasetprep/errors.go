// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package datasetprep

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the library.
var (
	// ErrNoCachePath is returned when the download collaborator
	// reports success but yields no usable local path.
	ErrNoCachePath = errors.New("downloader returned no usable cache path")

	// ErrLayoutNotFound is returned when the content pair cannot be
	// located anywhere, even after extracting archives.
	ErrLayoutNotFound = errors.New("dataset layout not found")

	// ErrDestinationPopulated is returned when a copy target already
	// exists and is non-empty.
	ErrDestinationPopulated = errors.New("destination already populated")
)

// LayoutError carries the specifics of a failed layout search.
type LayoutError struct {
	Pair     ContentPair
	Searched []string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("could not locate %q and %q directories under: %s",
		e.Pair.Primary, e.Pair.Secondary, strings.Join(e.Searched, ", "))
}

func (e *LayoutError) Unwrap() error {
	return ErrLayoutNotFound
}
