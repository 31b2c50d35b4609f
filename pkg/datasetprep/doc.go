// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

/*
Package datasetprep fetches named image datasets and normalizes their
on-disk layout into a canonical target directory.

Hosting-service mirrors of the same dataset disagree about structure:
the content may sit directly in the download cache, one or two levels
of nesting down, or inside archives (a single combined archive, or one
archive per content directory). This package locates the two expected
sibling directories (the "content pair", e.g. images/ and meta/ for
Food-101), extracting archives as needed, and copies them to the top
level of the output path.

# Quick start

	creds, err := kaggle.LoadCredentials()
	if err != nil {
		log.Fatal(err)
	}
	client := kaggle.NewClient(kaggle.Settings{Credentials: creds})

	res, err := datasetprep.Prepare(ctx, client, datasetprep.Food101,
		datasetprep.Settings{OutputDir: "/datasets/food-101"}, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.OutputDir, res.ClassCount)

Datasets without a content pair (Food11, Nutrition5k) are mirrored from
the cache as-is.

# Layout search

FindContentPair walks each candidate root breadth-first with an
explicit work queue and a visited set keyed on symlink-resolved paths,
so shallow matches win and cyclic symlinks terminate. Unreadable
subtrees are skipped silently; every other failure mode is fatal and
mapped to a distinct error (ErrNoCachePath, ErrLayoutNotFound,
ErrDestinationPopulated).
*/
package datasetprep
