// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/foodvision/datasetprep/pkg/datasetprep"
	"github.com/foodvision/datasetprep/pkg/kaggle"
)

func newFetchCmd(ctx context.Context, ro *RootOpts) *cobra.Command {
	cfg := datasetprep.DefaultSettings()
	var cacheDir string
	var endpoint string
	var retries int

	cmd := &cobra.Command{
		Use:   "fetch DATASET",
		Short: "Download a dataset and normalize it into the output folder",
		Long: `Download a named dataset from Kaggle and place it under the output
folder in its canonical layout.

Known datasets:
  food-101     images/ + meta/ content pair, normalized
  food-11      copied from the download cache as-is
  nutrition5k  copied from the download cache as-is

If the output folder already exists the run is a clean no-op unless
--force is given.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return applyConfigDefaults(cmd, ro, &cfg, &cacheDir, &endpoint, &retries)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("missing DATASET (one of: %s)", knownDatasetNames())
			}
			spec, ok := datasetprep.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown dataset %q (one of: %s)", args[0], knownDatasetNames())
			}

			if cfg.Ref != "" && !kaggle.IsValidRef(cfg.Ref) {
				return fmt.Errorf("invalid ref %q (expected owner/slug)", cfg.Ref)
			}

			creds, err := kaggle.LoadCredentials()
			if err != nil {
				return err
			}

			render := newRenderer(ro)
			defer render.Close()

			client := kaggle.NewClient(kaggle.Settings{
				Endpoint:    endpoint,
				CacheDir:    cacheDir,
				Credentials: creds,
				Retries:     retries,
				Progress:    render.DownloadProgress,
			})

			res, err := datasetprep.Prepare(ctx, client, spec, cfg, render.Event)
			if err != nil {
				return err
			}

			if res.Skipped {
				render.Summary(fmt.Sprintf("skipped: %s already exists (use --force to overwrite)", res.OutputDir))
				return nil
			}
			if res.PrimaryDir != "" {
				render.Summary(fmt.Sprintf("%s: %s (%d class folders)", spec.Pair.Primary, res.PrimaryDir, res.ClassCount))
				render.Summary(fmt.Sprintf("%s: %s", spec.Pair.Secondary, res.SecondaryDir))
			}
			render.Summary(color.GreenString("done: %s", res.OutputDir))
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.OutputDir, "out", "o", "", "Target directory (defaults vary by dataset)")
	cmd.Flags().BoolVarP(&cfg.Force, "force", "f", false, "Remove the target directory first if it exists")
	cmd.Flags().StringVar(&cfg.Ref, "ref", "", "Kaggle dataset reference (owner/slug), overrides the dataset default")
	cmd.Flags().IntVar(&cfg.MaxDepth, "depth", 3, "Maximum layout search depth below each candidate root")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Download cache directory (default ~/.cache/datasetprep)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Kaggle API base URL (for mirrors or testing)")
	cmd.Flags().IntVar(&retries, "retries", 4, "Max retry attempts per download request")

	return cmd
}

func knownDatasetNames() string {
	names := make([]string, 0, len(datasetprep.Known))
	for _, sp := range datasetprep.Known {
		names = append(names, sp.Name)
	}
	return strings.Join(names, ", ")
}
