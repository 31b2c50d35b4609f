// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foodvision/datasetprep/pkg/vision"
)

func newDetectCmd(ctx context.Context, ro *RootOpts) *cobra.Command {
	var (
		model   string
		results string
		url     string
	)

	cmd := &cobra.Command{
		Use:   "detect IMAGE",
		Short: "Run the detection toolkit on one image",
		Long: `Run the external yolo toolkit on a single image and save the
annotated result under the results directory.

When the image does not exist locally and --url is given, it is
downloaded first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := vision.EnsureImage(ctx, args[0], url)
			if err != nil {
				return err
			}

			out, err := vision.Detect(ctx, vision.DetectOptions{
				Model:      model,
				Source:     src,
				ResultsDir: results,
			})
			if err != nil {
				return err
			}
			if !ro.Quiet {
				fmt.Println("saved:", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "yolo11n.pt", "Weights file or model name")
	cmd.Flags().StringVar(&results, "results-dir", "results", "Directory for annotated output")
	cmd.Flags().StringVar(&url, "url", "", "Download the image from this URL if missing locally")

	return cmd
}
