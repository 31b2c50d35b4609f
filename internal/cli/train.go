// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foodvision/datasetprep/pkg/vision"
)

// augFlagNames lists the per-augmentation override flags, matching the
// toolkit's argument names.
var augFlagNames = []string{
	"hsv_h", "hsv_s", "hsv_v",
	"degrees", "translate", "scale", "shear", "perspective",
	"flipud", "fliplr", "mosaic", "mixup",
}

func newTrainCmd(ctx context.Context) *cobra.Command {
	opts := vision.TrainOptions{}
	var profile string
	augValues := make(map[string]*float64, len(augFlagNames))

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a detection model via the external toolkit",
		Long: `Launch a training run with the external yolo toolkit.

The --profile flag picks a set of augmentation defaults; any
augmentation flag set explicitly overrides its profile value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch profile {
			case string(vision.ProfileCharacter), string(vision.ProfileLicensePlates):
				opts.Profile = vision.TrainProfile(profile)
			default:
				return fmt.Errorf("unknown profile %q (character or license_plates)", profile)
			}

			opts.Augmentations = make(map[string]float64)
			for name, v := range augValues {
				if cmd.Flags().Changed(name) {
					opts.Augmentations[name] = *v
				}
			}

			return vision.Train(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "Path to data.yaml (profile default if omitted)")
	cmd.Flags().StringVar(&opts.Weights, "weights", "yolo11m.pt", "Weights: yolo11n/s/m/l/x.pt or a local .pt")
	cmd.Flags().StringVar(&profile, "profile", "character", "Augmentation profile: character or license_plates")
	cmd.Flags().IntVar(&opts.ImageSize, "imgsz", 640, "Training image size")
	cmd.Flags().IntVar(&opts.Epochs, "epochs", 100, "Number of epochs")
	cmd.Flags().IntVar(&opts.Batch, "batch", 16, "Batch size")
	cmd.Flags().StringVar(&opts.Name, "name", "run_yolo11", "Run name")
	cmd.Flags().StringVar(&opts.Device, "device", "0", `CUDA device like "0", "0,1", or "cpu"`)
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Resume the last training run")

	for _, name := range augFlagNames {
		v := new(float64)
		augValues[name] = v
		cmd.Flags().Float64Var(v, name, 0, "Override the "+name+" augmentation")
	}

	return cmd
}
