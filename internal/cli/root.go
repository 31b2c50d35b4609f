// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/foodvision/datasetprep/pkg/datasetprep"
	"github.com/foodvision/datasetprep/pkg/kaggle"
	"github.com/foodvision/datasetprep/pkg/vision"
)

// RootOpts holds global CLI options.
type RootOpts struct {
	JSONOut bool
	Quiet   bool
	Config  string
}

// Exit codes, matching the scripts this tool replaces:
// 0 success or no-op skip, 1 missing download capability (or any other
// fatal error), 2 no usable cache path from the downloader, 3 layout
// unresolved after extraction.
const (
	exitOK             = 0
	exitEnvironment    = 1
	exitNoCachePath    = 2
	exitLayoutNotFound = 3
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, datasetprep.ErrLayoutNotFound):
		return exitLayoutNotFound
	case errors.Is(err, datasetprep.ErrNoCachePath):
		return exitNoCachePath
	case errors.Is(err, kaggle.ErrMissingCredentials), errors.Is(err, vision.ErrToolkitMissing):
		return exitEnvironment
	default:
		return exitEnvironment
	}
}

// Execute runs the CLI with the given version string.
func Execute(version string) error {
	ro := &RootOpts{}
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	root := &cobra.Command{
		Use:           "datasetprep",
		Short:         "Fetch image datasets from Kaggle and normalize their layout",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	root.PersistentFlags().BoolVar(&ro.JSONOut, "json", false, "Emit machine-readable JSON events")
	root.PersistentFlags().BoolVarP(&ro.Quiet, "quiet", "q", false, "Quiet mode (minimal output)")
	root.PersistentFlags().StringVar(&ro.Config, "config", "", "Path to config file (JSON or YAML)")

	fetchCmd := newFetchCmd(ctx, ro)
	root.AddCommand(fetchCmd)
	root.AddCommand(newDetectCmd(ctx, ro))
	root.AddCommand(newTrainCmd(ctx))
	root.AddCommand(newServeCmd(ro))
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd(version))

	// Make fetch the default command when no subcommand is given
	root.RunE = fetchCmd.RunE
	root.SetHelpCommand(&cobra.Command{Use: "help", Hidden: true})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
