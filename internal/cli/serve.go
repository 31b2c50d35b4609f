// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/foodvision/datasetprep/internal/server"
)

func newServeCmd(ro *RootOpts) *cobra.Command {
	var (
		addr        string
		port        int
		datasetsDir string
		cacheDir    string
		endpoint    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an HTTP server for remote dataset preparation",
		Long: `Start an HTTP server that provides:
  - REST API for starting and inspecting preparation jobs
  - WebSocket for live job updates

Output paths are configured server-side only (not via the API).

Example:
  datasetprep serve
  datasetprep serve --port 3000 --datasets-dir /datasets`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.Config{
				Addr:        addr,
				Port:        port,
				DatasetsDir: datasetsDir,
				CacheDir:    cacheDir,
				Endpoint:    endpoint,
			}

			srv := server.New(cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "0.0.0.0", "Address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVar(&datasetsDir, "datasets-dir", "./Datasets", "Root directory for prepared datasets")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Download cache directory")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Kaggle API base URL")

	return cmd
}
