package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-easel/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var endpointsDir string
	var hintsDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development HTTP server for browsing endpoints and forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ctx.configValue()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			// Directory overrides land on the loaded config so the shared
			// catalog and generator helpers pick them up.
			if endpointsDir != "" {
				cfg.Paths.EndpointsDir = endpointsDir
			}
			if hintsDir != "" {
				cfg.Paths.HintsDir = hintsDir
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cat, err := ctx.openCatalog(signalCtx)
			if err != nil {
				return err
			}
			generator, err := ctx.generator()
			if err != nil {
				return err
			}
			store, err := ctx.settingsStore()
			if err != nil {
				return err
			}

			srv, err := server.New(server.Config{
				Addr:         cfg.Server.Addr,
				Catalog:      cat,
				Generator:    generator,
				Settings:     store,
				QueueBaseURL: cfg.API.BaseURL,
				Theme:        cfg.UI.Theme,
				Variant:      cfg.UI.Variant,
				Logger:       ctx.loggerValue(),
			})
			if err != nil {
				return err
			}
			return srv.Run(signalCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr from the config)")
	cmd.Flags().StringVar(&endpointsDir, "endpoints-dir", "", "Directory of endpoint descriptors to serve")
	cmd.Flags().StringVar(&hintsDir, "hints-dir", "", "Directory of widget hint documents")
	return cmd
}
