package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/ocrdesk/internal/config"
	"github.com/ironsheep/ocrdesk/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Serve the OCR tools over the Model Context Protocol.

Requests are read from stdin as JSON-RPC 2.0, one per line, and responses are
written to stdout. Configure it in an MCP client as:

  {"command": "ocrdesk", "args": ["serve"]}

Tools: image_load, ocr_languages, ocr_set_language, ocr_image, ocr_region,
ocr_batch.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		cfg := a.config.Get()

		srv, err := server.New(a.dispatcher, a.runner, server.Options{
			Languages:       cfg.Languages,
			DefaultLanguage: cfg.DefaultLanguage,
			Version:         Version,
			Logger:          a.logger,
		})
		if err != nil {
			return err
		}
		a.watch(func(cfg *config.Config) {
			srv.SetLanguages(cfg.Languages, cfg.DefaultLanguage)
		})

		a.logger.Info("MCP server starting", "version", Version, "commit", GitCommit)
		return srv.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}
