package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ocrdesk [image]",
	Short: "Desktop OCR front end for tesseract",
	Long: `ocrdesk loads an image, lets you drag a rectangle over it and runs
tesseract on the whole image or the selected region. A folder can be
processed in one go, writing a .txt file next to every image.

Without a subcommand the desktop window is opened. The same engine is
available headlessly:
  - recognize  print the text of an image or region
  - batch      process a folder without a window
  - serve      expose the tools over MCP (JSON-RPC on stdio)

Logs go to stderr; stdout carries only results.`,
	Version:      Version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runGUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./ocrdesk.yaml or ~/.ocrdesk/ocrdesk.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides log_level)",
	)

	rootCmd.AddCommand(guiCmd)
	rootCmd.AddCommand(recognizeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
