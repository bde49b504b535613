package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	batchLanguage string
	batchJSON     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <folder>",
	Short: "Recognize every image in a folder",
	Long: `Run tesseract on every file directly inside folder whose name ends with
one of batch.extensions (default .png and .jpg), writing <name>.txt next to
each image. A failing file does not stop the run; the command exits non-zero
when any file failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		lang, err := a.language(batchLanguage)
		if err != nil {
			return err
		}

		progress := func(done, total int, input string, err error) {
			status := "ok"
			if err != nil {
				status = err.Error()
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s: %s\n", done, total, filepath.Base(input), status)
		}

		report, err := a.runner.Run(cmd.Context(), args[0], lang, progress)
		if err != nil {
			return err
		}

		if batchJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
		}

		if report.Canceled {
			return fmt.Errorf("batch canceled")
		}
		if len(report.Failed) > 0 {
			return fmt.Errorf("%d of %d files failed", len(report.Failed), report.Matched)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchLanguage, "language", "l", "", "tesseract language code (default: default_language)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print the report as JSON")
}
