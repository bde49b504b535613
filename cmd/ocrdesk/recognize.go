package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ocrdesk/internal/ocr"
)

var (
	recognizeRegion   string
	recognizeLanguage string
	recognizeJSON     bool
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Print the text tesseract finds in an image",
	Long: `Run tesseract on an image and print the recognized text to stdout.

With --region only that rectangle of the original image is recognized.

Examples:
  ocrdesk recognize scan.png
  ocrdesk recognize scan.png --region 10,10,100,50 --language deu
  ocrdesk recognize scan.png --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		lang, err := a.language(recognizeLanguage)
		if err != nil {
			return err
		}

		req := ocr.Request{ImagePath: args[0], Language: lang}
		if recognizeRegion != "" {
			rect, err := parseRegion(recognizeRegion)
			if err != nil {
				return err
			}
			r := rect.Rectangle()
			req.Region = &r
		}

		out := a.dispatcher.Recognize(cmd.Context(), req)

		if recognizeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
		} else {
			fmt.Fprint(cmd.OutOrStdout(), out.Text)
		}

		if !out.OK() {
			return fmt.Errorf("%s: %s", out.Status, out.Message)
		}
		return nil
	},
}

func init() {
	recognizeCmd.Flags().StringVarP(&recognizeRegion, "region", "r", "", "rectangle to recognize as x,y,width,height in image pixels")
	recognizeCmd.Flags().StringVarP(&recognizeLanguage, "language", "l", "", "tesseract language code (default: default_language)")
	recognizeCmd.Flags().BoolVar(&recognizeJSON, "json", false, "print the full outcome as JSON")
}
