//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// LibraryAvailable reports whether this build links libtesseract.
const LibraryAvailable = true

// LibraryEngine runs Tesseract in-process through gosseract.
type LibraryEngine struct {
	tessdataPrefix string
}

// NewLibraryEngine returns an in-process engine. tessdataPrefix may be empty
// to use Tesseract's compiled-in data path.
func NewLibraryEngine(tessdataPrefix string) (*LibraryEngine, error) {
	return &LibraryEngine{tessdataPrefix: tessdataPrefix}, nil
}

// Recognize returns the text recognized in imagePath.
//
// libtesseract cannot be interrupted, so ctx is only checked before starting.
func (e *LibraryEngine) Recognize(ctx context.Context, imagePath, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", &ProcessError{ExitCode: -1, Err: fmt.Errorf("OCR failed: %w", err)}
	}
	return text, nil
}

// RecognizeToFile writes the recognized text to <outputBase>.txt.
func (e *LibraryEngine) RecognizeToFile(ctx context.Context, imagePath, outputBase, language string) error {
	text, err := e.Recognize(ctx, imagePath, language)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputBase+".txt", []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s.txt: %w", outputBase, err)
	}
	return nil
}
