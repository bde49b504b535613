package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// StdoutTarget is the tesseract output argument meaning "write to stdout".
const StdoutTarget = "-"

// Engine kinds accepted by NewEngine.
const (
	EngineExec      = "exec"
	EngineGosseract = "gosseract"
)

// Engine runs a single OCR invocation.
type Engine interface {
	// Recognize returns the text recognized in imagePath.
	Recognize(ctx context.Context, imagePath, language string) (string, error)

	// RecognizeToFile writes the text recognized in imagePath to
	// <outputBase>.txt, replacing any existing file.
	RecognizeToFile(ctx context.Context, imagePath, outputBase, language string) error
}

// EngineConfig selects and configures an Engine.
type EngineConfig struct {
	Kind           string
	Command        string
	Timeout        time.Duration
	TessdataPrefix string
}

// NewEngine builds the engine described by cfg.
func NewEngine(cfg EngineConfig) (Engine, error) {
	switch cfg.Kind {
	case "", EngineExec:
		return NewExecEngine(cfg.Command, cfg.Timeout), nil
	case EngineGosseract:
		eng, err := NewLibraryEngine(cfg.TessdataPrefix)
		if err != nil {
			return nil, err
		}
		return eng, nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Kind)
	}
}

// Args builds the tesseract argument list for one invocation. Paths that
// start with "-" get a "./" prefix so tesseract reads them as files, not
// options. StdoutTarget is passed through unchanged.
func Args(input, output, language string) []string {
	if output != StdoutTarget {
		output = pathArg(output)
	}
	return []string{pathArg(input), output, "-l", language}
}

func pathArg(path string) string {
	if strings.HasPrefix(path, "-") {
		return "." + string(filepath.Separator) + path
	}
	return path
}
