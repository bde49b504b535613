// Package batch runs OCR over every image in a folder, writing the text for
// each image to a sibling .txt file.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ironsheep/ocrdesk/internal/ocr"
)

// DefaultExtensions are matched when Options.Extensions is empty.
var DefaultExtensions = []string{".png", ".jpg"}

// EngineSource supplies the engine for each run. *ocr.Dispatcher satisfies
// it, so a config reload that swaps the engine also reaches batch runs.
type EngineSource interface {
	Engine() ocr.Engine
}

// Options tune a Runner.
type Options struct {
	// Extensions are the accepted file name suffixes, including the dot.
	Extensions []string

	// CaseInsensitive matches extensions regardless of case.
	CaseInsensitive bool

	// Retries is the number of extra attempts for a failed file.
	Retries int

	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration

	Logger *slog.Logger
}

// FileError records a file that could not be processed.
type FileError struct {
	Input   string `json:"input"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

// Report summarizes a batch run.
type Report struct {
	Folder   string        `json:"folder"`
	Language string        `json:"language"`
	Matched  int           `json:"matched"`
	Written  []string      `json:"written"`
	Failed   []FileError   `json:"failed"`
	Canceled bool          `json:"canceled,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Summary returns a one-line human readable description of the report.
func (r *Report) Summary() string {
	s := fmt.Sprintf("Batch %s: %d of %d images processed", filepath.Base(r.Folder), len(r.Written), r.Matched)
	if len(r.Failed) > 0 {
		s += fmt.Sprintf(", %d failed", len(r.Failed))
	}
	if r.Canceled {
		s += " (canceled)"
	}
	return s
}

// Progress is called after each file with its 1-based position.
type Progress func(done, total int, input string, err error)

// Runner processes folders one file at a time.
type Runner struct {
	source EngineSource
	logger *slog.Logger

	mu   sync.RWMutex
	opts Options
}

// NewRunner creates a runner that takes its engine from source.
func NewRunner(source EngineSource, opts Options) *Runner {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{source: source, opts: opts, logger: logger}
}

// SetOptions replaces the options used by runs started afterwards. The
// logger given to NewRunner is kept.
func (r *Runner) SetOptions(opts Options) {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	r.mu.Lock()
	r.opts = opts
	r.mu.Unlock()
}

func (r *Runner) options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// Run recognizes every matching image directly inside folder. A failure on one
// file is recorded in the report and processing continues; only a folder that
// cannot be listed is returned as an error. Cancelling ctx stops before the
// next file.
func (r *Runner) Run(ctx context.Context, folder, language string, progress Progress) (*Report, error) {
	start := time.Now()
	opts := r.options()
	inputs, err := ListImages(folder, opts.Extensions, opts.CaseInsensitive)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Folder:   folder,
		Language: language,
		Matched:  len(inputs),
		Written:  []string{},
		Failed:   []FileError{},
	}
	engine := r.source.Engine()
	r.logger.Info("batch started", "folder", folder, "language", language, "files", len(inputs))

	for i, input := range inputs {
		if ctx.Err() != nil {
			report.Canceled = true
			break
		}

		base := OutputBase(input)
		err := runOne(ctx, engine, opts, input, base, language)
		if err != nil {
			if ctx.Err() != nil {
				report.Canceled = true
				break
			}
			r.logger.Warn("batch file failed", "input", input, "error", err)
			report.Failed = append(report.Failed, FileError{Input: input, Message: err.Error(), Err: err})
		} else {
			report.Written = append(report.Written, base+".txt")
		}
		if progress != nil {
			progress(i+1, len(inputs), input, err)
		}
	}

	report.Duration = time.Since(start)
	r.logger.Info("batch finished", "folder", folder, "written", len(report.Written), "failed", len(report.Failed))
	return report, nil
}

func runOne(ctx context.Context, engine ocr.Engine, opts Options, input, base, language string) error {
	return retry.Do(
		func() error {
			return engine.RecognizeToFile(ctx, input, base, language)
		},
		retry.Context(ctx),
		retry.Attempts(uint(opts.Retries+1)),
		retry.Delay(opts.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}),
	)
}

// ListImages returns the regular files directly inside folder whose names end
// with one of exts, in directory-listing order.
func ListImages(folder string, exts []string, caseInsensitive bool) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folder, err)
	}

	var out []string
	for _, entry := range entries {
		if !matchesExtension(entry.Name(), exts, caseInsensitive) {
			continue
		}
		path := filepath.Join(folder, entry.Name())
		if !isRegularFile(entry, path) {
			continue
		}
		out = append(out, path)
	}
	return out, nil
}

func matchesExtension(name string, exts []string, caseInsensitive bool) bool {
	for _, ext := range exts {
		if caseInsensitive {
			if strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
				return true
			}
		} else if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func isRegularFile(entry os.DirEntry, path string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}
	return false
}

// OutputBase strips the last extension from input; the engine appends .txt.
func OutputBase(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input))
}
