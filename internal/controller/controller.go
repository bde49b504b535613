package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ironsheep/ocrdesk/internal/batch"
	"github.com/ironsheep/ocrdesk/internal/config"
	"github.com/ironsheep/ocrdesk/internal/ocr"
	"github.com/ironsheep/ocrdesk/internal/selection"
)

// State is the controller's image state.
type State int

const (
	NoImage State = iota
	ImageLoaded
)

func (s State) String() string {
	switch s {
	case NoImage:
		return "no-image"
	case ImageLoaded:
		return "image-loaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrUnknownLanguage is returned by SetLanguage for codes that are not
	// configured.
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrBatchRunning is returned by BatchFolder while a batch is in progress.
	ErrBatchRunning = errors.New("a batch is already running")
)

// View renders controller output.
//
// Calls made while handling a user action run synchronously on the caller's
// goroutine, which is the UI thread in the GUI: ShowImage and ShowStatus from
// LoadImage, ShowStatus from RegionSelected, BatchFolder and the start of a
// recognition, and ShowLanguages from SetLanguage. Output of background work
// (recognition results, batch progress and summaries, language lists from
// SetLanguages) is always delivered inside Do.
type View interface {
	// ShowImage decodes and displays data, clearing any selection. It returns
	// an error and leaves the display unchanged when data cannot be decoded.
	ShowImage(data []byte) error

	// ShowText replaces the recognized text.
	ShowText(text string)

	// ShowStatus replaces the status line.
	ShowStatus(status string)

	// ShowLanguages refreshes the language menu.
	ShowLanguages(langs []config.Language, current string)

	// Do runs fn on the UI thread.
	Do(fn func())
}

// Recognizer starts asynchronous recognitions. *ocr.Dispatcher satisfies it.
type Recognizer interface {
	Submit(ctx context.Context, req ocr.Request, onDone func(*ocr.Task, ocr.Outcome)) *ocr.Task
}

// BatchRunner processes folders. *batch.Runner satisfies it.
type BatchRunner interface {
	Run(ctx context.Context, folder, language string, progress batch.Progress) (*batch.Report, error)
}

// Options configure a Controller.
type Options struct {
	Languages       []config.Language
	DefaultLanguage string
	Logger          *slog.Logger
}

// Controller is the main window's state machine.
type Controller struct {
	view       View
	recognizer Recognizer
	runner     BatchRunner
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       State
	path        string
	language    string
	languages   []config.Language
	task        *ocr.Task
	generation  uint64
	batchCancel context.CancelFunc
}

// New creates a controller in the NoImage state.
func New(view View, recognizer Recognizer, runner BatchRunner, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		view:       view,
		recognizer: recognizer,
		runner:     runner,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		state:      NoImage,
	}
	c.languages = append([]config.Language(nil), opts.Languages...)
	c.language = pickLanguage(c.languages, opts.DefaultLanguage, "")
	return c
}

// pickLanguage keeps current when it is still configured, else falls back
// to def, else to the first entry.
func pickLanguage(langs []config.Language, def, current string) string {
	has := func(code string) bool {
		for _, l := range langs {
			if l.Code == code {
				return true
			}
		}
		return false
	}
	switch {
	case current != "" && has(current):
		return current
	case has(def):
		return def
	case len(langs) > 0:
		return langs[0].Code
	default:
		return def
	}
}

// State returns the current image state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ImagePath returns the path of the loaded image, or "".
func (c *Controller) ImagePath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Language returns the selected language code.
func (c *Controller) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// Languages returns the configured languages in menu order.
func (c *Controller) Languages() []config.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]config.Language(nil), c.languages...)
}

// SetLanguage selects code for subsequent recognitions. Text already shown
// is not touched.
func (c *Controller) SetLanguage(code string) error {
	c.mu.Lock()
	found := false
	for _, l := range c.languages {
		if l.Code == code {
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	c.language = code
	langs := append([]config.Language(nil), c.languages...)
	c.mu.Unlock()

	c.logger.Debug("language selected", "language", code)
	c.view.ShowLanguages(langs, code)
	return nil
}

// SetLanguages replaces the language list, typically after a config reload.
// The selection survives when its code is still listed.
func (c *Controller) SetLanguages(langs []config.Language, def string) {
	c.mu.Lock()
	c.languages = append([]config.Language(nil), langs...)
	c.language = pickLanguage(c.languages, def, c.language)
	current := c.language
	copied := append([]config.Language(nil), c.languages...)
	c.mu.Unlock()

	c.view.Do(func() {
		c.view.ShowLanguages(copied, current)
	})
}

// LoadImage reads path, displays it and starts a whole-image recognition.
// On failure the previous image and state are kept and the error is shown as
// status.
func (c *Controller) LoadImage(path string) error {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		c.view.ShowStatus(fmt.Sprintf("Cannot open %s: %v", name, err))
		return fmt.Errorf("failed to read image: %w", err)
	}
	if err := c.view.ShowImage(data); err != nil {
		c.view.ShowStatus(fmt.Sprintf("Cannot decode %s", name))
		c.logger.Warn("image decode failed", "path", path, "error", err)
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	c.mu.Lock()
	c.path = path
	c.state = ImageLoaded
	lang := c.language
	c.mu.Unlock()

	c.logger.Info("image loaded", "path", path)
	c.recognize(ocr.Request{ImagePath: path, Language: lang})
	return nil
}

// RegionSelected starts a recognition of rect, given in the surface's
// display coordinates described by vp. It does nothing when no image is
// loaded.
func (c *Controller) RegionSelected(rect selection.Rect, vp selection.Viewport) {
	c.mu.Lock()
	state, path, lang := c.state, c.path, c.language
	c.mu.Unlock()

	if state != ImageLoaded {
		return
	}

	region, err := vp.ToSource(rect)
	if err != nil {
		c.view.ShowStatus("Selection is outside the image")
		return
	}
	c.logger.Debug("region selected", "display", rect.String(), "source", region)
	c.recognize(ocr.Request{ImagePath: path, Region: &region, Language: lang})
}

func (c *Controller) recognize(req ocr.Request) {
	c.mu.Lock()
	if c.task != nil {
		c.task.Cancel()
		c.task = nil
	}
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	c.view.ShowStatus(runningStatus(req))

	task := c.recognizer.Submit(c.ctx, req, func(t *ocr.Task, out ocr.Outcome) {
		c.view.Do(func() {
			c.deliver(gen, req, out)
		})
	})

	c.mu.Lock()
	if c.generation == gen {
		c.task = task
	} else {
		task.Cancel()
	}
	c.mu.Unlock()
}

func (c *Controller) deliver(gen uint64, req ocr.Request, out ocr.Outcome) {
	c.mu.Lock()
	current := gen == c.generation
	if current {
		c.task = nil
	}
	c.mu.Unlock()

	if !current {
		c.logger.Debug("dropping stale result", "path", req.ImagePath, "status", out.Status)
		return
	}

	switch out.Status {
	case ocr.StatusOK, ocr.StatusProcessFailed:
		c.view.ShowText(out.Text)
	}
	c.view.ShowStatus(outcomeStatus(req, out))
}

func runningStatus(req ocr.Request) string {
	name := filepath.Base(req.ImagePath)
	if req.Region != nil {
		r := req.Region
		return fmt.Sprintf("Recognizing %dx%d region of %s (%s)...", r.Dx(), r.Dy(), name, req.Language)
	}
	return fmt.Sprintf("Recognizing %s (%s)...", name, req.Language)
}

func outcomeStatus(req ocr.Request, out ocr.Outcome) string {
	name := filepath.Base(req.ImagePath)
	switch out.Status {
	case ocr.StatusOK:
		return fmt.Sprintf("Recognized %s (%s) in %s", name, out.Language, out.Duration.Round(time.Millisecond))
	case ocr.StatusDecodeFailed:
		return fmt.Sprintf("Cannot decode %s: %s", name, out.Message)
	case ocr.StatusCanceled:
		return "Recognition canceled"
	case ocr.StatusProcessFailed:
		if out.TimedOut {
			return fmt.Sprintf("OCR timed out on %s", name)
		}
		if out.ExitCode < 0 {
			return fmt.Sprintf("OCR could not run: %s", out.Message)
		}
		return fmt.Sprintf("OCR failed on %s (exit code %d)", name, out.ExitCode)
	default:
		return string(out.Status)
	}
}

// BatchFolder starts a batch run over folder with the selected language and
// returns immediately. Progress and the final summary are shown as status.
func (c *Controller) BatchFolder(folder string) error {
	c.mu.Lock()
	if c.batchCancel != nil {
		c.mu.Unlock()
		return ErrBatchRunning
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.batchCancel = cancel
	lang := c.language
	c.mu.Unlock()

	c.view.ShowStatus(fmt.Sprintf("Processing %s (%s)...", filepath.Base(folder), lang))
	c.logger.Info("batch started", "folder", folder, "language", lang)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		progress := func(done, total int, input string, err error) {
			msg := fmt.Sprintf("Batch %d/%d: %s", done, total, filepath.Base(input))
			if err != nil {
				msg += " failed"
			}
			c.view.Do(func() { c.view.ShowStatus(msg) })
		}

		report, err := c.runner.Run(ctx, folder, lang, progress)

		c.mu.Lock()
		c.batchCancel = nil
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn("batch failed", "folder", folder, "error", err)
			c.view.Do(func() { c.view.ShowStatus(fmt.Sprintf("Batch failed: %v", err)) })
			return
		}
		c.logger.Info("batch finished", "folder", folder, "written", len(report.Written), "failed", len(report.Failed))
		summary := report.Summary()
		c.view.Do(func() { c.view.ShowStatus(summary) })
	}()
	return nil
}

// CancelBatch stops a running batch before its next file.
func (c *Controller) CancelBatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.batchCancel != nil {
		c.batchCancel()
	}
}

// Close cancels all in-flight work. Results that arrive afterwards are
// dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.task != nil {
		c.task.Cancel()
		c.task = nil
	}
	c.generation++
	c.mu.Unlock()
	c.cancel()
}

// Wait blocks until background batch runs have returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}
