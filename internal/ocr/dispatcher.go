package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/ocrdesk/internal/imaging"
)

// Status classifies a recognition outcome.
type Status string

const (
	StatusOK            Status = "ok"
	StatusDecodeFailed  Status = "decode_failed"
	StatusProcessFailed Status = "process_failed"
	StatusCanceled      Status = "canceled"
)

// Request describes one recognition.
type Request struct {
	// ImagePath is the original image file.
	ImagePath string

	// Region, when non-nil, restricts recognition to this rectangle in source
	// pixel coordinates.
	Region *image.Rectangle

	// Language is the Tesseract language code, e.g. "eng".
	Language string
}

// Outcome is the typed result of a recognition.
type Outcome struct {
	Status   Status        `json:"status"`
	Text     string        `json:"text"`
	Language string        `json:"language"`
	Region   *RegionBounds `json:"region,omitempty"`
	ExitCode int           `json:"exit_code"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Message  string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	// Err is the underlying error for anything but StatusOK.
	Err error `json:"-"`
}

// RegionBounds is the source-space rectangle that was recognized.
type RegionBounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// OK reports whether the recognition succeeded.
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// Options tune a Dispatcher.
type Options struct {
	// TempDir receives crop files; empty means the OS temp directory.
	TempDir string

	// KeepCrops leaves crop files on disk after recognition.
	KeepCrops bool

	// Grayscale converts crops to gray before recognition.
	Grayscale bool

	Logger *slog.Logger
}

// Dispatcher runs recognitions against an Engine. It is safe for concurrent
// use; the engine and options may be swapped while recognitions are running.
type Dispatcher struct {
	mu     sync.RWMutex
	engine Engine
	opts   Options
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher for engine.
func NewDispatcher(engine Engine, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		engine: engine,
		opts:   opts,
		logger: logger,
	}
}

// SetEngine replaces the engine used by subsequent recognitions.
func (d *Dispatcher) SetEngine(engine Engine) {
	d.mu.Lock()
	d.engine = engine
	d.mu.Unlock()
}

// SetOptions replaces the crop options used by subsequent recognitions.
func (d *Dispatcher) SetOptions(opts Options) {
	d.mu.Lock()
	opts.Logger = d.opts.Logger
	d.opts = opts
	d.mu.Unlock()
}

// Engine returns the current engine.
func (d *Dispatcher) Engine() Engine {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine
}

func (d *Dispatcher) snapshot() (Engine, Options) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine, d.opts
}

// Recognize runs one recognition and blocks until it finishes, times out or
// ctx is cancelled.
func (d *Dispatcher) Recognize(ctx context.Context, req Request) Outcome {
	start := time.Now()
	engine, opts := d.snapshot()

	out := Outcome{Language: req.Language}
	input := req.ImagePath

	if req.Region != nil {
		r := *req.Region
		cropPath, bounds, err := prepareCrop(req.ImagePath, r, opts)
		if err != nil {
			out = failed(out, StatusDecodeFailed, err)
			out.Duration = time.Since(start)
			d.logger.Warn("region crop failed", "path", req.ImagePath, "region", r, "error", err)
			return out
		}
		if !opts.KeepCrops {
			defer func() {
				if err := os.Remove(cropPath); err != nil && !errors.Is(err, os.ErrNotExist) {
					d.logger.Warn("failed to remove crop", "path", cropPath, "error", err)
				}
			}()
		}
		input = cropPath
		out.Region = &RegionBounds{X1: bounds.Min.X, Y1: bounds.Min.Y, X2: bounds.Max.X, Y2: bounds.Max.Y}
	} else if _, err := os.Stat(req.ImagePath); err != nil {
		out = failed(out, StatusDecodeFailed, fmt.Errorf("failed to open image: %w", err))
		out.Duration = time.Since(start)
		return out
	}

	d.logger.Debug("running OCR", "input", input, "language", req.Language)
	text, err := engine.Recognize(ctx, input, req.Language)
	out.Text = text
	out.Duration = time.Since(start)

	switch {
	case err == nil:
		out.Status = StatusOK
	case ctx.Err() != nil:
		out = failed(out, StatusCanceled, err)
	default:
		out = failed(out, StatusProcessFailed, err)
		var perr *ProcessError
		if errors.As(err, &perr) {
			out.ExitCode = perr.ExitCode
			out.TimedOut = perr.TimedOut
			out.Stderr = perr.Stderr
		} else {
			out.ExitCode = -1
		}
		d.logger.Warn("OCR failed", "input", input, "language", req.Language, "error", err)
	}
	return out
}

func failed(out Outcome, status Status, err error) Outcome {
	out.Status = status
	out.Err = err
	out.Message = err.Error()
	return out
}

// prepareCrop decodes the original file, crops it and writes the crop to a
// unique temporary file.
func prepareCrop(path string, region image.Rectangle, opts Options) (string, image.Rectangle, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", image.Rectangle{}, err
	}
	bounds := region.Canon().Intersect(img.Bounds())

	cropped, err := imaging.Crop(img, region)
	if err != nil {
		return "", image.Rectangle{}, err
	}
	var toSave image.Image = cropped
	if opts.Grayscale {
		toSave = imaging.Grayscale(cropped)
	}

	cropPath, err := imaging.SaveCrop(toSave, opts.TempDir)
	if err != nil {
		return "", image.Rectangle{}, err
	}
	return cropPath, bounds, nil
}

// Task is an asynchronous recognition started by Submit.
type Task struct {
	ID      string
	Request Request

	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// Submit starts req on a new goroutine. onDone, if non-nil, is called from
// that goroutine with the outcome; callers that update a UI must marshal it
// onto their UI thread.
func (d *Dispatcher) Submit(ctx context.Context, req Request, onDone func(*Task, Outcome)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		ID:      uuid.NewString(),
		Request: req,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer cancel()
		t.outcome = d.Recognize(ctx, req)
		close(t.done)
		if onDone != nil {
			onDone(t, t.outcome)
		}
	}()
	return t
}

// Cancel drops interest in the task and terminates its child process.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its outcome.
func (t *Task) Wait() Outcome {
	<-t.done
	return t.outcome
}
