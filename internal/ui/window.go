package ui

import (
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/ironsheep/ocrdesk/internal/config"
	"github.com/ironsheep/ocrdesk/internal/controller"
)

// Title is the main window title.
const Title = "ocrdesk - Tesseract OCR"

// OpenExtensions filters the Open Image dialog.
var OpenExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Window is the main application window. It implements controller.View.
type Window struct {
	app    fyne.App
	win    fyne.Window
	logger *slog.Logger

	surface  *ImageSurface
	text     *widget.Label
	status   *widget.Label
	mainMenu *fyne.MainMenu
	langMenu *fyne.Menu

	ctrl *controller.Controller
}

var _ controller.View = (*Window)(nil)

// NewWindow builds the main window for cfg. Recognitions go through
// recognizer and folder runs through runner.
func NewWindow(app fyne.App, cfg *config.Config, recognizer controller.Recognizer, runner controller.BatchRunner, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Window{
		app:    app,
		win:    app.NewWindow(Title),
		logger: logger,
	}

	w.surface = NewImageSurface(outlineColor(cfg, logger), cfg.Selection.OutlineWidth)
	w.text = widget.NewLabel("")
	w.text.Wrapping = fyne.TextWrapWord
	w.status = widget.NewLabel("Drop an image or use File > Open Image")
	w.status.Truncation = fyne.TextTruncateEllipsis

	w.ctrl = controller.New(w, recognizer, runner, controller.Options{
		Languages:       cfg.Languages,
		DefaultLanguage: cfg.DefaultLanguage,
		Logger:          logger,
	})

	w.surface.OnImageDropped = w.open
	w.surface.OnRegionSelected = w.ctrl.RegionSelected

	split := container.NewHSplit(w.surface, container.NewVScroll(w.text))
	split.Offset = 0.5
	w.win.SetContent(container.NewBorder(nil, w.status, nil, nil, split))

	w.mainMenu = w.buildMenu()
	w.win.SetMainMenu(w.mainMenu)
	w.ShowLanguages(w.ctrl.Languages(), w.ctrl.Language())

	w.win.Resize(fyne.NewSize(cfg.Window.Width, cfg.Window.Height))
	w.win.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		w.surface.Drop(uris)
	})
	w.win.SetOnClosed(w.ctrl.Close)
	return w
}

func outlineColor(cfg *config.Config, logger *slog.Logger) color.Color {
	c, err := ParseColor(cfg.Selection.OutlineColor)
	if err != nil {
		logger.Warn("using default selection colour", "error", err)
		return DefaultOutlineColor
	}
	return c
}

func (w *Window) buildMenu() *fyne.MainMenu {
	file := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", w.showOpenDialog),
		fyne.NewMenuItem("Batch Folder...", w.showBatchDialog),
		fyne.NewMenuItem("Cancel Batch", w.ctrl.CancelBatch),
	)
	edit := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Copy Text", w.copyText),
	)
	w.langMenu = fyne.NewMenu("Language")
	return fyne.NewMainMenu(file, edit, w.langMenu)
}

func (w *Window) showOpenDialog() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w.win)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		w.open(path)
	}, w.win)
	fd.SetFilter(storage.NewExtensionFileFilter(OpenExtensions))
	fd.Show()
}

func (w *Window) showBatchDialog() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, w.win)
			return
		}
		if uri == nil {
			return
		}
		w.batch(uri.Path())
	}, w.win)
}

func (w *Window) open(path string) {
	if err := w.ctrl.LoadImage(path); err != nil {
		w.logger.Debug("load rejected", "path", path, "error", err)
	}
}

func (w *Window) batch(folder string) {
	if err := w.ctrl.BatchFolder(folder); err != nil {
		w.ShowStatus(err.Error())
	}
}

func (w *Window) copyText() {
	w.win.Clipboard().SetContent(w.text.Text)
}

// ShowImage implements controller.View.
func (w *Window) ShowImage(data []byte) error {
	return w.surface.LoadPixelData(data)
}

// ShowText implements controller.View.
func (w *Window) ShowText(text string) {
	w.text.SetText(text)
}

// ShowStatus implements controller.View.
func (w *Window) ShowStatus(status string) {
	w.status.SetText(status)
}

// ShowLanguages rebuilds the Language menu with current checked.
func (w *Window) ShowLanguages(langs []config.Language, current string) {
	items := make([]*fyne.MenuItem, 0, len(langs))
	for _, l := range langs {
		code := l.Code
		label := l.Label
		if label == "" {
			label = code
		}
		item := fyne.NewMenuItem(label, func() {
			if err := w.ctrl.SetLanguage(code); err != nil {
				w.ShowStatus(err.Error())
			}
		})
		item.Checked = code == current
		items = append(items, item)
	}
	w.langMenu.Items = items
	w.mainMenu.Refresh()
}

// Do implements controller.View.
func (w *Window) Do(fn func()) {
	fyne.Do(fn)
}

// ApplyConfig updates the window after a configuration reload. It may be
// called from any goroutine.
func (w *Window) ApplyConfig(cfg *config.Config) {
	c := outlineColor(cfg, w.logger)
	fyne.Do(func() {
		w.surface.SetOutline(c, cfg.Selection.OutlineWidth)
	})
	w.ctrl.SetLanguages(cfg.Languages, cfg.DefaultLanguage)
}

// Controller returns the window's controller.
func (w *Window) Controller() *controller.Controller {
	return w.ctrl
}

// Surface returns the image surface.
func (w *Window) Surface() *ImageSurface {
	return w.surface
}

// Open loads path as if it had been dropped on the window.
func (w *Window) Open(path string) {
	w.open(path)
}

// ShowAndRun shows the window and runs the application event loop.
func (w *Window) ShowAndRun() {
	w.win.SetMaster()
	w.win.ShowAndRun()
}
