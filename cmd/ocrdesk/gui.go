package main

import (
	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"github.com/ironsheep/ocrdesk/internal/ui"
)

// AppID identifies the application to Fyne's preferences and storage.
const AppID = "com.ironsheep.ocrdesk"

var guiCmd = &cobra.Command{
	Use:   "gui [image]",
	Short: "Open the desktop window",
	Long: `Open the desktop window, optionally loading an image straight away.

Drop an image on the window or use File > Open Image. The whole image is
recognized on load; drag a rectangle to recognize just that region. The
Language menu selects the tesseract language for later recognitions and
File > Batch Folder processes every image in a folder.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGUI,
}

func runGUI(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	cfg := a.config.Get()

	fa := fyneapp.NewWithID(AppID)
	win := ui.NewWindow(fa, cfg, a.dispatcher, a.runner, a.logger)
	a.watch(win.ApplyConfig)

	if len(args) == 1 {
		win.Open(args[0])
	}

	go func() {
		<-cmd.Context().Done()
		fyne.Do(fa.Quit)
	}()

	a.logger.Info("window opened", "language", win.Controller().Language())
	win.ShowAndRun()
	return nil
}
