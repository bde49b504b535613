// Package controller holds the main window's state and wires its events to
// the OCR dispatcher and the batch runner.
//
// The controller knows nothing about the GUI toolkit. A View renders images,
// text and status, and runs callbacks on the UI thread through View.Do.
// Controller methods are called from the UI thread; recognition and batch
// work run on their own goroutines and post their results back through Do,
// so the UI never waits on a child process.
//
// # State
//
// The controller starts in NoImage. A successful LoadImage moves it to
// ImageLoaded and starts a whole-image recognition; every later load or
// region selection starts a new recognition. Starting a recognition cancels
// the one in flight, and a result that arrives after a newer recognition has
// started is dropped.
//
// # Language
//
// The selected language is an explicit value owned by the controller and
// passed to every recognition and batch run. Changing it affects only
// recognitions started afterwards.
package controller
