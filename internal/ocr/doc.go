// Package ocr turns an image path, an optional region and a language code into
// recognized text by running Tesseract.
//
// # Engines
//
// The default ExecEngine shells out to the tesseract CLI:
//
//	tesseract <input> - -l <lang>            (text on stdout)
//	tesseract <input> <outputBase> -l <lang> (text in <outputBase>.txt)
//
// A tesseract binary placed next to the ocrdesk executable is preferred over
// one found on $PATH. Builds made with the "gosseract" tag also offer
// LibraryEngine, which links libtesseract through gosseract/v2:
//
//	go build -tags gosseract ./cmd/ocrdesk
//
// # Outcomes
//
// Recognition never fails silently. Every call returns an Outcome whose Status
// is one of ok, decode_failed, process_failed or canceled. Process failures
// keep whatever stdout the child produced before it exited or was killed,
// together with its exit code and stderr.
//
// # Regions
//
// Region recognition re-decodes the original file, crops it, and writes the
// crop to a per-call temporary PNG that is removed afterwards. Regions are in
// source pixel space; convert display rectangles with selection.Viewport
// first.
//
// # Asynchronous Use
//
// Dispatcher.Submit runs a recognition on its own goroutine and returns a
// Task. Cancelling the task kills the child process and yields a canceled
// Outcome.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-spa tesseract-ocr-deu
//   - macOS: brew install tesseract tesseract-lang
//   - Windows: https://github.com/UB-Mannheim/tesseract/wiki
package ocr
