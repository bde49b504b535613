package ocr

import (
	"fmt"
	"strings"
)

// ProcessError describes a tesseract invocation that did not exit cleanly.
type ProcessError struct {
	// ExitCode is the child's exit status, or -1 if it never started or was
	// killed.
	ExitCode int

	// TimedOut is set when the child was killed after the timeout elapsed.
	TimedOut bool

	// Stdout holds whatever the child printed before it failed.
	Stdout string

	// Stderr holds the child's diagnostic output.
	Stderr string

	// Err is the underlying launch or wait error.
	Err error
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	switch {
	case e.TimedOut:
		b.WriteString("tesseract timed out")
	case e.ExitCode >= 0:
		fmt.Fprintf(&b, "tesseract exited with code %d", e.ExitCode)
	default:
		b.WriteString("tesseract could not be started")
	}
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		fmt.Fprintf(&b, ": %s", firstLine(msg))
	} else if e.Err != nil && !e.TimedOut {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
