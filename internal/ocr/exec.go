package ocr

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DefaultCommand is the tesseract executable name.
const DefaultCommand = "tesseract"

// DefaultTimeout bounds a single tesseract run.
const DefaultTimeout = 30 * time.Second

// waitDelay is how long Wait keeps reading pipes after the child is killed.
const waitDelay = 2 * time.Second

// ExecEngine runs the tesseract command-line tool as a child process.
type ExecEngine struct {
	command string
	timeout time.Duration
}

// NewExecEngine returns an engine that runs command with a per-call timeout.
// An empty command means DefaultCommand; a non-positive timeout means
// DefaultTimeout.
func NewExecEngine(command string, timeout time.Duration) *ExecEngine {
	if command == "" {
		command = DefaultCommand
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecEngine{
		command: ResolveCommand(command),
		timeout: timeout,
	}
}

// Command returns the resolved executable path or name.
func (e *ExecEngine) Command() string {
	return e.command
}

// Recognize runs `tesseract <imagePath> - -l <language>` and returns stdout.
// On failure the returned *ProcessError carries any partial stdout.
func (e *ExecEngine) Recognize(ctx context.Context, imagePath, language string) (string, error) {
	return e.run(ctx, Args(imagePath, StdoutTarget, language))
}

// RecognizeToFile runs `tesseract <imagePath> <outputBase> -l <language>`;
// tesseract itself appends .txt to outputBase.
func (e *ExecEngine) RecognizeToFile(ctx context.Context, imagePath, outputBase, language string) error {
	_, err := e.run(ctx, Args(imagePath, outputBase, language))
	return err
}

func (e *ExecEngine) run(parent context.Context, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	// Cancellation by the caller is not a process failure.
	if parent.Err() != nil {
		return stdout.String(), parent.Err()
	}

	perr := &ProcessError{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		perr.TimedOut = true
		return perr.Stdout, perr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		perr.ExitCode = exitErr.ExitCode()
	}
	return perr.Stdout, perr
}

// ResolveCommand prefers an executable with the given bare name located next
// to the running binary, falling back to the name itself for $PATH lookup.
// Paths containing a separator are returned unchanged.
func ResolveCommand(command string) string {
	if command == "" || strings.ContainsRune(command, filepath.Separator) || strings.ContainsRune(command, '/') {
		return command
	}

	exePath, err := os.Executable()
	if err != nil {
		return command
	}
	if real, err := filepath.EvalSymlinks(exePath); err == nil {
		exePath = real
	}

	name := command
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		name += ".exe"
	}
	local := filepath.Join(filepath.Dir(exePath), name)
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local
	}
	return command
}
