package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/ocrdesk/internal/ocr"
)

type batchCall struct {
	input, base, language string
}

// recordingEngine writes "<base>.txt" like tesseract does, except for inputs
// listed in fail.
type recordingEngine struct {
	mu       sync.Mutex
	calls    []batchCall
	fail     map[string]int
	attempts map[string]int
}

func (e *recordingEngine) Engine() ocr.Engine { return e }

func (e *recordingEngine) Recognize(context.Context, string, string) (string, error) {
	return "", errors.New("not used by batch")
}

func (e *recordingEngine) RecognizeToFile(ctx context.Context, input, base, language string) error {
	e.mu.Lock()
	e.calls = append(e.calls, batchCall{input, base, language})
	if e.attempts == nil {
		e.attempts = make(map[string]int)
	}
	e.attempts[input]++
	remaining := e.fail[filepath.Base(input)]
	if remaining > 0 {
		e.fail[filepath.Base(input)] = remaining - 1
	}
	e.mu.Unlock()

	if remaining > 0 {
		return &ocr.ProcessError{ExitCode: 1, Stderr: "Error in pixReadStream"}
	}
	return os.WriteFile(base+".txt", []byte("text of "+filepath.Base(input)), 0o644)
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRun_MatchesOnlyImages(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.png", "b.jpg", "c.txt")
	eng := &recordingEngine{}
	r := NewRunner(eng, Options{})

	report, err := r.Run(context.Background(), dir, "eng", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(eng.calls) != 2 {
		t.Fatalf("expected 2 invocations, got %d: %+v", len(eng.calls), eng.calls)
	}
	want := []batchCall{
		{filepath.Join(dir, "a.png"), filepath.Join(dir, "a"), "eng"},
		{filepath.Join(dir, "b.jpg"), filepath.Join(dir, "b"), "eng"},
	}
	for i, c := range eng.calls {
		if c != want[i] {
			t.Errorf("call %d: got %+v, want %+v", i, c, want[i])
		}
	}

	for _, name := range []string{"a.txt", "b.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	data, _ := os.ReadFile(filepath.Join(dir, "c.txt"))
	if string(data) != "x" {
		t.Errorf("c.txt was modified: %q", data)
	}

	if report.Matched != 2 || len(report.Written) != 2 || len(report.Failed) != 0 {
		t.Errorf("report: %+v", report)
	}
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "1.png", "2.png", "3.png")
	eng := &recordingEngine{fail: map[string]int{"2.png": 1}}
	r := NewRunner(eng, Options{})

	var progressCalls int
	report, err := r.Run(context.Background(), dir, "spa", func(done, total int, input string, err error) {
		progressCalls++
		if total != 3 || done != progressCalls {
			t.Errorf("progress: done=%d total=%d", done, total)
		}
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(eng.calls) != 3 {
		t.Errorf("expected 3 invocations, got %d", len(eng.calls))
	}
	if progressCalls != 3 {
		t.Errorf("expected 3 progress callbacks, got %d", progressCalls)
	}
	if len(report.Failed) != 1 || filepath.Base(report.Failed[0].Input) != "2.png" {
		t.Errorf("failed: %+v", report.Failed)
	}
	if len(report.Written) != 2 {
		t.Errorf("written: %v", report.Written)
	}
	if !strings.Contains(report.Summary(), "2 of 3") || !strings.Contains(report.Summary(), "1 failed") {
		t.Errorf("summary: %s", report.Summary())
	}
}

func TestRun_Retries(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "flaky.png")
	eng := &recordingEngine{fail: map[string]int{"flaky.png": 2}}
	r := NewRunner(eng, Options{Retries: 2, RetryDelay: time.Millisecond})

	report, err := r.Run(context.Background(), dir, "eng", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := eng.attempts[filepath.Join(dir, "flaky.png")]; got != 3 {
		t.Errorf("attempts: got %d, want 3", got)
	}
	if len(report.Failed) != 0 || len(report.Written) != 1 {
		t.Errorf("report: %+v", report)
	}
}

func TestRun_CaseSensitivity(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "upper.PNG", "lower.png")

	eng := &recordingEngine{}
	report, err := NewRunner(eng, Options{}).Run(context.Background(), dir, "eng", nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Matched != 1 {
		t.Errorf("case-sensitive run matched %d, want 1", report.Matched)
	}

	eng = &recordingEngine{}
	report, err = NewRunner(eng, Options{CaseInsensitive: true}).Run(context.Background(), dir, "eng", nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Matched != 2 {
		t.Errorf("case-insensitive run matched %d, want 2", report.Matched)
	}
}

func TestSetOptions_AffectsLaterRuns(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.png", "b.tif")
	eng := &recordingEngine{}
	r := NewRunner(eng, Options{})

	r.SetOptions(Options{Extensions: []string{".tif"}})
	report, err := r.Run(context.Background(), dir, "eng", nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Matched != 1 || eng.calls[0].input != filepath.Join(dir, "b.tif") {
		t.Errorf("after SetOptions: matched %d, calls %+v", report.Matched, eng.calls)
	}

	r.SetOptions(Options{})
	report, err = r.Run(context.Background(), dir, "eng", nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Matched != 1 || !strings.HasSuffix(report.Written[0], "a.txt") {
		t.Errorf("empty extensions should fall back to defaults: %+v", report)
	}
}

func TestRun_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, dir, "real.png")

	eng := &recordingEngine{}
	report, err := NewRunner(eng, Options{}).Run(context.Background(), dir, "eng", nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Matched != 1 {
		t.Errorf("matched %d, want 1", report.Matched)
	}
}

func TestRun_Canceled(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.png", "b.png")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := &recordingEngine{}
	report, err := NewRunner(eng, Options{}).Run(ctx, dir, "eng", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Canceled || len(eng.calls) != 0 {
		t.Errorf("expected canceled run with no calls, got %+v / %d calls", report, len(eng.calls))
	}
}

func TestRun_MissingFolder(t *testing.T) {
	_, err := NewRunner(&recordingEngine{}, Options{}).Run(context.Background(), "/nonexistent/folder", "eng", nil)
	if err == nil {
		t.Error("expected error for missing folder")
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/scans/a.png", "/scans/a"},
		{"/scans/archive.tar.jpg", "/scans/archive.tar"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := OutputBase(tt.in); got != tt.want {
			t.Errorf("OutputBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRun_WithExecEngine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tesseract is a shell script")
	}
	bin := t.TempDir()
	script := filepath.Join(bin, "tesseract")
	fake := "#!/bin/sh\necho \"$(basename \"$1\") $4\" > \"$2.txt\"\n"
	if err := os.WriteFile(script, []byte(fake), 0o755); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	touch(t, dir, "a.png", "b.jpg", "c.txt")
	d := ocr.NewDispatcher(ocr.NewExecEngine(script, 5*time.Second), ocr.Options{})

	report, err := NewRunner(d, Options{}).Run(context.Background(), dir, "deu", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Written) != 2 {
		t.Fatalf("report: %+v", report)
	}
	data, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "b.jpg deu" {
		t.Errorf("b.txt: got %q", data)
	}
}
