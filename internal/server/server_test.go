package server

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ironsheep/ocrdesk/internal/batch"
	"github.com/ironsheep/ocrdesk/internal/config"
	"github.com/ironsheep/ocrdesk/internal/ocr"
)

// stubEngine returns "<file name>:<language>" as its text and records the
// language of every call.
type stubEngine struct {
	mu        sync.Mutex
	languages []string
	inputs    []string
}

func (e *stubEngine) record(input, language string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs = append(e.inputs, input)
	e.languages = append(e.languages, language)
}

func (e *stubEngine) Recognize(_ context.Context, imagePath, language string) (string, error) {
	e.record(imagePath, language)
	if strings.Contains(filepath.Base(imagePath), "fail") {
		return "partial", &ocr.ProcessError{ExitCode: 1, Stderr: "Error during processing."}
	}
	return filepath.Base(imagePath) + ":" + language, nil
}

func (e *stubEngine) RecognizeToFile(_ context.Context, imagePath, outputBase, language string) error {
	e.record(imagePath, language)
	return os.WriteFile(outputBase+".txt", []byte(language), 0o644)
}

func newTestServer(t *testing.T) (*Server, *stubEngine) {
	t.Helper()
	engine := &stubEngine{}
	dispatcher := ocr.NewDispatcher(engine, ocr.Options{TempDir: t.TempDir()})
	runner := batch.NewRunner(dispatcher, batch.Options{})
	s, err := New(dispatcher, runner, Options{
		Languages:       config.DefaultConfig().Languages,
		DefaultLanguage: "eng",
		Version:         "1.2.3",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, engine
}

func TestNew(t *testing.T) {
	s, _ := newTestServer(t)
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	for _, tool := range GetToolDefinitions() {
		if s.schemas[tool.Name] == nil {
			t.Errorf("no compiled schema for %s", tool.Name)
		}
	}
	if s.language != "eng" {
		t.Errorf("session language: got %s, want eng", s.language)
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	serverInfo := result["serverInfo"].(map[string]interface{})
	if serverInfo["name"] != "ocrdesk" || serverInfo["version"] != "1.2.3" {
		t.Errorf("serverInfo: got %v", serverInfo)
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"})

	// Notifications don't get responses
	if resp != nil {
		t.Error("notifications/initialized should return nil response")
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "nonexistent/method"})

	if resp == nil || resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error code: got %d, want -32601", resp.Error.Code)
	}
}

func TestRun_Session(t *testing.T) {
	s, _ := newTestServer(t)
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n")

	var out bytes.Buffer
	if err := s.Run(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	dec := json.NewDecoder(&out)
	var responses []MCPResponse
	for dec.More() {
		var resp MCPResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("bad response stream: %v", err)
		}
		responses = append(responses, resp)
	}

	if len(responses) != 4 {
		t.Fatalf("got %d responses, want 4", len(responses))
	}
	if responses[1].Error == nil || responses[1].Error.Code != -32700 {
		t.Errorf("parse error response: got %+v", responses[1])
	}
	if responses[3].ID != float64(3) {
		t.Errorf("last ID: got %v, want 3", responses[3].ID)
	}
}

func TestSetLanguages_KeepsSessionLanguage(t *testing.T) {
	s, _ := newTestServer(t)
	s.language = "deu"

	s.SetLanguages([]config.Language{{Code: "deu"}, {Code: "fra"}}, "fra")
	if s.language != "deu" {
		t.Errorf("session language: got %s, want deu", s.language)
	}

	s.SetLanguages([]config.Language{{Code: "fra"}}, "fra")
	if s.language != "fra" {
		t.Errorf("session language: got %s, want fra", s.language)
	}
}
