package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ironsheep/ocrdesk/internal/batch"
	"github.com/ironsheep/ocrdesk/internal/config"
	"github.com/ironsheep/ocrdesk/internal/imaging"
	"github.com/ironsheep/ocrdesk/internal/ocr"
)

// ServerName is reported in the initialize handshake.
const ServerName = "ocrdesk"

// Server handles MCP protocol communication
type Server struct {
	cache      *imaging.ImageCache
	dispatcher *ocr.Dispatcher
	runner     *batch.Runner
	schemas    map[string]*jsonschema.Schema
	logger     *slog.Logger
	version    string

	mu        sync.RWMutex
	languages []config.Language
	language  string
}

// Options configure a Server.
type Options struct {
	Languages       []config.Language
	DefaultLanguage string
	Version         string
	Logger          *slog.Logger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance. Every tool's input schema is
// compiled up front so a broken schema fails at startup.
func New(dispatcher *ocr.Dispatcher, runner *batch.Runner, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	schemas, err := compileSchemas(GetToolDefinitions())
	if err != nil {
		return nil, err
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		cache:      imaging.NewImageCache(),
		dispatcher: dispatcher,
		runner:     runner,
		schemas:    schemas,
		logger:     logger,
		version:    version,
	}
	s.SetLanguages(opts.Languages, opts.DefaultLanguage)
	return s, nil
}

// SetLanguages replaces the selectable languages. The session language is
// kept when still listed, else reset to def.
func (s *Server) SetLanguages(langs []config.Language, def string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.languages = append([]config.Language(nil), langs...)
	if s.language != "" && s.hasLanguageLocked(s.language) {
		return
	}
	s.language = def
}

func (s *Server) hasLanguageLocked(code string) bool {
	for _, l := range s.languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Run reads requests from in, one per line, and writes responses to out
// until in is exhausted. Tool calls run with ctx.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Debug("request", "method", req.Method, "id", req.ID)
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}
