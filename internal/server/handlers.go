package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/ocrdesk/internal/config"
	"github.com/ironsheep/ocrdesk/internal/imaging"
	"github.com/ironsheep/ocrdesk/internal/ocr"
	"github.com/ironsheep/ocrdesk/internal/selection"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "ocr_region").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Arguments that do not match the tool's input schema return -32602. Tool
// execution errors return a JSON-RPC error response with code -32000.
// Recognition failures are not execution errors: they come back as a result
// whose status field says what went wrong.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 || string(params.Arguments) == "null" {
		params.Arguments = json.RawMessage("{}")
	}

	if err := s.validateArgs(params.Name, params.Arguments); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// validateArgs checks args against the tool's compiled input schema. Unknown
// tools pass through so executeTool can report them.
func (s *Server) validateArgs(name string, args json.RawMessage) error {
	schema, ok := s.schemas[name]
	if !ok {
		return nil
	}
	var doc interface{}
	if err := json.Unmarshal(args, &doc); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("arguments do not match %s schema: %w", name, err)
	}
	return nil
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	// Language state
	case "ocr_languages":
		return s.handleLanguages()
	case "ocr_set_language":
		return s.handleSetLanguage(args)

	// Recognition
	case "ocr_image":
		return s.handleOCRImage(ctx, args)
	case "ocr_region":
		return s.handleOCRRegion(ctx, args)
	case "ocr_batch":
		return s.handleOCRBatch(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Language Handlers ===

type languagesResult struct {
	Languages []config.Language `json:"languages"`
	Current   string            `json:"current"`
}

func (s *Server) handleLanguages() (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return languagesResult{
		Languages: append([]config.Language(nil), s.languages...),
		Current:   s.language,
	}, nil
}

type setLanguageArgs struct {
	Code string `json:"code"`
}

func (s *Server) handleSetLanguage(args json.RawMessage) (interface{}, error) {
	var a setLanguageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasLanguageLocked(a.Code) {
		return nil, fmt.Errorf("unknown language %q", a.Code)
	}
	s.language = a.Code
	return map[string]interface{}{"language": a.Code}, nil
}

// resolveLanguage returns requested when it is configured, or the session
// language when requested is empty.
func (s *Server) resolveLanguage(requested string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if requested == "" {
		return s.language, nil
	}
	if !s.hasLanguageLocked(requested) {
		return "", fmt.Errorf("unknown language %q", requested)
	}
	return requested, nil
}

// === Recognition Handlers ===

type ocrImageArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
}

func (s *Server) handleOCRImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a ocrImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	lang, err := s.resolveLanguage(a.Language)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Recognize(ctx, ocr.Request{ImagePath: a.Path, Language: lang}), nil
}

type ocrRegionArgs struct {
	Path          string `json:"path"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Language      string `json:"language"`
	DisplayWidth  int    `json:"display_width"`
	DisplayHeight int    `json:"display_height"`
}

func (s *Server) handleOCRRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a ocrRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	lang, err := s.resolveLanguage(a.Language)
	if err != nil {
		return nil, err
	}

	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return ocr.Outcome{
			Status:   ocr.StatusDecodeFailed,
			Language: lang,
			Message:  err.Error(),
			Err:      err,
		}, nil
	}

	source := image.Pt(info.Width, info.Height)
	vp := selection.Identity(source)
	if a.DisplayWidth > 0 && a.DisplayHeight > 0 {
		vp = selection.Viewport{Display: image.Pt(a.DisplayWidth, a.DisplayHeight), Source: source}
	}

	rect := selection.Rect{X: a.X, Y: a.Y, W: a.Width, H: a.Height}
	region, err := vp.ToSource(rect)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Recognize(ctx, ocr.Request{ImagePath: a.Path, Region: &region, Language: lang}), nil
}

type ocrBatchArgs struct {
	Folder   string `json:"folder"`
	Language string `json:"language"`
}

func (s *Server) handleOCRBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a ocrBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	lang, err := s.resolveLanguage(a.Language)
	if err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, a.Folder, lang, nil)
}
