package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"minLength":   1,
		"description": "Absolute path to the image file",
	}
}

func languageProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"minLength":   1,
		"description": "Tesseract language code (e.g. eng, spa, deu). Defaults to the session language",
	}
}

func intProperty(description string, minimum int) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"minimum":     minimum,
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_languages",
			Description: "List the configured OCR languages and the language currently selected for this session.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "ocr_set_language",
			Description: "Select the language used by later OCR calls that do not name one. Must be one of the configured languages.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"code": map[string]interface{}{
						"type":        "string",
						"minLength":   1,
						"description": "Language code from ocr_languages",
					},
				},
				"required": []string{"code"},
			},
		},
		{
			Name:        "ocr_image",
			Description: "Run Tesseract OCR over a whole image. Returns the recognized text and a status (ok, decode_failed, process_failed, canceled).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"language": languageProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "ocr_region",
			Description: "Run Tesseract OCR over a rectangle of an image. Coordinates are in image pixels unless display_width and display_height are given, " +
				"in which case they are in a view of that size showing the whole image scaled to fit and centered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":           pathProperty(),
					"x":              intProperty("Left edge", 0),
					"y":              intProperty("Top edge", 0),
					"width":          intProperty("Rectangle width", 1),
					"height":         intProperty("Rectangle height", 1),
					"language":       languageProperty(),
					"display_width":  intProperty("Width of the view the rectangle was drawn in", 1),
					"display_height": intProperty("Height of the view the rectangle was drawn in", 1),
				},
				"required":          []string{"path", "x", "y", "width", "height"},
				"dependentRequired": map[string]interface{}{"display_width": []string{"display_height"}, "display_height": []string{"display_width"}},
			},
		},
		{
			Name:        "ocr_batch",
			Description: "Run OCR over every matching image directly inside a folder, writing <name>.txt next to each image. Returns a report of written and failed files.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"folder": map[string]interface{}{
						"type":        "string",
						"minLength":   1,
						"description": "Absolute path to the folder",
					},
					"language": languageProperty(),
				},
				"required": []string{"folder"},
			},
		},
	}
}

// compileSchemas compiles each tool's input schema for argument validation.
func compileSchemas(tools []Tool) (map[string]*jsonschema.Schema, error) {
	out := make(map[string]*jsonschema.Schema, len(tools))
	for _, tool := range tools {
		raw, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema for %s: %w", tool.Name, err)
		}
		compiler := jsonschema.NewCompiler()
		url := tool.Name + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("failed to load schema for %s: %w", tool.Name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for %s: %w", tool.Name, err)
		}
		out[tool.Name] = schema
	}
	return out, nil
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
