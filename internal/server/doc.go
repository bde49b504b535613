// Package server implements the MCP (Model Context Protocol) server that
// exposes ocrdesk's recognition workflow to MCP clients.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image information:
//   - image_load: Load image and get metadata
//
// Language state:
//   - ocr_languages: List configured languages and the session language
//   - ocr_set_language: Select the session language
//
// Recognition:
//   - ocr_image: Recognize a whole image
//   - ocr_region: Recognize a rectangle, optionally given in the coordinates
//     of a scaled view of the image
//   - ocr_batch: Recognize every matching image in a folder, writing .txt files
//
// The session language plays the role of the desktop window's Language
// menu: it is used by every recognition that does not name a language, and
// only changes through ocr_set_language or a configuration reload.
//
// # Validation
//
// Each tool's input schema is compiled at startup and tool arguments are
// validated against it before the handler runs.
//
// # Error Handling
//
// JSON-RPC errors use these codes:
//   - -32700: the request line is not JSON
//   - -32601: unknown method
//   - -32602: arguments do not match the tool's input schema
//   - -32000: the tool could not run (unknown tool, unknown language,
//     unreadable image, selection outside the image, unlistable folder)
//
// A recognition that ran but failed is not a JSON-RPC error. Its result
// carries status decode_failed, process_failed or canceled together with
// the exit code, captured stderr and any partial text.
//
// # Usage
//
//	srv, err := server.New(dispatcher, runner, server.Options{...})
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx, os.Stdin, os.Stdout)
package server
