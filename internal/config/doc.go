// Package config loads ocrdesk settings from defaults, an optional YAML
// file, a .env file and OCRDESK_* environment variables, in increasing order
// of precedence. A Manager can watch the file and notify subscribers when a
// valid edit lands.
package config
