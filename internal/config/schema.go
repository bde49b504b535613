package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds ocrdesk configuration.
// Stored at: ./ocrdesk.yaml or ~/.ocrdesk/ocrdesk.yaml
type Config struct {
	Engine          string       `mapstructure:"engine"`
	Tesseract       TesseractCfg `mapstructure:"tesseract"`
	DefaultLanguage string       `mapstructure:"default_language"` // Language selected at startup
	Languages       []Language   `mapstructure:"languages"`        // Entries of the Language menu
	Batch           BatchCfg     `mapstructure:"batch"`
	Crop            CropCfg      `mapstructure:"crop"`
	Selection       SelectionCfg `mapstructure:"selection"`
	Window          WindowCfg    `mapstructure:"window"`
	LogLevel        string       `mapstructure:"log_level"`
}

// TesseractCfg configures the OCR engine.
type TesseractCfg struct {
	Path           string        `mapstructure:"path"`            // Executable name or path
	Timeout        time.Duration `mapstructure:"timeout"`         // Per-invocation limit
	TessdataPrefix string        `mapstructure:"tessdata_prefix"` // gosseract engine only
}

// Language is one selectable Tesseract language pack.
type Language struct {
	Code  string `mapstructure:"code"`
	Label string `mapstructure:"label"`
}

// BatchCfg configures folder processing.
type BatchCfg struct {
	Extensions      []string      `mapstructure:"extensions"`
	CaseInsensitive bool          `mapstructure:"case_insensitive"`
	Retries         int           `mapstructure:"retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
}

// CropCfg configures region crops.
type CropCfg struct {
	TempDir   string `mapstructure:"temp_dir"` // Empty means the OS temp directory
	Keep      bool   `mapstructure:"keep"`
	Grayscale bool   `mapstructure:"grayscale"`
}

// SelectionCfg configures the selection outline.
type SelectionCfg struct {
	OutlineColor string  `mapstructure:"outline_color"`
	OutlineWidth float32 `mapstructure:"outline_width"`
}

// WindowCfg configures the main window.
type WindowCfg struct {
	Width  float32 `mapstructure:"width"`
	Height float32 `mapstructure:"height"`
}

// defaultValues is the single source of defaults, keyed by viper path.
func defaultValues() map[string]any {
	return map[string]any{
		"engine":            "exec",
		"tesseract.path":    "tesseract",
		"tesseract.timeout": "30s",
		"default_language":  "eng",
		"languages": []map[string]any{
			{"code": "eng", "label": "English"},
			{"code": "spa", "label": "Spanish"},
			{"code": "deu", "label": "German"},
		},
		"batch.extensions":        []string{".png", ".jpg"},
		"batch.case_insensitive":  false,
		"batch.retries":           0,
		"batch.retry_delay":       "1s",
		"crop.temp_dir":           "",
		"crop.keep":               false,
		"crop.grayscale":          false,
		"selection.outline_color": "#ff0000",
		"selection.outline_width": 2,
		"window.width":            1000,
		"window.height":           600,
		"log_level":               "info",
	}
}

// Validate checks the configuration for values that would break the UI or
// every recognition.
func (c *Config) Validate() error {
	switch c.Engine {
	case "exec", "gosseract":
	default:
		return fmt.Errorf("engine must be \"exec\" or \"gosseract\", got %q", c.Engine)
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("at least one language is required")
	}
	seen := make(map[string]bool, len(c.Languages))
	for _, l := range c.Languages {
		if strings.TrimSpace(l.Code) == "" {
			return fmt.Errorf("language entry %q has no code", l.Label)
		}
		if seen[l.Code] {
			return fmt.Errorf("duplicate language code %q", l.Code)
		}
		seen[l.Code] = true
	}
	if !c.HasLanguage(c.DefaultLanguage) {
		return fmt.Errorf("default_language %q is not in languages", c.DefaultLanguage)
	}
	if c.Tesseract.Timeout <= 0 {
		return fmt.Errorf("tesseract.timeout must be positive")
	}
	if c.Batch.Retries < 0 {
		return fmt.Errorf("batch.retries must not be negative")
	}
	return nil
}

// HasLanguage reports whether code is one of the configured languages.
func (c *Config) HasLanguage(code string) bool {
	for _, l := range c.Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// LanguageCodes returns the configured codes in menu order.
func (c *Config) LanguageCodes() []string {
	codes := make([]string, len(c.Languages))
	for i, l := range c.Languages {
		codes[i] = l.Code
	}
	return codes
}
