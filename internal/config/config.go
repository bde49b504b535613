package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment override, e.g. OCRDESK_TESSERACT_PATH.
	EnvPrefix = "OCRDESK"

	// FileName is the config file name searched for when none is given.
	FileName = "ocrdesk"

	// HomeDirName is the per-user directory holding the config file.
	HomeDirName = ".ocrdesk"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	logger    *slog.Logger
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager loads .env (if present), defaults, the config file and
// OCRDESK_* environment overrides. cfgFile may be empty to search the default
// locations; a missing default file is not an error.
func NewManager(cfgFile string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cm := &Manager{
		v:         viper.New(),
		logger:    logger,
		callbacks: make([]func(*Config), 0),
	}
	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg
	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	applyDefaults(cm.v)

	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName(FileName)
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath(filepath.Join("$HOME", HomeDirName))
	}

	if err := cm.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func applyDefaults(v *viper.Viper) {
	for key, value := range defaultValues() {
		v.SetDefault(key, value)
	}
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	return decode(cm.v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the file the configuration was read from, or "" when
// only defaults and environment are in use.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of the config file. An edit that fails
// validation is logged and the previous configuration stays in effect.
func (cm *Manager) WatchConfig() {
	if cm.ConfigFile() == "" {
		return
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cm.reload(e.Name)
	})
	cm.v.WatchConfig()
}

func (cm *Manager) reload(source string) {
	cfg, err := cm.load()
	if err != nil {
		cm.logger.Warn("ignoring config change", "file", source, "error", err)
		return
	}

	cm.mu.Lock()
	cm.config = cfg
	callbacks := make([]func(*Config), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	cm.logger.Info("config reloaded", "file", source)
	for _, fn := range callbacks {
		fn(cfg)
	}
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	v := viper.New()
	applyDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// LoadDotEnv loads environment variables from the given files, skipping any
// that do not exist. Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// WriteDefault writes the default configuration to path as YAML.
func WriteDefault(path string) error {
	doc := make(map[string]any)
	keys := make([]string, 0)
	values := defaultValues()
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		setNested(doc, strings.Split(k, "."), values[k])
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	header := []byte(`# ocrdesk configuration
# Every key can be overridden with an OCRDESK_ environment variable,
# e.g. OCRDESK_TESSERACT_PATH=/opt/tesseract/bin/tesseract

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}

func setNested(doc map[string]any, path []string, value any) {
	if len(path) == 1 {
		doc[path[0]] = value
		return
	}
	child, ok := doc[path[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		doc[path[0]] = child
	}
	setNested(child, path[1:], value)
}

// DefaultPath returns ~/.ocrdesk/ocrdesk.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, HomeDirName, FileName+".yaml"), nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels; anything
// else is info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
