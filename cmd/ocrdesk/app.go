package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ironsheep/ocrdesk/internal/batch"
	"github.com/ironsheep/ocrdesk/internal/config"
	"github.com/ironsheep/ocrdesk/internal/ocr"
)

// app is the wiring shared by every command: configuration, logging, the
// OCR dispatcher and the batch runner.
type app struct {
	config     *config.Manager
	logger     *slog.Logger
	level      *slog.LevelVar
	dispatcher *ocr.Dispatcher
	runner     *batch.Runner
}

func newApp() (*app, error) {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	mgr, err := config.NewManager(cfgFile, logger)
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()
	level.Set(levelFor(cfg))

	engine, err := ocr.NewEngine(engineConfig(cfg))
	if err != nil {
		return nil, err
	}

	a := &app{
		config: mgr,
		logger: logger,
		level:  level,
	}
	a.dispatcher = ocr.NewDispatcher(engine, dispatcherOptions(cfg, logger))
	a.runner = batch.NewRunner(a.dispatcher, batchOptions(cfg, logger))

	logger.Debug("configuration loaded", "file", mgr.ConfigFile(), "engine", cfg.Engine, "language", cfg.DefaultLanguage)
	return a, nil
}

// levelFor prefers the --log-level flag over the configured level.
func levelFor(cfg *config.Config) slog.Level {
	if logLevel != "" {
		return config.ParseLogLevel(logLevel)
	}
	return config.ParseLogLevel(cfg.LogLevel)
}

func engineConfig(cfg *config.Config) ocr.EngineConfig {
	return ocr.EngineConfig{
		Kind:           cfg.Engine,
		Command:        cfg.Tesseract.Path,
		Timeout:        cfg.Tesseract.Timeout,
		TessdataPrefix: cfg.Tesseract.TessdataPrefix,
	}
}

func dispatcherOptions(cfg *config.Config, logger *slog.Logger) ocr.Options {
	return ocr.Options{
		TempDir:   cfg.Crop.TempDir,
		KeepCrops: cfg.Crop.Keep,
		Grayscale: cfg.Crop.Grayscale,
		Logger:    logger,
	}
}

func batchOptions(cfg *config.Config, logger *slog.Logger) batch.Options {
	return batch.Options{
		Extensions:      cfg.Batch.Extensions,
		CaseInsensitive: cfg.Batch.CaseInsensitive,
		Retries:         cfg.Batch.Retries,
		RetryDelay:      cfg.Batch.RetryDelay,
		Logger:          logger,
	}
}

// watch hot-reloads the config file. Each valid edit swaps the engine and
// options for later calls, then reaches the given subscribers.
func (a *app) watch(subscribers ...func(*config.Config)) {
	a.config.OnChange(func(cfg *config.Config) {
		a.level.Set(levelFor(cfg))

		engine, err := ocr.NewEngine(engineConfig(cfg))
		if err != nil {
			a.logger.Warn("keeping previous OCR engine", "error", err)
		} else {
			a.dispatcher.SetEngine(engine)
		}
		a.dispatcher.SetOptions(dispatcherOptions(cfg, a.logger))
		a.runner.SetOptions(batchOptions(cfg, a.logger))

		for _, fn := range subscribers {
			fn(cfg)
		}
	})
	a.config.WatchConfig()
}

// language returns requested if it is configured, or the default language
// when requested is empty.
func (a *app) language(requested string) (string, error) {
	cfg := a.config.Get()
	if requested == "" {
		return cfg.DefaultLanguage, nil
	}
	if !cfg.HasLanguage(requested) {
		return "", fmt.Errorf("unknown language %q (configured: %s)", requested, strings.Join(cfg.LanguageCodes(), ", "))
	}
	return requested, nil
}
