package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tablecal/internal/config"
	"tablecal/internal/extract"
	appLog "tablecal/internal/log"
)

const version = "0.1.0"

var (
	cfgPath string
	listen  string
)

var rootCmd = &cobra.Command{
	Use:           "tablecal",
	Short:         "Turn photographed weekly schedules into calendar events",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads cfgPath, applies CLI overrides and the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// --listen overrides the config file when set.
	if listen != "" {
		cfg.Listen = listen
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// newEngine builds the recognition engine selected by cfg. The returned
// close func must be called when the engine is no longer used.
func newEngine(cfg *config.Config) (extract.Engine, func() error, error) {
	switch cfg.Engine.Kind {
	case config.EngineTesseract:
		e, err := extract.NewTesseractEngine()
		if err != nil {
			return nil, nil, fmt.Errorf("tesseract engine: %w", err)
		}
		return e, e.Close, nil
	case config.EngineRemote, "":
		timeout := time.Duration(cfg.Engine.TimeoutSeconds) * time.Second
		e, err := extract.NewRemoteEngine(cfg.Engine.URL, timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("remote engine: %w", err)
		}
		return e, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine kind %q", cfg.Engine.Kind)
	}
}
