// Package main provides the entry point for the resume builder API server and tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/templates"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "resume_builder",
	Short:         "Resume builder API server",
	Long:          "Resume builder serves accounts, resumes, templates and previews over a JSON API, and renders resumes locally.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (optional)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file, environment and defaults and builds
// the logger they describe.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// newCatalog uses the remote listing when a URL is configured.
func newCatalog(sourceURL string, cfg config.Config, logger *zap.Logger) *templates.Catalog {
	if sourceURL == "" {
		return templates.NewCatalog(nil, logger)
	}
	return templates.NewCatalog(&templates.HTTPSource{
		URL:     sourceURL,
		Timeout: cfg.TemplateTimeoutDuration(),
	}, logger)
}
