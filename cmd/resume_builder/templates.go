package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var templatesSource string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Print the template catalog",
	Long:  "Prints the template catalog as JSON. A remote listing that is unreachable or invalid falls back to the built-in templates.",
	RunE:  runTemplates,
}

func init() {
	templatesCmd.Flags().StringVar(&templatesSource, "source", "", "Remote template listing URL (overrides config)")
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	source := cfg.TemplateSourceURL
	if templatesSource != "" {
		source = templatesSource
	}

	list := newCatalog(source, cfg, logger).List(cmdContext(cmd))
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
