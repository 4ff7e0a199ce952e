package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/schemas"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a resume document to HTML",
	Long:  "Validates a resume document JSON file and renders it with the chosen template, either as a preview fragment or as a printable standalone document.",
	RunE:  runPreview,
}

var (
	previewFile     string
	previewTemplate string
	previewExport   bool
	previewTitle    string
	previewOutput   string
)

func init() {
	previewCmd.Flags().StringVarP(&previewFile, "file", "f", "", "Path to resume document JSON (required)")
	previewCmd.Flags().StringVarP(&previewTemplate, "template", "t", "", "Template id (default style when empty)")
	previewCmd.Flags().BoolVar(&previewExport, "export", false, "Render a standalone printable document")
	previewCmd.Flags().StringVar(&previewTitle, "title", "", "Document title for --export")
	previewCmd.Flags().StringVarP(&previewOutput, "out", "o", "", "Output path (stdout when empty)")

	if err := previewCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	content, err := schemas.ValidateFile(schemas.Resume, previewFile)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("failed to read resume file: %w", err)
		}
		return fmt.Errorf("resume file is invalid: %w", err)
	}

	var doc resume.Document
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal resume JSON: %w", err)
	}
	doc = doc.Normalized().Sanitized()

	style, err := newCatalog(cfg.TemplateSourceURL, cfg, logger).StyleFor(cmdContext(cmd), previewTemplate)
	if err != nil {
		return err
	}
	view := rendering.Preview(doc, &style)

	var html string
	if previewExport {
		html, err = rendering.Export(view, previewTitle)
	} else {
		html, err = rendering.RenderHTML(view)
	}
	if err != nil {
		return err
	}

	if previewOutput == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), html)
		return err
	}
	if err := os.WriteFile(previewOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", previewOutput)
	return nil
}
