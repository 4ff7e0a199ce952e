package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/templates"
)

const sampleResume = `{
  "personalDetails": {"fullName": "Jane <Doe>", "email": "jane@example.com"},
  "education": [{"id": "1", "degree": "B.Sc.", "institution": "State University", "year": "2019"}],
  "experience": [],
  "projects": [],
  "skills": {"technical": ["Go"], "languages": [], "frameworks": [], "tools": []}
}`

// quietEnv keeps config resolution independent of the caller's environment.
func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TEMPLATE_SOURCE_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PORT", "")
	configPath = ""
}

func newTestCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(t.Context())
	return cmd, &out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func setPreviewFlags(t *testing.T, file, template string, export bool, output string) {
	t.Helper()
	previewFile, previewTemplate, previewExport, previewOutput = file, template, export, output
	t.Cleanup(func() {
		previewFile, previewTemplate, previewExport, previewTitle, previewOutput = "", "", false, "", ""
	})
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "templates", "preview"} {
		assert.True(t, names[want], want)
	}
}

func TestPreview_Fragment(t *testing.T) {
	quietEnv(t)
	setPreviewFlags(t, writeFile(t, "resume.json", sampleResume), "", false, "")
	cmd, out := newTestCommand(t)

	require.NoError(t, runPreview(cmd, nil))

	html := out.String()
	assert.Contains(t, html, "Jane Doe")
	assert.NotContains(t, html, "<Doe>")
	assert.Contains(t, html, "B.Sc.")
	assert.Contains(t, html, "Technical Skills")
	assert.NotContains(t, html, "window.print")
}

func TestPreview_ExportToFile(t *testing.T) {
	quietEnv(t)
	dest := filepath.Join(t.TempDir(), "resume.html")
	setPreviewFlags(t, writeFile(t, "resume.json", sampleResume), "classic", true, dest)
	previewTitle = "Jane Doe Resume"
	cmd, out := newTestCommand(t)

	require.NoError(t, runPreview(cmd, nil))
	assert.Contains(t, out.String(), "Wrote "+dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>Jane Doe Resume</title>")
	assert.Contains(t, string(data), "window.print()")
	assert.Contains(t, string(data), "#1f2937")
}

func TestPreview_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		template string
		wantErr  string
	}{
		{name: "entry without id", content: `{"education": [{"degree": "B.Sc."}]}`, wantErr: "resume file is invalid"},
		{name: "wrong type", content: `{"skills": {"technical": "Go"}}`, wantErr: "resume file is invalid"},
		{name: "unknown template", content: sampleResume, template: "neon", wantErr: "template not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quietEnv(t)
			setPreviewFlags(t, writeFile(t, "resume.json", tt.content), tt.template, false, "")
			cmd, _ := newTestCommand(t)

			err := runPreview(cmd, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPreview_MissingFile(t *testing.T) {
	quietEnv(t)
	setPreviewFlags(t, filepath.Join(t.TempDir(), "absent.json"), "", false, "")
	cmd, _ := newTestCommand(t)

	err := runPreview(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read resume file")
}

func TestTemplates_BuiltIn(t *testing.T) {
	quietEnv(t)
	cmd, out := newTestCommand(t)

	require.NoError(t, runTemplates(cmd, nil))

	var list []templates.Template
	require.NoError(t, json.Unmarshal(out.Bytes(), &list))
	assert.Equal(t, templates.Builtin(), list)
}

func TestTemplates_BadSourceFallsBack(t *testing.T) {
	quietEnv(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	defer ts.Close()
	templatesSource = ts.URL
	t.Cleanup(func() { templatesSource = "" })
	cmd, out := newTestCommand(t)

	require.NoError(t, runTemplates(cmd, nil))

	var list []templates.Template
	require.NoError(t, json.Unmarshal(out.Bytes(), &list))
	assert.Equal(t, templates.Builtin(), list)
}

func TestServeAndMigrate_RequireDatabaseURL(t *testing.T) {
	quietEnv(t)
	t.Setenv("DATABASE_URL", "")

	cmd, _ := newTestCommand(t)
	err := runServe(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	err = runMigrate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestServe_RequiresJWTSecret(t *testing.T) {
	quietEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/unused")
	t.Setenv("JWT_SECRET", "")

	cmd, _ := newTestCommand(t)
	err := runServe(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfig_BadFile(t *testing.T) {
	quietEnv(t)
	configPath = writeFile(t, "config.json", `{"log_level": "loud"}`)
	t.Cleanup(func() { configPath = "" })

	_, _, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}
