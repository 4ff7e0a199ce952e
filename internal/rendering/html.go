package rendering

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed html/*.gohtml
var htmlFiles embed.FS

var pages = template.Must(template.New("pages").ParseFS(htmlFiles, "html/*.gohtml"))

// DefaultExportTitle is used when Export receives an empty title.
const DefaultExportTitle = "Resume"

// RenderHTML renders the view as an HTML fragment. All text is escaped.
func RenderHTML(view View) (string, error) {
	var out strings.Builder
	if err := pages.ExecuteTemplate(&out, "resume", view); err != nil {
		return "", &TemplateError{Message: "failed to execute resume template", Cause: err}
	}
	return out.String(), nil
}

// Export renders the view as a standalone document with inline styles and
// print rules. The document asks the host to print itself once loaded.
func Export(view View, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultExportTitle
	}

	var out strings.Builder
	data := struct {
		Title string
		View  View
	}{Title: title, View: view}
	if err := pages.ExecuteTemplate(&out, "export", data); err != nil {
		return "", &RenderError{Message: "failed to build export document", Cause: err}
	}
	return out.String(), nil
}
