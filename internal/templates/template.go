// Package templates provides the catalog of cosmetic resume templates: a
// built-in set compiled into the binary and an optional remote listing.
package templates

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultTemplateID is the template assigned to new resumes.
const DefaultTemplateID = "modern"

// Colors is the color pair a template applies to the preview.
type Colors struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
}

// Style is the cosmetic payload of a template.
type Style struct {
	Layout string `json:"layout" yaml:"layout"`
	Colors Colors `json:"colors" yaml:"colors"`
}

// Template is one catalog entry.
type Template struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Style       Style  `json:"style" yaml:"style"`
	Premium     bool   `json:"premium" yaml:"premium"`
}

// Selection is the template id and style handed to the renderer.
type Selection struct {
	ID    string `json:"id"`
	Style Style  `json:"style"`
}

// DefaultStyle is used when no template has been selected.
func DefaultStyle() Style {
	return Style{
		Layout: DefaultTemplateID,
		Colors: Colors{Primary: "#2563eb", Secondary: "#64748b"},
	}
}

//go:embed builtin.yaml
var builtinYAML []byte

var builtin = mustParseBuiltin(builtinYAML)

func mustParseBuiltin(data []byte) []Template {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		panic(fmt.Sprintf("templates: invalid builtin catalog: %v", err))
	}
	return doc.Templates
}

// Builtin returns a copy of the built-in catalog.
func Builtin() []Template {
	out := make([]Template, len(builtin))
	copy(out, builtin)
	return out
}

// withDefaults fills missing colors and layout from DefaultStyle.
func (s Style) withDefaults() Style {
	def := DefaultStyle()
	if s.Layout == "" {
		s.Layout = def.Layout
	}
	if s.Colors.Primary == "" || s.Colors.Secondary == "" {
		s.Colors = def.Colors
	}
	return s
}
