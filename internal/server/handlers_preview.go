package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/templates"
	"go.uber.org/zap"
)

// PreviewRequest renders a document that is not stored.
type PreviewRequest struct {
	Document   resume.Document `json:"document"`
	TemplateID string          `json:"template_id" validate:"max=64"`
	Title      string          `json:"title" validate:"max=200"`
	Export     bool            `json:"export"`
}

// handleResumePreview renders a stored resume as an HTML fragment
func (s *Server) handleResumePreview(w http.ResponseWriter, r *http.Request) {
	stored, err := s.loadResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	html, err := rendering.RenderHTML(s.storedView(r.Context(), stored))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.htmlResponse(w, html, "")
}

// handleResumeExport renders a stored resume as a printable document
func (s *Server) handleResumeExport(w http.ResponseWriter, r *http.Request) {
	stored, err := s.loadResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	html, err := rendering.Export(s.storedView(r.Context(), stored), stored.Title)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.htmlResponse(w, html, exportFilename(stored.Title))
}

// handlePreview renders a posted document with an optional template
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	style, err := s.catalog.StyleFor(r.Context(), req.TemplateID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	view := rendering.Preview(req.Document.Sanitized(), &style)

	if req.Export {
		html, err := rendering.Export(view, req.Title)
		if err != nil {
			s.errorResponse(w, r, err)
			return
		}
		s.htmlResponse(w, html, exportFilename(req.Title))
		return
	}

	html, err := rendering.RenderHTML(view)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.htmlResponse(w, html, "")
}

// storedView builds the view of a stored resume. A template that has left
// the catalog falls back to the default style.
func (s *Server) storedView(ctx context.Context, stored *resume.StoredResume) rendering.View {
	style, err := s.catalog.StyleFor(ctx, stored.TemplateID)
	if err != nil {
		if !errors.Is(err, templates.ErrTemplateNotFound) {
			s.logger.Warn("failed to resolve template", zap.String("template_id", stored.TemplateID), zap.Error(err))
		}
		style = templates.DefaultStyle()
	}
	return rendering.Preview(stored.Document(), &style)
}

// htmlResponse writes an HTML body. A non-empty filename marks the body as an
// inline document for the browser's print facility.
func (s *Server) htmlResponse(w http.ResponseWriter, html, filename string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if filename != "" {
		w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		s.logger.Debug("failed to write HTML response", zap.Error(err))
	}
}

// exportFilename turns a title into a safe file name.
func exportFilename(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "resume"
	}
	return name + ".html"
}
