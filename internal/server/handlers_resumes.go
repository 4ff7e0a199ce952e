package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/templates"
	"github.com/jonathan/resume-builder/internal/validation"
)

// CreateResumeRequest represents the request body for POST /resumes
type CreateResumeRequest struct {
	Title      string `json:"title" validate:"max=200"`
	TemplateID string `json:"template_id" validate:"max=64"`
}

// SaveResumeRequest carries every section of a resume plus the version the
// client last read.
type SaveResumeRequest struct {
	Title           string                 `json:"title" validate:"max=200"`
	PersonalDetails resume.PersonalDetails `json:"personal_details"`
	Education       []resume.Education     `json:"education"`
	Experience      []resume.Experience    `json:"experience"`
	Projects        []resume.Project       `json:"projects"`
	Skills          resume.Skills          `json:"skills"`
	TemplateID      string                 `json:"template_id" validate:"max=64"`
	Version         int                    `json:"version" validate:"required,min=1"`
}

// Document returns the sections of the request as a document.
func (r SaveResumeRequest) Document() resume.Document {
	return resume.Document{
		PersonalDetails: r.PersonalDetails,
		Education:       r.Education,
		Experience:      r.Experience,
		Projects:        r.Projects,
		Skills:          r.Skills,
	}.Normalized()
}

// NewSaveResumeRequest builds the save body for doc.
func NewSaveResumeRequest(title, templateID string, version int, doc resume.Document) SaveResumeRequest {
	doc = doc.Normalized()
	return SaveResumeRequest{
		Title:           title,
		PersonalDetails: doc.PersonalDetails,
		Education:       doc.Education,
		Experience:      doc.Experience,
		Projects:        doc.Projects,
		Skills:          doc.Skills,
		TemplateID:      templateID,
		Version:         version,
	}
}

// handleListResumes lists the account's resumes by recency, creating an empty
// one when the account has none.
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	list, err := s.resumes.ListOrCreateResumes(r.Context(), userID, db.DefaultResumeTitle, templates.DefaultTemplateID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, list)
}

// handleCreateResume creates a new empty resume
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var req CreateResumeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.checkTemplate(r.Context(), req.TemplateID); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	title := validation.SanitizeInput(req.Title, validation.MaxShortLength)
	if title == "" {
		title = db.DefaultResumeTitle
	}
	templateID := req.TemplateID
	if templateID == "" {
		templateID = templates.DefaultTemplateID
	}

	created, err := s.resumes.CreateResume(r.Context(), userID, title, templateID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// handleGetResume returns one of the account's resumes
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	stored, err := s.loadResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stored)
}

// handleSaveResume writes a full resume. A version older than the stored one
// is rejected with 409 stale_write.
func (s *Server) handleSaveResume(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := resumeID(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var req SaveResumeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	doc := req.Document()
	if err := validateEntries(doc); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.checkTemplate(r.Context(), req.TemplateID); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	saved, err := s.resumes.UpdateResume(r.Context(), userID, db.ResumeUpdate{
		ID:         id,
		Title:      validation.SanitizeInput(req.Title, validation.MaxShortLength),
		Document:   doc.Sanitized(),
		TemplateID: req.TemplateID,
		Version:    req.Version,
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, saved)
}

// loadResume resolves the path id to a resume owned by the caller.
func (s *Server) loadResume(r *http.Request) (*resume.StoredResume, error) {
	userID, err := requestUser(r)
	if err != nil {
		return nil, err
	}
	id, err := resumeID(r)
	if err != nil {
		return nil, err
	}
	return s.resumes.GetResume(r.Context(), userID, id)
}

// checkTemplate accepts an empty id (keep the current template) or an id
// present in the catalog.
func (s *Server) checkTemplate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.catalog.Select(ctx, id)
	return err
}

func requestUser(r *http.Request) (uuid.UUID, error) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return uuid.Nil, &auth.ErrUnauthorized{Reason: err.Error()}
	}
	return userID, nil
}

func resumeID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &requestError{Field: "id", Reason: "must be a UUID"}
	}
	return id, nil
}

// validateEntries requires every list entry to carry a unique id.
func validateEntries(doc resume.Document) error {
	check := func(section string, ids []string) error {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" || seen[id] {
				return &auth.ErrValidation{Field: section + ".id", Message: fmt.Sprintf("entries need unique ids, got %q", id)}
			}
			seen[id] = true
		}
		return nil
	}

	if err := check("education", entryIDs(doc.Education)); err != nil {
		return err
	}
	if err := check("experience", entryIDs(doc.Experience)); err != nil {
		return err
	}
	return check("projects", entryIDs(doc.Projects))
}

func entryIDs[T interface{ EntryID() string }](list []T) []string {
	ids := make([]string, len(list))
	for i, e := range list {
		ids[i] = e.EntryID()
	}
	return ids
}
