package server

import (
	"net/http"
)

// SuggestionResponse carries one writing tip.
type SuggestionResponse struct {
	Suggestion string `json:"suggestion"`
}

// handleListTemplates returns the template catalog. It falls back to the
// built-in set, so it never fails.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.catalog.List(r.Context()))
}

// handleSuggestion returns a random tip from the static table
func (s *Server) handleSuggestion(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, SuggestionResponse{Suggestion: s.suggest()})
}
