package server

import (
	"net/http"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/server/middleware"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	srv     *Server
	service AuthService
}

// NewAuthHandler creates a new AuthHandler over the server's auth service.
func NewAuthHandler(s *Server) *AuthHandler {
	return &AuthHandler{srv: s, service: s.auth}
}

// PendingResponse acknowledges a sign-up or resend. The code itself goes to
// the account's email.
type PendingResponse struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}

// StatusPendingVerification is the status of an account awaiting its code.
const StatusPendingVerification = "pending_verification"

// SignUp handles account creation requests.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpRequest
	if err := h.srv.decodeJSON(w, r, &req); err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}

	account, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}

	h.srv.jsonResponse(w, http.StatusAccepted, PendingResponse{
		Status: StatusPendingVerification,
		Email:  account.Email,
	})
}

// Verify exchanges a passcode for a session.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyRequest
	if err := h.srv.decodeJSON(w, r, &req); err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}

	session, err := h.service.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}
	h.srv.jsonResponse(w, http.StatusOK, session)
}

// Resend sends a fresh passcode.
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req auth.ResendRequest
	if err := h.srv.decodeJSON(w, r, &req); err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}

	if err := h.service.ResendCode(r.Context(), req.Email); err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}
	h.srv.jsonResponse(w, http.StatusAccepted, PendingResponse{
		Status: StatusPendingVerification,
		Email:  auth.NormalizeEmail(req.Email),
	})
}

// SignIn handles password sign-in requests.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInRequest
	if err := h.srv.decodeJSON(w, r, &req); err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}
	h.srv.jsonResponse(w, http.StatusOK, session)
}

// SignOut revokes the session the request was made with.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r)
	if !ok {
		h.srv.errorResponse(w, r, &auth.ErrUnauthorized{Reason: "missing session"})
		return
	}

	if err := h.service.SignOut(r.Context(), token); err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the account behind the current session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r)
	if !ok {
		h.srv.errorResponse(w, r, &auth.ErrUnauthorized{Reason: "missing session"})
		return
	}

	account, err := h.service.CurrentAccount(r.Context(), token)
	if err != nil {
		h.srv.errorResponse(w, r, err)
		return
	}
	h.srv.jsonResponse(w, http.StatusOK, account)
}
