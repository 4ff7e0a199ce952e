package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/jonathan/resume-builder/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	c, err := New(ts.URL+"/", ts.Client())
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "/api"} {
		_, err := New(raw, nil)
		assert.Error(t, err, raw)
	}
}

func TestSignInAndSession(t *testing.T) {
	accountID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var req auth.SignInRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if req.Email == "new@example.com" {
			writeJSON(w, http.StatusForbidden, server.ErrorResponse{Error: "not_verified"})
			return
		}
		if req.Password != "right" {
			writeJSON(w, http.StatusUnauthorized, server.ErrorResponse{Error: "invalid_credentials", Message: "nope"})
			return
		}
		writeJSON(w, http.StatusOK, auth.Session{Token: "tok", Account: auth.Account{ID: accountID, Email: req.Email}})
	})
	mux.HandleFunc("GET /auth/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, server.ErrorResponse{Error: "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, auth.Account{ID: accountID})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	session, err := c.SignIn(ctx, "jane@example.com", "right")
	require.NoError(t, err)
	assert.Equal(t, "tok", session.Token)

	account, err := c.CurrentAccount(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, accountID, account.ID)

	_, err = c.CurrentAccount(ctx, "stale")
	assert.True(t, IsUnauthorized(err))

	_, err = c.SignIn(ctx, "jane@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_credentials", apiErr.Code)
	assert.Equal(t, validation.CategoryAuth, Category(err))

	_, err = c.SignIn(ctx, "new@example.com", "right")
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Equal(t, validation.CategoryAuth, Category(err))
}

func TestSignUpVerifyResend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req auth.SignUpRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Email == "taken@example.com" {
			writeJSON(w, http.StatusConflict, server.ErrorResponse{Error: "email_exists"})
			return
		}
		writeJSON(w, http.StatusAccepted, server.PendingResponse{Status: server.StatusPendingVerification, Email: req.Email})
	})
	mux.HandleFunc("POST /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, auth.Session{Token: "verified"})
	})
	mux.HandleFunc("POST /auth/resend", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "37")
		writeJSON(w, http.StatusTooManyRequests, server.ErrorResponse{Error: "resend_cooldown"})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, c.SignUp(ctx, auth.SignUpRequest{Email: "jane@example.com", Password: "p", FullName: "Jane"}))

	err := c.SignUp(ctx, auth.SignUpRequest{Email: "taken@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)

	session, err := c.VerifyCode(ctx, "jane@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, "verified", session.Token)

	err = c.ResendCode(ctx, "jane@example.com")
	assert.ErrorIs(t, err, ErrResendCooldown)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 37*time.Second, apiErr.RetryAfter)
	assert.Equal(t, validation.CategoryRateLimit, Category(err))
}

func TestResumes(t *testing.T) {
	id := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /resumes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []resume.StoredResume{{ID: id, Version: 3}})
	})
	mux.HandleFunc("POST /resumes", func(w http.ResponseWriter, r *http.Request) {
		var req server.CreateResumeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, http.StatusCreated, resume.StoredResume{ID: uuid.New(), Title: req.Title, Version: 1})
	})
	mux.HandleFunc("GET /resumes/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, server.ErrorResponse{Error: "not_found"})
	})
	mux.HandleFunc("PUT /resumes/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req server.SaveResumeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Version != 3 {
			writeJSON(w, http.StatusConflict, server.ErrorResponse{Error: "stale_write"})
			return
		}
		writeJSON(w, http.StatusOK, resume.StoredResume{ID: id, Version: 4, PersonalDetails: &req.PersonalDetails})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	list, err := c.ListResumes(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, list, 1)

	created, err := c.CreateResume(ctx, "tok", "Second", "")
	require.NoError(t, err)
	assert.Equal(t, "Second", created.Title)

	_, err = c.GetResume(ctx, "tok", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	doc := resume.Empty()
	doc.PersonalDetails.FullName = "Jane"
	saved, err := c.SaveResume(ctx, "tok", id, server.NewSaveResumeRequest("", "", 3, doc))
	require.NoError(t, err)
	assert.Equal(t, 4, saved.Version)
	assert.Equal(t, "Jane", saved.PersonalDetails.FullName)

	_, err = c.SaveResume(ctx, "tok", id, server.NewSaveResumeRequest("", "", 2, doc))
	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.Equal(t, validation.CategoryStorage, Category(err))
}

func TestPreviewAndCatalog(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /preview", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"template_id":"classic"`)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<article class="resume"></article>`))
	})
	mux.HandleFunc("GET /suggestions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, server.SuggestionResponse{Suggestion: "Quantify."})
	})
	mux.HandleFunc("GET /templates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]string{{"id": "modern", "name": "Modern"}})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	html, err := c.Preview(ctx, server.PreviewRequest{Document: resume.Empty(), TemplateID: "classic"})
	require.NoError(t, err)
	assert.Equal(t, `<article class="resume"></article>`, html)

	tip, err := c.Suggestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Quantify.", tip)

	list, err := c.Templates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "modern", list[0].ID)
}

func TestNetworkErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	c, err := New(ts.URL, ts.Client())
	require.NoError(t, err)

	_, err = c.ListResumes(context.Background(), "tok")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, validation.CategoryNetwork, Category(err))

	ts.Close()
	_, err = c.ListResumes(context.Background(), "tok")
	require.ErrorAs(t, err, &netErr)
	assert.False(t, IsUnauthorized(err))
}

func TestDecodeError_PlainBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /templates", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	c := newTestClient(t, mux)

	_, err := c.Templates(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad_gateway", apiErr.Code)
	assert.Equal(t, validation.CategoryNetwork, Category(err))
}

func TestCategory_Unknown(t *testing.T) {
	assert.Equal(t, validation.Category(""), Category(errors.New("x")))
	assert.Equal(t, validation.Category(""), Category(nil))
}
