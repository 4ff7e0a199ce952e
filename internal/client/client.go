// Package client is a Go client for the resume builder HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/jonathan/resume-builder/internal/templates"
)

// DefaultTimeout bounds every request when the caller supplies no client.
const DefaultTimeout = 15 * time.Second

const maxResponseBytes = 4 << 20

// Client talks to one API base URL. It holds no session; protected calls
// take the bearer token explicitly.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a client for baseURL. A nil httpClient gets DefaultTimeout.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

// SignUp creates an account awaiting its verification code.
func (c *Client) SignUp(ctx context.Context, req auth.SignUpRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/signup", "", req, nil)
}

// VerifyCode exchanges the emailed code for a session.
func (c *Client) VerifyCode(ctx context.Context, email, code string) (*auth.Session, error) {
	var session auth.Session
	if err := c.do(ctx, http.MethodPost, "/auth/verify", "", auth.VerifyRequest{Email: email, Code: code}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ResendCode asks for a fresh verification code.
func (c *Client) ResendCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend", "", auth.ResendRequest{Email: email}, nil)
}

// SignIn signs in with a password.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	var session auth.Session
	if err := c.do(ctx, http.MethodPost, "/auth/signin", "", auth.SignInRequest{Email: email, Password: password}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/signout", token, nil, nil)
}

// CurrentAccount resolves token to its account.
func (c *Client) CurrentAccount(ctx context.Context, token string) (*auth.Account, error) {
	var account auth.Account
	if err := c.do(ctx, http.MethodGet, "/auth/session", token, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListResumes returns the account's resumes, most recent first. The server
// creates one when the account has none.
func (c *Client) ListResumes(ctx context.Context, token string) ([]resume.StoredResume, error) {
	var list []resume.StoredResume
	if err := c.do(ctx, http.MethodGet, "/resumes", token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateResume creates an empty resume. Empty arguments take server defaults.
func (c *Client) CreateResume(ctx context.Context, token, title, templateID string) (*resume.StoredResume, error) {
	var created resume.StoredResume
	req := server.CreateResumeRequest{Title: title, TemplateID: templateID}
	if err := c.do(ctx, http.MethodPost, "/resumes", token, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetResume fetches one resume.
func (c *Client) GetResume(ctx context.Context, token string, id uuid.UUID) (*resume.StoredResume, error) {
	var stored resume.StoredResume
	if err := c.do(ctx, http.MethodGet, "/resumes/"+id.String(), token, nil, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// SaveResume writes every section of a resume. The request's version must be
// the one last read, or the call fails with ErrStaleWrite.
func (c *Client) SaveResume(ctx context.Context, token string, id uuid.UUID, req server.SaveResumeRequest) (*resume.StoredResume, error) {
	var saved resume.StoredResume
	if err := c.do(ctx, http.MethodPut, "/resumes/"+id.String(), token, req, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Templates returns the template catalog.
func (c *Client) Templates(ctx context.Context) ([]templates.Template, error) {
	var list []templates.Template
	if err := c.do(ctx, http.MethodGet, "/templates", "", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Suggestion returns a random writing tip.
func (c *Client) Suggestion(ctx context.Context) (string, error) {
	var resp server.SuggestionResponse
	if err := c.do(ctx, http.MethodGet, "/suggestions", "", nil, &resp); err != nil {
		return "", err
	}
	return resp.Suggestion, nil
}

// Preview renders a document on the server and returns the HTML.
func (c *Client) Preview(ctx context.Context, req server.PreviewRequest) (string, error) {
	var html string
	if err := c.do(ctx, http.MethodPost, "/preview", "", req, &html); err != nil {
		return "", err
	}
	return html, nil
}

// do sends body as JSON and decodes a 2xx response into out. A *string out
// receives the raw body.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	endpoint := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Op: method + " " + path, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, data)
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *string:
		*dst = string(data)
		return nil
	default:
		if err := json.Unmarshal(data, dst); err != nil {
			return &NetworkError{Op: method + " " + path, Cause: fmt.Errorf("invalid response body: %w", err)}
		}
		return nil
	}
}

func decodeError(resp *http.Response, data []byte) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body server.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
		apiErr.Field = body.Field
		apiErr.RetryAfter = time.Duration(body.RetryAfter) * time.Second
	}
	if apiErr.Code == "" {
		apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
	}
	if apiErr.RetryAfter == 0 {
		var seconds int
		if _, err := fmt.Sscan(resp.Header.Get("Retry-After"), &seconds); err == nil {
			apiErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}
	return apiErr
}

// IsUnauthorized reports whether err means the session is no longer valid.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
