package builder

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/client"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/jonathan/resume-builder/internal/templates"
)

var errOffline = &client.NetworkError{Op: "PUT /resumes", Cause: errors.New("dial tcp: connection refused")}

// fakeClient records calls and serves a single account's resumes.
type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	account auth.Account
	token   string

	signUpErr   error
	signInErr   error
	verifyErr   error
	resendErr   error
	signOutErr  error
	listErr     error
	saveErr     error
	templateErr error

	saveGate chan struct{}
	saved    []server.SaveResumeRequest
	resumes  []resume.StoredResume
	clock    time.Time
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		calls:   map[string]int{},
		account: auth.Account{ID: uuid.New(), Email: "jane@example.com", FullName: "Jane Doe", Verified: true},
		token:   "token-1",
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeClient) session() *auth.Session {
	return &auth.Session{Token: f.token, Account: f.account, ExpiresAt: f.clock.Add(time.Hour)}
}

func (f *fakeClient) authorized(token string) error {
	if token != f.token {
		return &client.APIError{Status: http.StatusUnauthorized, Code: "unauthorized"}
	}
	return nil
}

func (f *fakeClient) SignUp(_ context.Context, _ auth.SignUpRequest) error {
	f.record("SignUp")
	return f.signUpErr
}

func (f *fakeClient) VerifyCode(_ context.Context, _, _ string) (*auth.Session, error) {
	f.record("VerifyCode")
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.session(), nil
}

func (f *fakeClient) ResendCode(_ context.Context, _ string) error {
	f.record("ResendCode")
	return f.resendErr
}

func (f *fakeClient) SignIn(_ context.Context, _, _ string) (*auth.Session, error) {
	f.record("SignIn")
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session(), nil
}

func (f *fakeClient) SignOut(_ context.Context, _ string) error {
	f.record("SignOut")
	return f.signOutErr
}

func (f *fakeClient) CurrentAccount(_ context.Context, token string) (*auth.Account, error) {
	f.record("CurrentAccount")
	if err := f.authorized(token); err != nil {
		return nil, err
	}
	acc := f.account
	return &acc, nil
}

func (f *fakeClient) ListResumes(_ context.Context, token string) ([]resume.StoredResume, error) {
	f.record("ListResumes")
	if err := f.authorized(token); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]resume.StoredResume, len(f.resumes))
	copy(out, f.resumes)
	return out, nil
}

func (f *fakeClient) CreateResume(_ context.Context, token, title, templateID string) (*resume.StoredResume, error) {
	f.record("CreateResume")
	if err := f.authorized(token); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	r := resume.StoredResume{
		ID:         uuid.New(),
		UserID:     f.account.ID,
		Title:      title,
		TemplateID: templateID,
		IsActive:   true,
		Version:    1,
		CreatedAt:  f.clock,
		UpdatedAt:  f.clock,
	}
	f.resumes = append([]resume.StoredResume{r}, f.resumes...)
	return &r, nil
}

func (f *fakeClient) SaveResume(_ context.Context, token string, id uuid.UUID, req server.SaveResumeRequest) (*resume.StoredResume, error) {
	f.record("SaveResume")
	if f.saveGate != nil {
		<-f.saveGate
	}
	if err := f.authorized(token); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, req)

	for i, r := range f.resumes {
		if r.ID != id {
			continue
		}
		if r.Version != req.Version {
			return nil, &client.APIError{Status: http.StatusConflict, Code: "stale_write"}
		}
		doc := req.Document()
		f.clock = f.clock.Add(time.Minute)
		r.Title = req.Title
		r.TemplateID = req.TemplateID
		r.PersonalDetails = &doc.PersonalDetails
		r.Education = doc.Education
		r.Experience = doc.Experience
		r.Projects = doc.Projects
		r.Skills = &doc.Skills
		r.Version++
		r.UpdatedAt = f.clock
		rest := append(append([]resume.StoredResume{}, f.resumes[:i]...), f.resumes[i+1:]...)
		f.resumes = append([]resume.StoredResume{r}, rest...)
		return &r, nil
	}
	return nil, &client.APIError{Status: http.StatusNotFound, Code: "not_found"}
}

func (f *fakeClient) Templates(_ context.Context) ([]templates.Template, error) {
	f.record("Templates")
	if f.templateErr != nil {
		return nil, f.templateErr
	}
	return templates.Builtin(), nil
}
