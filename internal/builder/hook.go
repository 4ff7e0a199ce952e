package builder

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/jonathan/resume-builder/internal/templates"
	"github.com/jonathan/resume-builder/internal/validation"
)

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrNoCurrentResume  = errors.New("no resume is open")
	ErrSaveInProgress   = errors.New("a save is already in progress")
	ErrResumeNotFound   = errors.New("resume not in the loaded list")
)

// ResumeStore is the storage collaborator, keyed by the session token.
type ResumeStore interface {
	ListResumes(ctx context.Context, token string) ([]resume.StoredResume, error)
	CreateResume(ctx context.Context, token, title, templateID string) (*resume.StoredResume, error)
	SaveResume(ctx context.Context, token string, id uuid.UUID, req server.SaveResumeRequest) (*resume.StoredResume, error)
}

// ResumeHook caches the account's resumes and tracks the one being edited.
type ResumeHook struct {
	store    ResumeStore
	session  *Session
	notifier Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	resumes []resume.StoredResume
	current *resume.StoredResume
	loading bool
	saving  bool
}

// NewResumeHook creates a hook reading the token from session.
func NewResumeHook(store ResumeStore, session *Session, notifier Notifier, logger *zap.Logger) *ResumeHook {
	if notifier == nil {
		notifier = discard{}
	}
	logger = logging.OrNop(logger)
	return &ResumeHook{store: store, session: session, notifier: notifier, logger: logger}
}

func (h *ResumeHook) IsLoading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

func (h *ResumeHook) IsSaving() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.saving
}

// Resumes returns the cached list, most recently updated first.
func (h *ResumeHook) Resumes() []resume.StoredResume {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]resume.StoredResume, len(h.resumes))
	copy(out, h.resumes)
	return out
}

// Current returns a copy of the resume being edited, or nil.
func (h *ResumeHook) Current() *resume.StoredResume {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return nil
	}
	cur := *h.current
	return &cur
}

// Load fetches the account's resumes and opens the most recent one,
// creating an empty resume when there are none. On failure the cached
// list and current resume are left as they were.
func (h *ResumeHook) Load(ctx context.Context) error {
	return h.load(ctx, uuid.Nil)
}

func (h *ResumeHook) load(ctx context.Context, keep uuid.UUID) error {
	token := h.session.Token()
	if !h.session.Authenticated() {
		return ErrNotAuthenticated
	}

	h.setLoading(true)
	defer h.setLoading(false)

	list, err := h.store.ListResumes(ctx, token)
	if err == nil && len(list) == 0 {
		var created *resume.StoredResume
		created, err = h.store.CreateResume(ctx, token, db.DefaultResumeTitle, templates.DefaultTemplateID)
		if created != nil {
			list = []resume.StoredResume{*created}
		}
	}
	if err != nil {
		h.logger.Warn("loading resumes failed", zap.Error(err))
		h.notifier.Notify(failure("Error loading resumes", validation.CategoryStorage, err))
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.resumes = list
	h.current = pick(list, keep)
	return nil
}

// Save writes doc and templateID to the current resume. A second Save while
// one is running is refused. On failure doc stays with the caller and
// nothing cached changes; on success the list is reloaded.
func (h *ResumeHook) Save(ctx context.Context, doc resume.Document, templateID string) error {
	token := h.session.Token()
	if !h.session.Authenticated() {
		return ErrNotAuthenticated
	}

	h.mu.Lock()
	if h.current == nil {
		h.mu.Unlock()
		return ErrNoCurrentResume
	}
	if h.saving {
		h.mu.Unlock()
		return ErrSaveInProgress
	}
	h.saving = true
	cur := *h.current
	h.mu.Unlock()
	defer h.setSaving(false)

	req := server.NewSaveResumeRequest(cur.Title, templateID, cur.Version, doc)
	saved, err := h.store.SaveResume(ctx, token, cur.ID, req)
	if err != nil {
		h.logger.Warn("saving resume failed", zap.Stringer("resume_id", cur.ID), zap.Error(err))
		n := failure("Error saving resume", validation.CategoryStorage, err)
		if n.Category == validation.CategoryStorage {
			n.Message = "Please try again."
		}
		h.notifier.Notify(n)
		return err
	}

	h.mu.Lock()
	if h.current != nil && h.current.ID == saved.ID {
		h.current = saved
	}
	h.mu.Unlock()
	h.notifier.Notify(success("Resume saved", "Your changes have been saved successfully."))

	// The save stands even if the refresh fails; load reports its own error.
	_ = h.load(ctx, saved.ID)
	return nil
}

// Create adds a new empty resume and opens it.
func (h *ResumeHook) Create(ctx context.Context, title string) (*resume.StoredResume, error) {
	token := h.session.Token()
	if !h.session.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	if title == "" {
		title = db.DefaultResumeTitle
	}

	created, err := h.store.CreateResume(ctx, token, title, templates.DefaultTemplateID)
	if err != nil {
		h.logger.Warn("creating resume failed", zap.Error(err))
		h.notifier.Notify(failure("Error creating resume", validation.CategoryStorage, err))
		return nil, err
	}
	h.notifier.Notify(success("New resume created", "You can now start building your resume."))

	if err := h.load(ctx, created.ID); err != nil {
		h.mu.Lock()
		h.resumes = append([]resume.StoredResume{*created}, h.resumes...)
		h.current = created
		h.mu.Unlock()
	}
	return h.Current(), nil
}

// Open makes the cached resume with id current.
func (h *ResumeHook) Open(id uuid.UUID) (*resume.StoredResume, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.resumes {
		if h.resumes[i].ID == id {
			cur := h.resumes[i]
			h.current = &cur
			out := cur
			return &out, nil
		}
	}
	return nil, ErrResumeNotFound
}

// Reset forgets everything cached, e.g. after sign-out.
func (h *ResumeHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resumes = nil
	h.current = nil
}

// ToDocument converts a stored resume, or nil, into a complete document.
func ToDocument(r *resume.StoredResume) resume.Document {
	return r.Document()
}

func (h *ResumeHook) setLoading(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loading = v
}

func (h *ResumeHook) setSaving(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saving = v
}

// pick returns the entry with id keep, or the first entry.
func pick(list []resume.StoredResume, keep uuid.UUID) *resume.StoredResume {
	if len(list) == 0 {
		return nil
	}
	for i := range list {
		if list[i].ID == keep {
			cur := list[i]
			return &cur
		}
	}
	cur := list[0]
	return &cur
}
