// Package builder is the client-side resume builder: it owns the live
// document, sequences the authentication screens, and persists edits
// through the API.
//
// A Builder is driven by one owner and is not safe for concurrent use. The
// auth flow cooldown and the hook's loading and saving flags may be read
// from other goroutines.
package builder

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/templates"
)

// Client is everything the builder needs from the API.
type Client interface {
	AuthClient
	ResumeStore
	templates.Source
}

// Screen is the top-level screen to show.
type Screen string

const (
	ScreenAuth    Screen = "auth"
	ScreenBuilder Screen = "builder"
)

// Option configures a Builder.
type Option func(*Builder)

// WithNotifier routes notifications to n.
func WithNotifier(n Notifier) Option {
	return func(b *Builder) { b.notifier = n }
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithSuggestionPicker replaces the random index source for Suggestion.
func WithSuggestionPicker(pick func(n int) int) Option {
	return func(b *Builder) { b.pick = pick }
}

func WithIDGenerator(ids *resume.IDGenerator) Option {
	return func(b *Builder) { b.ids = ids }
}

// Builder ties the session, auth flow, and resume hook to the document
// being edited.
type Builder struct {
	notifier Notifier
	logger   *zap.Logger
	pick     func(n int) int
	ids      *resume.IDGenerator

	session *Session
	auth    *AuthFlow
	resumes *ResumeHook
	catalog *templates.Catalog

	doc        resume.Document
	skills     resume.SkillInputs
	templateID string
	style      templates.Style
}

// New creates a builder talking to c.
func New(c Client, opts ...Option) *Builder {
	b := &Builder{
		notifier:   discard{},
		doc:        resume.Empty(),
		skills:     resume.SkillInputs{},
		templateID: templates.DefaultTemplateID,
		style:      templates.DefaultStyle(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.OrNop(b.logger)
	if b.ids == nil {
		b.ids = resume.NewIDGenerator()
	}

	b.session = NewSession()
	b.auth = NewAuthFlow(c, b.session, b.notifier, b.logger.Named("auth"))
	b.resumes = NewResumeHook(c, b.session, b.notifier, b.logger.Named("resumes"))
	b.catalog = templates.NewCatalog(c, b.logger.Named("templates"))

	b.auth.onAuthenticated = b.loadResumes
	b.auth.onSignedOut = b.reset
	return b
}

func (b *Builder) Session() *Session         { return b.session }
func (b *Builder) Auth() *AuthFlow           { return b.auth }
func (b *Builder) Resumes() *ResumeHook      { return b.resumes }
func (b *Builder) Document() resume.Document { return b.doc }

// Start restores a session from token, if any, and loads its resumes.
func (b *Builder) Start(ctx context.Context, token string) error {
	return b.auth.Bootstrap(ctx, token)
}

// Screen is the builder once signed in, the auth screens otherwise.
func (b *Builder) Screen() Screen {
	if b.session.Authenticated() {
		return ScreenBuilder
	}
	return ScreenAuth
}

// Completion is the completion percentage of the current document.
func (b *Builder) Completion() int {
	return resume.CalculateCompletion(b.doc)
}

// Suggestion returns a random writing tip.
func (b *Builder) Suggestion() string {
	return resume.Suggest(b.pick)
}

// SetDocument replaces the whole document.
func (b *Builder) SetDocument(doc resume.Document) {
	b.doc = doc.Normalized()
}

func (b *Builder) SetPersonalDetail(field, value string) error {
	p, err := resume.UpdatePersonalDetails(b.doc.PersonalDetails, field, value)
	if err != nil {
		return err
	}
	b.doc.PersonalDetails = p
	return nil
}

// AddEducation appends an empty entry and returns its id.
func (b *Builder) AddEducation() string {
	b.doc.Education = resume.AddEducation(b.doc.Education, b.ids)
	return b.doc.Education[len(b.doc.Education)-1].ID
}

func (b *Builder) UpdateEducation(id, field, value string) error {
	list, err := resume.UpdateEducation(b.doc.Education, id, field, value)
	if err != nil {
		return err
	}
	b.doc.Education = list
	return nil
}

func (b *Builder) RemoveEducation(id string) {
	b.doc.Education = resume.RemoveEducation(b.doc.Education, id)
}

// AddExperience appends an empty entry and returns its id.
func (b *Builder) AddExperience() string {
	b.doc.Experience = resume.AddExperience(b.doc.Experience, b.ids)
	return b.doc.Experience[len(b.doc.Experience)-1].ID
}

func (b *Builder) UpdateExperience(id, field, value string) error {
	list, err := resume.UpdateExperience(b.doc.Experience, id, field, value)
	if err != nil {
		return err
	}
	b.doc.Experience = list
	return nil
}

func (b *Builder) RemoveExperience(id string) {
	b.doc.Experience = resume.RemoveExperience(b.doc.Experience, id)
}

// AddProject appends an empty entry and returns its id.
func (b *Builder) AddProject() string {
	b.doc.Projects = resume.AddProject(b.doc.Projects, b.ids)
	return b.doc.Projects[len(b.doc.Projects)-1].ID
}

func (b *Builder) UpdateProject(id, field, value string) error {
	list, err := resume.UpdateProject(b.doc.Projects, id, field, value)
	if err != nil {
		return err
	}
	b.doc.Projects = list
	return nil
}

func (b *Builder) RemoveProject(id string) {
	b.doc.Projects = resume.RemoveProject(b.doc.Projects, id)
}

// SetSkillInput buffers typed text for a skill category.
func (b *Builder) SetSkillInput(c resume.Category, value string) {
	b.skills.Set(c, value)
}

func (b *Builder) SkillInput(c resume.Category) string {
	return b.skills.Pending(c)
}

// SkillKey handles a key press in a skill input; Enter commits the buffer.
func (b *Builder) SkillKey(c resume.Category, key string) (bool, error) {
	s, added, err := b.skills.HandleKey(b.doc.Skills, c, key)
	if err != nil {
		return false, err
	}
	b.doc.Skills = s
	return added, nil
}

// CommitSkill adds the buffered text for c.
func (b *Builder) CommitSkill(c resume.Category) (bool, error) {
	s, added, err := b.skills.Commit(b.doc.Skills, c)
	if err != nil {
		return false, err
	}
	b.doc.Skills = s
	return added, nil
}

func (b *Builder) RemoveSkill(c resume.Category, skill string) error {
	s, err := resume.RemoveSkill(b.doc.Skills, c, skill)
	if err != nil {
		return err
	}
	b.doc.Skills = s
	return nil
}

// Templates lists the catalog, falling back to the built-in set.
func (b *Builder) Templates(ctx context.Context) []templates.Template {
	return b.catalog.List(ctx)
}

// SelectTemplate switches the preview to template id.
func (b *Builder) SelectTemplate(ctx context.Context, id string) error {
	sel, err := b.catalog.Select(ctx, id)
	if err != nil {
		return err
	}
	b.templateID = sel.ID
	b.style = sel.Style
	return nil
}

func (b *Builder) TemplateID() string { return b.templateID }

// Preview is the rendered view of the current document.
func (b *Builder) Preview() rendering.View {
	style := b.style
	return rendering.Preview(b.doc, &style)
}

// PreviewHTML renders Preview as an HTML fragment.
func (b *Builder) PreviewHTML() (string, error) {
	return rendering.RenderHTML(b.Preview())
}

// Export renders the printable document for the current resume.
func (b *Builder) Export() (string, error) {
	title := ""
	if cur := b.resumes.Current(); cur != nil {
		title = cur.Title
	}
	return rendering.Export(b.Preview(), title)
}

// Save persists the document and selected template. The document in memory
// is never replaced by the save outcome.
func (b *Builder) Save(ctx context.Context) error {
	return b.resumes.Save(ctx, b.doc, b.templateID)
}

// NewResume creates and opens an empty resume.
func (b *Builder) NewResume(ctx context.Context, title string) error {
	created, err := b.resumes.Create(ctx, title)
	if err != nil {
		return err
	}
	b.open(ctx, created)
	return nil
}

// OpenResume switches to another loaded resume. Unsaved edits are dropped.
func (b *Builder) OpenResume(ctx context.Context, id uuid.UUID) error {
	r, err := b.resumes.Open(id)
	if err != nil {
		return err
	}
	b.open(ctx, r)
	return nil
}

// SignOut ends the session and clears the document.
func (b *Builder) SignOut(ctx context.Context) error {
	return b.auth.SignOut(ctx)
}

func (b *Builder) loadResumes(ctx context.Context) {
	if err := b.resumes.Load(ctx); err != nil {
		return
	}
	b.open(ctx, b.resumes.Current())
}

func (b *Builder) open(ctx context.Context, r *resume.StoredResume) {
	b.doc = ToDocument(r)
	b.skills = resume.SkillInputs{}
	b.templateID = templates.DefaultTemplateID
	b.style = templates.DefaultStyle()
	if r == nil || r.TemplateID == "" {
		return
	}
	if err := b.SelectTemplate(ctx, r.TemplateID); err != nil {
		b.logger.Warn("stored template unavailable, using default",
			zap.String("template_id", r.TemplateID), zap.Error(err))
	}
}

func (b *Builder) reset() {
	b.resumes.Reset()
	b.doc = resume.Empty()
	b.skills = resume.SkillInputs{}
	b.templateID = templates.DefaultTemplateID
	b.style = templates.DefaultStyle()
}
