package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/templates"
	"github.com/jonathan/resume-builder/internal/validation"
)

func newBuilder(t *testing.T, c *fakeClient, opts ...Option) (*Builder, *Inbox) {
	t.Helper()
	inbox := &Inbox{}
	opts = append([]Option{WithNotifier(inbox), WithLogger(zap.NewNop())}, opts...)
	return New(c, opts...), inbox
}

func signIn(t *testing.T, b *Builder) {
	t.Helper()
	require.NoError(t, b.Auth().SetField("email", "jane@example.com"))
	require.NoError(t, b.Auth().SetField("password", "anything"))
	require.NoError(t, b.Auth().SignIn(context.Background()))
}

func TestScreen(t *testing.T) {
	c := newFakeClient()
	b, _ := newBuilder(t, c)
	assert.Equal(t, ScreenAuth, b.Screen())

	signIn(t, b)
	assert.Equal(t, ScreenBuilder, b.Screen())

	require.NoError(t, b.SignOut(context.Background()))
	assert.Equal(t, ScreenAuth, b.Screen())
}

func TestSignIn_LoadsMostRecentResume(t *testing.T) {
	c := newFakeClient()
	c.resumes = []resume.StoredResume{{
		ID:              uuid.New(),
		Title:           "Platform roles",
		TemplateID:      "classic",
		PersonalDetails: &resume.PersonalDetails{FullName: "Jane Doe", Email: "jane@example.com"},
		Version:         2,
	}}
	b, _ := newBuilder(t, c)

	signIn(t, b)

	assert.Equal(t, "Jane Doe", b.Document().PersonalDetails.FullName)
	assert.Equal(t, "classic", b.TemplateID())
	assert.Equal(t, "Platform roles", b.Resumes().Current().Title)
	assert.Equal(t, 20, b.Completion())
}

func TestStart_RestoresSession(t *testing.T) {
	c := newFakeClient()
	b, _ := newBuilder(t, c)

	require.NoError(t, b.Start(context.Background(), c.token))

	assert.Equal(t, ScreenBuilder, b.Screen())
	assert.NotNil(t, b.Resumes().Current())
	assert.Equal(t, 1, c.count("ListResumes"))
}

func TestCompletion_AddingEducationAddsTwenty(t *testing.T) {
	b, _ := newBuilder(t, newFakeClient())
	assert.Equal(t, 0, b.Completion())

	id := b.AddEducation()
	require.NoError(t, b.UpdateEducation(id, "degree", "B.Sc."))

	assert.Equal(t, 20, b.Completion())
}

func TestCompletion_AllChecks(t *testing.T) {
	b, _ := newBuilder(t, newFakeClient())

	require.NoError(t, b.SetPersonalDetail("fullName", "Jane Doe"))
	assert.Equal(t, 0, b.Completion())
	require.NoError(t, b.SetPersonalDetail("email", "jane@example.com"))
	assert.Equal(t, 20, b.Completion())

	b.AddEducation()
	b.AddExperience()
	b.AddProject()
	assert.Equal(t, 80, b.Completion())

	b.SetSkillInput(resume.Languages, "Go")
	added, err := b.SkillKey(resume.Languages, "Enter")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 100, b.Completion())
	assert.Empty(t, b.SkillInput(resume.Languages))
}

func TestSections(t *testing.T) {
	b, _ := newBuilder(t, newFakeClient())

	first := b.AddExperience()
	second := b.AddExperience()
	assert.NotEqual(t, first, second)
	require.NoError(t, b.UpdateExperience(second, "company", "Acme"))
	b.RemoveExperience(first)
	require.Len(t, b.Document().Experience, 1)
	assert.Equal(t, "Acme", b.Document().Experience[0].Company)

	p := b.AddProject()
	require.NoError(t, b.UpdateProject(p, "name", "Parser"))
	assert.Error(t, b.UpdateProject(p, "stars", "5"))
	b.RemoveProject(p)
	assert.Empty(t, b.Document().Projects)

	e := b.AddEducation()
	b.RemoveEducation(e)
	assert.Empty(t, b.Document().Education)

	assert.Error(t, b.SetPersonalDetail("age", "30"))
}

func TestSkills(t *testing.T) {
	b, _ := newBuilder(t, newFakeClient())

	b.SetSkillInput(resume.Tools, "Docker")
	added, err := b.SkillKey(resume.Tools, "a")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "Docker", b.SkillInput(resume.Tools))

	added, err = b.CommitSkill(resume.Tools)
	require.NoError(t, err)
	assert.True(t, added)

	b.SetSkillInput(resume.Tools, "Docker")
	added, err = b.CommitSkill(resume.Tools)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"Docker"}, b.Document().Skills.Tools)

	require.NoError(t, b.RemoveSkill(resume.Tools, "Docker"))
	assert.Empty(t, b.Document().Skills.Tools)
}

func TestSave_OfflineKeepsDocument(t *testing.T) {
	c := newFakeClient()
	b, inbox := newBuilder(t, c)
	signIn(t, b)

	require.NoError(t, b.SetPersonalDetail("fullName", "Jane Doe"))
	id := b.AddEducation()
	require.NoError(t, b.UpdateEducation(id, "degree", "B.Sc."))
	edited := b.Document()
	versionBefore := b.Resumes().Current().Version

	c.saveErr = errOffline
	err := b.Save(context.Background())
	require.Error(t, err)

	assert.False(t, b.Resumes().IsSaving())
	assert.Equal(t, edited, b.Document())
	assert.Equal(t, versionBefore, b.Resumes().Current().Version)

	n, ok := inbox.Last()
	require.True(t, ok)
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Error saving resume", n.Title)
	assert.Equal(t, validation.GenericErrorMessage(validation.CategoryNetwork), n.Message)

	c.saveErr = nil
	require.NoError(t, b.Save(context.Background()))
	assert.Equal(t, edited, b.Document())
	assert.Equal(t, versionBefore+1, b.Resumes().Current().Version)
}

func TestSave_SendsSelectedTemplate(t *testing.T) {
	c := newFakeClient()
	b, _ := newBuilder(t, c)
	signIn(t, b)

	require.NoError(t, b.SelectTemplate(context.Background(), "minimal"))
	require.NoError(t, b.Save(context.Background()))

	require.Len(t, c.saved, 1)
	assert.Equal(t, "minimal", c.saved[0].TemplateID)
	assert.Equal(t, "minimal", b.Resumes().Current().TemplateID)
}

func TestSelectTemplate(t *testing.T) {
	b, _ := newBuilder(t, newFakeClient())

	err := b.SelectTemplate(context.Background(), "neon")
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
	assert.Equal(t, templates.DefaultTemplateID, b.TemplateID())

	require.NoError(t, b.SelectTemplate(context.Background(), "creative"))
	assert.Equal(t, "creative", b.TemplateID())
	assert.Equal(t, "creative", b.Preview().Style.Layout)
}

func TestTemplates_FallBackWhenUnavailable(t *testing.T) {
	c := newFakeClient()
	c.templateErr = errors.New("connection refused")
	core, logs := observer.New(zap.WarnLevel)
	b, _ := newBuilder(t, c, WithLogger(zap.New(core)))

	assert.Equal(t, templates.Builtin(), b.Templates(context.Background()))
	assert.Equal(t, 1, logs.FilterMessageSnippet("built-in catalog").Len())
}

func TestOpenResume_UnknownTemplateUsesDefault(t *testing.T) {
	c := newFakeClient()
	keep := resume.StoredResume{ID: uuid.New(), Title: "Kept", Version: 1}
	odd := resume.StoredResume{ID: uuid.New(), Title: "Odd", TemplateID: "retired", Version: 1}
	c.resumes = []resume.StoredResume{keep, odd}
	b, _ := newBuilder(t, c)
	signIn(t, b)

	require.NoError(t, b.OpenResume(context.Background(), odd.ID))
	assert.Equal(t, templates.DefaultTemplateID, b.TemplateID())
	assert.Equal(t, odd.ID, b.Resumes().Current().ID)

	assert.ErrorIs(t, b.OpenResume(context.Background(), uuid.New()), ErrResumeNotFound)
}

func TestNewResume_ResetsDocument(t *testing.T) {
	c := newFakeClient()
	b, _ := newBuilder(t, c)
	signIn(t, b)
	require.NoError(t, b.SetPersonalDetail("fullName", "Jane Doe"))

	require.NoError(t, b.NewResume(context.Background(), "Second"))

	assert.Equal(t, resume.Empty(), b.Document())
	assert.Equal(t, "Second", b.Resumes().Current().Title)
}

func TestSignOut_ClearsDocument(t *testing.T) {
	c := newFakeClient()
	b, _ := newBuilder(t, c)
	signIn(t, b)
	require.NoError(t, b.SetPersonalDetail("fullName", "Jane Doe"))
	require.NoError(t, b.SelectTemplate(context.Background(), "classic"))

	require.NoError(t, b.SignOut(context.Background()))

	assert.Equal(t, resume.Empty(), b.Document())
	assert.Equal(t, templates.DefaultTemplateID, b.TemplateID())
	assert.Nil(t, b.Resumes().Current())
	assert.ErrorIs(t, b.Save(context.Background()), ErrNotAuthenticated)
}

func TestSuggestion(t *testing.T) {
	b, _ := newBuilder(t, newFakeClient(), WithSuggestionPicker(func(n int) int { return n - 1 }))

	all := resume.Suggestions()
	assert.Equal(t, all[len(all)-1], b.Suggestion())
}

func TestPreviewAndExport(t *testing.T) {
	c := newFakeClient()
	b, _ := newBuilder(t, c)

	assert.True(t, b.Preview().Empty)

	signIn(t, b)
	require.NoError(t, b.SetPersonalDetail("fullName", "Jane <Doe>"))
	html, err := b.PreviewHTML()
	require.NoError(t, err)
	assert.Contains(t, html, "Jane &lt;Doe&gt;")

	doc, err := b.Export()
	require.NoError(t, err)
	assert.Contains(t, doc, "window.print()")
	assert.Contains(t, doc, "My Resume")
}

func TestSetDocument_Normalizes(t *testing.T) {
	b, _ := newBuilder(t, newFakeClient())
	b.SetDocument(resume.Document{PersonalDetails: resume.PersonalDetails{FullName: "Jane"}})

	assert.NotNil(t, b.Document().Education)
	assert.NotNil(t, b.Document().Skills.Tools)
}

func TestNew_NilLoggerIsSafe(t *testing.T) {
	c := newFakeClient()
	c.resumes = []resume.StoredResume{{ID: uuid.New(), Title: "Odd", TemplateID: "retired", Version: 1}}
	b := New(c, WithLogger(nil))

	signIn(t, b)
	assert.Equal(t, templates.DefaultTemplateID, b.TemplateID())
}
