package rendering

import (
	"strings"

	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/templates"
)

// PlaceholderName is shown in the header while the full name is empty.
const PlaceholderName = "Your Full Name"

// View is the presentation model of a resume. Optional parts are already
// resolved, so templates only test for presence.
type View struct {
	Name        string
	Placeholder bool
	Contact     []string
	Links       []string
	Summary     string
	Education   []EducationItem
	Experience  []ExperienceItem
	Projects    []ProjectItem
	Skills      []SkillRow
	Empty       bool
	Style       templates.Style
}

// EducationItem is one rendered education entry.
type EducationItem struct {
	Degree      string
	Institution string
	Year        string
	GPA         string
}

// ExperienceItem is one rendered experience entry. Employer is the company
// followed by ", location" when a location is present.
type ExperienceItem struct {
	Title       string
	Employer    string
	Duration    string
	Description string
}

// ProjectItem is one rendered project entry.
type ProjectItem struct {
	Name         string
	Link         string
	Technologies string
	Description  string
}

// SkillRow is one non-empty skill category.
type SkillRow struct {
	Label string
	Items string
}

var skillLabels = []struct {
	category resume.Category
	label    string
}{
	{resume.Technical, "Technical Skills"},
	{resume.Languages, "Programming Languages"},
	{resume.Frameworks, "Frameworks & Libraries"},
	{resume.Tools, "Tools & Technologies"},
}

// Preview builds the view of doc. A nil style uses templates.DefaultStyle.
func Preview(doc resume.Document, style *templates.Style) View {
	p := doc.PersonalDetails
	v := View{
		Name:    p.FullName,
		Contact: nonEmpty(p.Email, p.Phone, p.Location),
		Links:   nonEmpty(p.LinkedIn, p.Portfolio),
		Summary: p.Summary,
		Empty:   p.FullName == "" && p.Email == "",
		Style:   templates.DefaultStyle(),
	}
	if style != nil {
		v.Style = *style
	}
	if v.Name == "" {
		v.Name = PlaceholderName
		v.Placeholder = true
	}

	for _, e := range doc.Education {
		v.Education = append(v.Education, EducationItem{
			Degree:      e.Degree,
			Institution: e.Institution,
			Year:        e.Year,
			GPA:         e.GPA,
		})
	}

	for _, e := range doc.Experience {
		employer := e.Company
		if e.Location != "" {
			employer += ", " + e.Location
		}
		v.Experience = append(v.Experience, ExperienceItem{
			Title:       e.Title,
			Employer:    employer,
			Duration:    e.Duration,
			Description: e.Description,
		})
	}

	for _, pr := range doc.Projects {
		v.Projects = append(v.Projects, ProjectItem{
			Name:         pr.Name,
			Link:         pr.Link,
			Technologies: pr.Technologies,
			Description:  pr.Description,
		})
	}

	for _, sl := range skillLabels {
		if items := doc.Skills.Of(sl.category); len(items) > 0 {
			v.Skills = append(v.Skills, SkillRow{Label: sl.label, Items: strings.Join(items, ", ")})
		}
	}

	return v
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
