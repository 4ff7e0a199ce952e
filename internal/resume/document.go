// Package resume holds the resume document aggregate and the pure update
// functions the builder applies to it. Every function returns a new value;
// inputs are never modified in place.
package resume

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/validation"
)

// Document is the in-memory aggregate of all resume content sections.
type Document struct {
	PersonalDetails PersonalDetails `json:"personalDetails"`
	Education       []Education     `json:"education"`
	Experience      []Experience    `json:"experience"`
	Projects        []Project       `json:"projects"`
	Skills          Skills          `json:"skills"`
}

// PersonalDetails is the flat contact record at the top of a resume.
type PersonalDetails struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	LinkedIn  string `json:"linkedin"`
	Portfolio string `json:"portfolio"`
	Summary   string `json:"summary"`
}

// Education is one education entry.
type Education struct {
	ID          string `json:"id"`
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
	GPA         string `json:"gpa,omitempty"`
}

// Experience is one work experience entry.
type Experience struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// Project is one project entry.
type Project struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
	Link         string `json:"link,omitempty"`
}

// Skills holds four independent skill sets.
type Skills struct {
	Technical  []string `json:"technical"`
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
	Tools      []string `json:"tools"`
}

// StoredResume is the persisted form of a Document plus ownership and
// template metadata. Section fields are nil when absent from storage.
type StoredResume struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	Title           string           `json:"title"`
	PersonalDetails *PersonalDetails `json:"personal_details"`
	Education       []Education      `json:"education"`
	Experience      []Experience     `json:"experience"`
	Projects        []Project        `json:"projects"`
	Skills          *Skills          `json:"skills"`
	TemplateID      string           `json:"template_id"`
	IsActive        bool             `json:"is_active"`
	Version         int              `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Empty returns a document with every text field empty and every list
// non-nil and empty.
func Empty() Document {
	return Document{
		Education:  []Education{},
		Experience: []Experience{},
		Projects:   []Project{},
		Skills:     EmptySkills(),
	}
}

// EmptySkills returns skill sets with all four categories empty.
func EmptySkills() Skills {
	return Skills{
		Technical:  []string{},
		Languages:  []string{},
		Frameworks: []string{},
		Tools:      []string{},
	}
}

// Document converts a stored row into a complete document. Absent sections
// become empty; a nil receiver yields Empty(). The row is not aliased.
func (r *StoredResume) Document() Document {
	if r == nil {
		return Empty()
	}
	doc := Document{
		Education:  append([]Education{}, r.Education...),
		Experience: append([]Experience{}, r.Experience...),
		Projects:   append([]Project{}, r.Projects...),
		Skills:     EmptySkills(),
	}
	if r.PersonalDetails != nil {
		doc.PersonalDetails = *r.PersonalDetails
	}
	if r.Skills != nil {
		doc.Skills = Skills{
			Technical:  append([]string{}, r.Skills.Technical...),
			Languages:  append([]string{}, r.Skills.Languages...),
			Frameworks: append([]string{}, r.Skills.Frameworks...),
			Tools:      append([]string{}, r.Skills.Tools...),
		}
	}
	return doc
}

// Normalized replaces nil lists with empty ones.
func (d Document) Normalized() Document {
	d.Education = orEmpty(d.Education)
	d.Experience = orEmpty(d.Experience)
	d.Projects = orEmpty(d.Projects)
	d.Skills = d.Skills.Normalized()
	return d
}

// Normalized replaces nil categories with empty ones.
func (s Skills) Normalized() Skills {
	s.Technical = orEmpty(s.Technical)
	s.Languages = orEmpty(s.Languages)
	s.Frameworks = orEmpty(s.Frameworks)
	s.Tools = orEmpty(s.Tools)
	return s
}

// IsEmpty reports whether no skill category has entries.
func (s Skills) IsEmpty() bool {
	return len(s.Technical) == 0 && len(s.Languages) == 0 && len(s.Frameworks) == 0 && len(s.Tools) == 0
}

// Sanitized clamps every text field to its length limit and strips markup
// characters. Lists keep their order and identifiers.
func (d Document) Sanitized() Document {
	short := func(s string) string { return validation.SanitizeInput(s, validation.MaxShortLength) }
	long := func(s string) string { return validation.SanitizeInput(s, validation.MaxTextLength) }

	out := d.Normalized()
	p := out.PersonalDetails
	out.PersonalDetails = PersonalDetails{
		FullName:  validation.SanitizeInput(p.FullName, validation.MaxNameLength),
		Email:     validation.SanitizeInput(p.Email, validation.MaxEmailLength),
		Phone:     short(p.Phone),
		Location:  short(p.Location),
		LinkedIn:  short(p.LinkedIn),
		Portfolio: short(p.Portfolio),
		Summary:   long(p.Summary),
	}

	out.Education = mapSlice(out.Education, func(e Education) Education {
		return Education{ID: e.ID, Degree: short(e.Degree), Institution: short(e.Institution), Year: short(e.Year), GPA: short(e.GPA)}
	})
	out.Experience = mapSlice(out.Experience, func(e Experience) Experience {
		return Experience{ID: e.ID, Title: short(e.Title), Company: short(e.Company), Duration: short(e.Duration), Description: long(e.Description), Location: short(e.Location)}
	})
	out.Projects = mapSlice(out.Projects, func(p Project) Project {
		return Project{ID: p.ID, Name: short(p.Name), Description: long(p.Description), Technologies: short(p.Technologies), Link: short(p.Link)}
	})
	out.Skills = Skills{
		Technical:  mapSlice(out.Skills.Technical, short),
		Languages:  mapSlice(out.Skills.Languages, short),
		Frameworks: mapSlice(out.Skills.Frameworks, short),
		Tools:      mapSlice(out.Skills.Tools, short),
	}
	return out
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func mapSlice[T any](in []T, fn func(T) T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
