package resume

import (
	"fmt"
	"slices"
)

// FieldError reports an update naming a field the entry does not have, or
// one that cannot be changed.
type FieldError struct {
	Section string
	Field   string
}

func (e *FieldError) Error() string {
	if e.Field == "id" {
		return fmt.Sprintf("%s: field %q is immutable", e.Section, e.Field)
	}
	return fmt.Sprintf("%s: unknown field %q", e.Section, e.Field)
}

// Entry is implemented by list section entries.
type Entry[T any] interface {
	EntryID() string
	WithField(field, value string) (T, error)
}

func addEntry[T Entry[T]](list []T, fresh func(id string) T, ids *IDGenerator) []T {
	id := ids.nextUnique(func(id string) bool {
		return slices.ContainsFunc(list, func(e T) bool { return e.EntryID() == id })
	})
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	return append(out, fresh(id))
}

// updateEntry replaces exactly the entry matching id. An unknown id returns
// an unchanged copy of the list.
func updateEntry[T Entry[T]](list []T, id, field, value string) ([]T, error) {
	out := make([]T, len(list))
	copy(out, list)
	for i, e := range out {
		if e.EntryID() != id {
			continue
		}
		updated, err := e.WithField(field, value)
		if err != nil {
			return list, err
		}
		out[i] = updated
	}
	return out, nil
}

func removeEntry[T Entry[T]](list []T, id string) []T {
	out := make([]T, 0, len(list))
	for _, e := range list {
		if e.EntryID() != id {
			out = append(out, e)
		}
	}
	return out
}

// EntryID returns the entry identifier.
func (e Education) EntryID() string { return e.ID }

func (e Education) WithField(field, value string) (Education, error) {
	switch field {
	case "degree":
		e.Degree = value
	case "institution":
		e.Institution = value
	case "year":
		e.Year = value
	case "gpa":
		e.GPA = value
	default:
		return e, &FieldError{Section: "education", Field: field}
	}
	return e, nil
}

// EntryID returns the entry identifier.
func (e Experience) EntryID() string { return e.ID }

func (e Experience) WithField(field, value string) (Experience, error) {
	switch field {
	case "title":
		e.Title = value
	case "company":
		e.Company = value
	case "duration":
		e.Duration = value
	case "description":
		e.Description = value
	case "location":
		e.Location = value
	default:
		return e, &FieldError{Section: "experience", Field: field}
	}
	return e, nil
}

// EntryID returns the entry identifier.
func (p Project) EntryID() string { return p.ID }

func (p Project) WithField(field, value string) (Project, error) {
	switch field {
	case "name":
		p.Name = value
	case "description":
		p.Description = value
	case "technologies":
		p.Technologies = value
	case "link":
		p.Link = value
	default:
		return p, &FieldError{Section: "projects", Field: field}
	}
	return p, nil
}

// AddEducation appends an empty education entry with a fresh identifier.
func AddEducation(list []Education, ids *IDGenerator) []Education {
	return addEntry(list, func(id string) Education { return Education{ID: id} }, ids)
}

// UpdateEducation sets field to value on the entry with the given id.
func UpdateEducation(list []Education, id, field, value string) ([]Education, error) {
	return updateEntry(list, id, field, value)
}

// RemoveEducation deletes the entry with the given id. Absent ids are a no-op.
func RemoveEducation(list []Education, id string) []Education {
	return removeEntry(list, id)
}

// AddExperience appends an empty experience entry with a fresh identifier.
func AddExperience(list []Experience, ids *IDGenerator) []Experience {
	return addEntry(list, func(id string) Experience { return Experience{ID: id} }, ids)
}

// UpdateExperience sets field to value on the entry with the given id.
func UpdateExperience(list []Experience, id, field, value string) ([]Experience, error) {
	return updateEntry(list, id, field, value)
}

// RemoveExperience deletes the entry with the given id. Absent ids are a no-op.
func RemoveExperience(list []Experience, id string) []Experience {
	return removeEntry(list, id)
}

// AddProject appends an empty project entry with a fresh identifier.
func AddProject(list []Project, ids *IDGenerator) []Project {
	return addEntry(list, func(id string) Project { return Project{ID: id} }, ids)
}

// UpdateProject sets field to value on the entry with the given id.
func UpdateProject(list []Project, id, field, value string) ([]Project, error) {
	return updateEntry(list, id, field, value)
}

// RemoveProject deletes the entry with the given id. Absent ids are a no-op.
func RemoveProject(list []Project, id string) []Project {
	return removeEntry(list, id)
}

// UpdatePersonalDetails sets one field of the personal details record.
func UpdatePersonalDetails(p PersonalDetails, field, value string) (PersonalDetails, error) {
	switch field {
	case "fullName":
		p.FullName = value
	case "email":
		p.Email = value
	case "phone":
		p.Phone = value
	case "location":
		p.Location = value
	case "linkedin":
		p.LinkedIn = value
	case "portfolio":
		p.Portfolio = value
	case "summary":
		p.Summary = value
	default:
		return p, &FieldError{Section: "personalDetails", Field: field}
	}
	return p, nil
}
