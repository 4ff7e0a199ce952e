package resume

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Category names one of the four skill sets.
type Category string

const (
	Technical  Category = "technical"
	Languages  Category = "languages"
	Frameworks Category = "frameworks"
	Tools      Category = "tools"
)

// Categories lists the skill categories in display order.
var Categories = []Category{Technical, Languages, Frameworks, Tools}

// ErrUnknownCategory is returned for a category outside Categories.
var ErrUnknownCategory = errors.New("unknown skill category")

// ParseCategory converts a category name.
func ParseCategory(name string) (Category, error) {
	c := Category(name)
	if !slices.Contains(Categories, c) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return c, nil
}

// Of returns the skills in category c.
func (s Skills) Of(c Category) []string {
	switch c {
	case Technical:
		return s.Technical
	case Languages:
		return s.Languages
	case Frameworks:
		return s.Frameworks
	case Tools:
		return s.Tools
	}
	return nil
}

func (s Skills) with(c Category, list []string) Skills {
	switch c {
	case Technical:
		s.Technical = list
	case Languages:
		s.Languages = list
	case Frameworks:
		s.Frameworks = list
	case Tools:
		s.Tools = list
	}
	return s
}

// AddSkill appends skill to category c after trimming it. Empty values and
// exact duplicates leave the skills unchanged; added reports which happened.
func AddSkill(s Skills, c Category, skill string) (out Skills, added bool, err error) {
	if _, err := ParseCategory(string(c)); err != nil {
		return s, false, err
	}
	skill = strings.TrimSpace(skill)
	current := s.Of(c)
	if skill == "" || slices.Contains(current, skill) {
		return s, false, nil
	}
	list := make([]string, 0, len(current)+1)
	list = append(list, current...)
	return s.with(c, append(list, skill)), true, nil
}

// RemoveSkill deletes skill from category c.
func RemoveSkill(s Skills, c Category, skill string) (Skills, error) {
	if _, err := ParseCategory(string(c)); err != nil {
		return s, err
	}
	current := s.Of(c)
	list := make([]string, 0, len(current))
	for _, v := range current {
		if v != skill {
			list = append(list, v)
		}
	}
	return s.with(c, list), nil
}

// SkillInputs buffers the pending, not yet committed text for each category.
type SkillInputs map[Category]string

// Set replaces the pending text for c.
func (in SkillInputs) Set(c Category, value string) {
	in[c] = value
}

// Pending returns the pending text for c.
func (in SkillInputs) Pending(c Category) string {
	return in[c]
}

// Commit adds the pending text for c to skills. The buffer is cleared only
// when the skill was added; empty or duplicate text stays in the buffer.
func (in SkillInputs) Commit(s Skills, c Category) (Skills, bool, error) {
	out, added, err := AddSkill(s, c, in[c])
	if err != nil || !added {
		return s, false, err
	}
	in[c] = ""
	return out, true, nil
}

// HandleKey commits the buffer for c when key is "Enter". Other keys are
// ignored.
func (in SkillInputs) HandleKey(s Skills, c Category, key string) (Skills, bool, error) {
	if key != "Enter" {
		return s, false, nil
	}
	return in.Commit(s, c)
}
