package resume

import "math"

const completionChecks = 5

// CalculateCompletion returns the percentage of presence checks the document
// satisfies, rounded to the nearest integer. The checks are: full name and
// email both present, at least one education entry, at least one experience
// entry, at least one project, and at least one technical or language skill.
func CalculateCompletion(doc Document) int {
	checks := [completionChecks]bool{
		doc.PersonalDetails.FullName != "" && doc.PersonalDetails.Email != "",
		len(doc.Education) > 0,
		len(doc.Experience) > 0,
		len(doc.Projects) > 0,
		len(doc.Skills.Technical) > 0 || len(doc.Skills.Languages) > 0,
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return int(math.Round(float64(passed) / completionChecks * 100))
}
