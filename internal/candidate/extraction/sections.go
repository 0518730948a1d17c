package extraction

import (
	"strings"
)

// Section anchors, matched case-insensitively
const (
	anchorEducation  = "education"
	anchorExperience = "experience"
	anchorEmployment = "employment"
)

// Sections are the three zones of a resume
type Sections struct {
	Summary    string
	Education  string
	Experience string
}

// SplitSections partitions text at the first "education" anchor and at the
// later of the first "experience" / "employment" anchors. Education and
// experience each run to the end of the text, so when experience comes first
// it contains the education zone too. Summary is everything before the
// earliest anchor, or the whole text when there is none. Zones are trimmed.
func SplitSections(text string) Sections {
	lower := asciiLower(text)

	edu := strings.Index(lower, anchorEducation)
	exp := max(strings.Index(lower, anchorExperience), strings.Index(lower, anchorEmployment))

	var s Sections
	if edu >= 0 {
		s.Education = strings.TrimSpace(text[edu:])
	}
	if exp >= 0 {
		s.Experience = strings.TrimSpace(text[exp:])
	}

	cut := len(text)
	for _, idx := range []int{edu, exp} {
		if idx >= 0 && idx < cut {
			cut = idx
		}
	}
	s.Summary = strings.TrimSpace(text[:cut])

	return s
}

// asciiLower folds A-Z only, so byte offsets in the result are valid in the
// input. strings.ToLower can change the byte length of some runes.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
