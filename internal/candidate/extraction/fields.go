package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	emailPattern = `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`
	// optional country code, optional (area) code, then 3-4 + 4 digit groups
	phonePattern = `(\+?\d{1,3}[\s.-]?)?(\(?\d{3,4}\)?[\s.-]?)?\d{3,4}[\s.-]?\d{4}`
)

// Patterns holds the compiled field patterns. Build once with NewPatterns
// and share; *regexp.Regexp is safe for concurrent use.
type Patterns struct {
	email      *regexp.Regexp
	phone      *regexp.Regexp
	phoneStrip *regexp.Regexp
}

func NewPatterns() *Patterns {
	return &Patterns{
		email:      regexp.MustCompile(emailPattern),
		phone:      regexp.MustCompile(phonePattern),
		phoneStrip: regexp.MustCompile(`[^\d+]`),
	}
}

// Email returns the first email-shaped substring, or nil
func (p *Patterns) Email(text string) *string {
	m := p.email.FindString(text)
	if m == "" {
		return nil
	}
	return &m
}

// Phone returns the longest phone-like match, reduced to digits and '+'.
// Ties keep the earliest match.
func (p *Patterns) Phone(text string) *string {
	matches := p.phone.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if utf8.RuneCountInString(m) > utf8.RuneCountInString(best) {
			best = m
		}
	}

	normalized := p.phoneStrip.ReplaceAllString(best, "")
	return &normalized
}

// FirstEntity returns the trimmed text of the earliest entity whose label
// is one of labels, or nil. Entities must be ordered by Start.
func FirstEntity(entities []Entity, labels ...string) *string {
	for _, e := range entities {
		for _, label := range labels {
			if e.Label != label {
				continue
			}
			text := strings.TrimSpace(e.Text)
			if text == "" {
				continue
			}
			return &text
		}
	}
	return nil
}

// Name is the first PERSON entity
func Name(entities []Entity) *string {
	return FirstEntity(entities, LabelPerson)
}

// Location is the first geo-political or generic location entity
func Location(entities []Entity) *string {
	return FirstEntity(entities, LabelGPE, LabelLocation)
}
