package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ExtractedRecord is the transient result of running the extraction
// pipeline over one document. Absent fields are nil, never errors.
type ExtractedRecord struct {
	Name             *string  `json:"name"`
	Email            *string  `json:"email"`
	Phone            *string  `json:"phone"`
	Location         *string  `json:"location"`
	Summary          string   `json:"summary"`
	EducationText    string   `json:"education_text"`
	ExperienceText   string   `json:"experience_text"`
	Skills           []string `json:"skills"`
	RawText          string   `json:"raw_text"`
	Warnings         []string `json:"warnings,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// SkillSet is the JSONB payload stored in candidates.skills: {"matched": [...]}
type SkillSet struct {
	Matched []string `json:"matched"`
}

// NewSkillSet copies and sorts the labels so stored sets compare equal
func NewSkillSet(labels []string) SkillSet {
	matched := make([]string, len(labels))
	copy(matched, labels)
	sort.Strings(matched)
	return SkillSet{Matched: matched}
}

// Value implements driver.Valuer
func (s SkillSet) Value() (driver.Value, error) {
	if s.Matched == nil {
		s.Matched = []string{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. NULL scans to an empty set.
func (s *SkillSet) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = SkillSet{Matched: []string{}}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SkillSet", src)
	}

	var out SkillSet
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("invalid skills payload: %w", err)
	}
	if out.Matched == nil {
		out.Matched = []string{}
	}
	*s = out
	return nil
}

// Candidate is a persisted, parsed resume
type Candidate struct {
	ID             int64     `db:"id" json:"id"`
	Name           *string   `db:"name" json:"name"`
	Email          *string   `db:"email" json:"email"`
	Phone          *string   `db:"phone" json:"phone"`
	Location       *string   `db:"location" json:"location"`
	Summary        string    `db:"summary" json:"summary"`
	EducationText  string    `db:"education_text" json:"education_text"`
	ExperienceText string    `db:"experience_text" json:"experience_text"`
	Skills         SkillSet  `db:"skills" json:"skills"`
	SourceFilename string    `db:"source_filename" json:"source_filename"`
	RawText        string    `db:"raw_text" json:"raw_text,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// FromRecord builds an unsaved Candidate from an extraction result
func FromRecord(rec *ExtractedRecord, sourceFilename string) *Candidate {
	return &Candidate{
		Name:           rec.Name,
		Email:          rec.Email,
		Phone:          rec.Phone,
		Location:       rec.Location,
		Summary:        rec.Summary,
		EducationText:  rec.EducationText,
		ExperienceText: rec.ExperienceText,
		Skills:         NewSkillSet(rec.Skills),
		SourceFilename: sourceFilename,
		RawText:        rec.RawText,
	}
}

// Page is one page of a newest-first candidate listing
type Page struct {
	Candidates []*Candidate
	Page       int
	Size       int
	Total      int64
}
