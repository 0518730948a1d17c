package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/talentvault/talentvault-backend/internal/candidate/domain"
)

// SampleResume is a plain-text resume every field heuristic finds something in
const SampleResume = `Jane Doe
jane.doe@example.com | +1 555-123-4567
Berlin

Backend engineer with Go and PostgreSQL.

Experience
Acme Corp, 2019-2024

Education
BSc Computer Science
`

// SampleVocabulary is a skills file with blank lines and padding
const SampleVocabulary = "Go\nPostgreSQL\nKubernetes\n\n  Python  \n"

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Candidate creates an unsaved candidate with every field populated
func (f *FixtureFactory) Candidate(opts ...func(*domain.Candidate)) *domain.Candidate {
	seq := f.nextSeq()

	c := &domain.Candidate{
		Name:           PtrString(fmt.Sprintf("Candidate %d", seq)),
		Email:          PtrString(fmt.Sprintf("candidate%d@example.com", seq)),
		Phone:          PtrString("+15551234567"),
		Location:       PtrString("Berlin"),
		Summary:        fmt.Sprintf("Candidate %d summary", seq),
		EducationText:  "Education\nBSc Computer Science",
		ExperienceText: "Experience\nAcme Corp",
		Skills:         domain.NewSkillSet([]string{"Go", "PostgreSQL"}),
		SourceFilename: fmt.Sprintf("resume_%d.txt", seq),
		RawText:        SampleResume,
		CreatedAt:      time.Date(2024, 5, 1, 12, 0, seq, 0, time.UTC),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithCandidateID sets the candidate id as if it had been stored
func WithCandidateID(id int64) func(*domain.Candidate) {
	return func(c *domain.Candidate) {
		c.ID = id
	}
}

// WithSkills replaces the matched skills
func WithSkills(skills ...string) func(*domain.Candidate) {
	return func(c *domain.Candidate) {
		c.Skills = domain.NewSkillSet(skills)
	}
}

// WithCreatedAt sets the creation timestamp
func WithCreatedAt(ts time.Time) func(*domain.Candidate) {
	return func(c *domain.Candidate) {
		c.CreatedAt = ts
	}
}

// ExtractedRecord returns the record the extractor produces for SampleResume
func (f *FixtureFactory) ExtractedRecord() *domain.ExtractedRecord {
	return &domain.ExtractedRecord{
		Name:           PtrString("Jane Doe"),
		Email:          PtrString("jane.doe@example.com"),
		Phone:          PtrString("+15551234567"),
		Location:       PtrString("Berlin"),
		Summary:        "Jane Doe\njane.doe@example.com | +1 555-123-4567\nBerlin\n\nBackend engineer with Go and PostgreSQL.",
		EducationText:  "Education\nBSc Computer Science",
		ExperienceText: "Experience\nAcme Corp, 2019-2024\n\nEducation\nBSc Computer Science",
		Skills:         []string{"Go", "PostgreSQL"},
		RawText:        SampleResume,
	}
}

// WriteFile writes content under dir and returns the full path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// VocabularyFile writes SampleVocabulary to a temp dir
func VocabularyFile(t *testing.T) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), "skills.txt", SampleVocabulary)
}
