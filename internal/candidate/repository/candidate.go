package repository

import (
	"context"
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/talentvault/talentvault-backend/internal/candidate/domain"
	"github.com/talentvault/talentvault-backend/pkg/database"
	"github.com/talentvault/talentvault-backend/pkg/errors"
)

// MaxSearchResults caps a search result set
const MaxSearchResults = 100

const candidateColumns = `
	id, name, email, phone, location, summary, education_text, experience_text,
	skills, source_filename, raw_text, created_at
`

// Bounded column widths, in characters
const (
	maxNameLen     = 256
	maxEmailLen    = 256
	maxPhoneLen    = 64
	maxLocationLen = 256
	maxFilenameLen = 512
)

// likeEscaper makes user input literal inside an ILIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CandidateRepository handles candidate persistence
type CandidateRepository struct {
	db *database.DB
}

// NewCandidateRepository creates a new candidate repository
func NewCandidateRepository(db *database.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// Migrate applies the candidates schema
func (r *CandidateRepository) Migrate(ctx context.Context) error {
	return Migrate(ctx, r.db.DB)
}

// Create inserts a candidate and fills in its ID and CreatedAt
func (r *CandidateRepository) Create(ctx context.Context, c *domain.Candidate) error {
	fitColumns(c)

	query := `
		INSERT INTO candidates (
			name, email, phone, location, summary, education_text, experience_text,
			skills, source_filename, raw_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		c.Name, c.Email, c.Phone, c.Location, c.Summary, c.EducationText, c.ExperienceText,
		c.Skills, c.SourceFilename, c.RawText,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID gets a candidate by ID
func (r *CandidateRepository) GetByID(ctx context.Context, id int64) (*domain.Candidate, error) {
	var c domain.Candidate

	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	err := r.db.GetContext(ctx, &c, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("candidate")
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// List returns one page of candidates, newest first, and the total count.
// page starts at 1.
func (r *CandidateRepository) List(ctx context.Context, page, size int) (*domain.Page, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM candidates`); err != nil {
		return nil, err
	}

	candidates := []*domain.Candidate{}
	offset := (page - 1) * size
	query := `SELECT ` + candidateColumns + `
		FROM candidates
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &candidates, query, size, offset); err != nil {
		return nil, err
	}

	return &domain.Page{
		Candidates: candidates,
		Page:       page,
		Size:       size,
		Total:      total,
	}, nil
}

// Search does a case-insensitive substring match over the text columns,
// newest first. limit is clamped to MaxSearchResults.
func (r *CandidateRepository) Search(ctx context.Context, q string, limit int) ([]*domain.Candidate, error) {
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	pattern := "%" + likeEscaper.Replace(q) + "%"
	query := `SELECT ` + candidateColumns + `
		FROM candidates
		WHERE name ILIKE $1
		   OR email ILIKE $1
		   OR phone ILIKE $1
		   OR location ILIKE $1
		   OR summary ILIKE $1
		   OR education_text ILIKE $1
		   OR experience_text ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	candidates := []*domain.Candidate{}
	if err := r.db.SelectContext(ctx, &candidates, query, pattern, limit); err != nil {
		return nil, err
	}

	return candidates, nil
}

// fitColumns strips NUL bytes, which postgres text columns reject, and
// truncates heuristic fields to their column widths
func fitColumns(c *domain.Candidate) {
	c.Name = truncatePtr(c.Name, maxNameLen)
	c.Email = truncatePtr(c.Email, maxEmailLen)
	c.Phone = truncatePtr(c.Phone, maxPhoneLen)
	c.Location = truncatePtr(c.Location, maxLocationLen)
	c.SourceFilename = truncate(c.SourceFilename, maxFilenameLen)
	c.Summary = stripNUL(c.Summary)
	c.EducationText = stripNUL(c.EducationText)
	c.ExperienceText = stripNUL(c.ExperienceText)
	c.RawText = stripNUL(c.RawText)
}

func truncatePtr(s *string, n int) *string {
	if s == nil {
		return nil
	}
	out := truncate(*s, n)
	return &out
}

func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

func truncate(s string, n int) string {
	s = stripNUL(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
