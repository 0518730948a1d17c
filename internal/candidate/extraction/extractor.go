package extraction

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/talentvault/talentvault-backend/internal/candidate/domain"
	"github.com/talentvault/talentvault-backend/pkg/logger"
)

// Extractor turns one resume file into an ExtractedRecord. All of its
// collaborators are read-only after construction, so one Extractor can
// serve concurrent Extract calls.
type Extractor struct {
	readers   *Registry
	patterns  *Patterns
	annotator Annotator
	match     MatchOptions
	logger    *logger.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

func WithReaders(r *Registry) Option {
	return func(e *Extractor) { e.readers = r }
}

func WithPatterns(p *Patterns) Option {
	return func(e *Extractor) { e.patterns = p }
}

func WithMatchOptions(o MatchOptions) Option {
	return func(e *Extractor) { e.match = o.normalized() }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Extractor) { e.logger = l.WithComponent("extraction") }
}

// New creates an Extractor. A nil annotator leaves name and location absent.
func New(annotator Annotator, opts ...Option) *Extractor {
	if annotator == nil {
		annotator = NopAnnotator{}
	}
	e := &Extractor{
		readers:   DefaultRegistry(),
		patterns:  NewPatterns(),
		annotator: annotator,
		match:     DefaultMatchOptions(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supports reports whether a reader is registered for the file's extension
func (e *Extractor) Supports(filename string) bool {
	return e.readers.FindReader(strings.ToLower(filepath.Ext(filename))) != nil
}

// Extract reads the document at path and runs every field heuristic over
// its text. The only errors are an unsupported extension (matching
// ErrUnsupportedFormat), a document that cannot be read, or a context that
// is already done. Missing fields, a failed entity pass or an unreadable
// vocabulary degrade the record and are listed in its Warnings.
func (e *Extractor) Extract(ctx context.Context, path, vocabularyPath string) (*domain.ExtractedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	log := e.logger.WithFile(filepath.Base(path))

	text, err := e.readers.ReadText(path)
	if err != nil {
		return nil, err
	}

	rec := &domain.ExtractedRecord{
		RawText: text,
		Email:   e.patterns.Email(text),
		Phone:   e.patterns.Phone(text),
		Skills:  []string{},
	}

	entities, err := e.annotator.Annotate(text)
	if err != nil {
		log.Warn().Err(err).Msg("entity annotation failed, name and location left empty")
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("entity annotation failed: %v", err))
		entities = nil
	}
	rec.Name = Name(entities)
	rec.Location = Location(entities)

	sections := SplitSections(text)
	rec.Summary = sections.Summary
	rec.EducationText = sections.Education
	rec.ExperienceText = sections.Experience

	vocab, err := LoadVocabulary(vocabularyPath)
	if err != nil {
		log.Warn().Err(err).Str("vocabulary", vocabularyPath).Msg("skills vocabulary unavailable, skills left empty")
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("skills vocabulary unavailable: %v", err))
	} else {
		rec.Skills = MatchSkills(text, vocab, e.match)
	}

	rec.ProcessingTimeMs = time.Since(start).Milliseconds()

	log.Debug().
		Int("chars", len(text)).
		Int("entities", len(entities)).
		Int("skills", len(rec.Skills)).
		Int64("duration_ms", rec.ProcessingTimeMs).
		Msg("document extracted")

	return rec, nil
}
