package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/talentvault/talentvault-backend/internal/candidate/cache"
	"github.com/talentvault/talentvault-backend/internal/candidate/domain"
	"github.com/talentvault/talentvault-backend/internal/candidate/events"
	"github.com/talentvault/talentvault-backend/internal/candidate/extraction"
	"github.com/talentvault/talentvault-backend/internal/candidate/storage"
	"github.com/talentvault/talentvault-backend/pkg/config"
	"github.com/talentvault/talentvault-backend/pkg/errors"
	"github.com/talentvault/talentvault-backend/pkg/logger"
	"github.com/talentvault/talentvault-backend/pkg/metrics"
)

// Listing limits
const (
	DefaultPageSize  = 20
	MaxPageSize      = 100
	MaxSearchResults = 100
)

// UploadMessage is returned to clients once a resume is stored
const UploadMessage = "parsed and stored"

// CandidateRepository is the persistence the service needs
type CandidateRepository interface {
	Create(ctx context.Context, c *domain.Candidate) error
	GetByID(ctx context.Context, id int64) (*domain.Candidate, error)
	List(ctx context.Context, page, size int) (*domain.Page, error)
	Search(ctx context.Context, q string, limit int) ([]*domain.Candidate, error)
}

// Extractor turns a stored document into an ExtractedRecord
type Extractor interface {
	Extract(ctx context.Context, path, vocabularyPath string) (*domain.ExtractedRecord, error)
}

// UploadResult is a stored candidate plus the degraded extraction stages
type UploadResult struct {
	Candidate *domain.Candidate
	Warnings  []string
}

// CandidateService handles resume ingestion and candidate lookups
type CandidateService struct {
	repo      CandidateRepository
	files     storage.FileStore
	extractor Extractor
	cache     cache.CandidateCache
	publisher events.Publisher
	cfg       config.ExtractionConfig
	logger    *logger.Logger
}

// NewCandidateService creates a new candidate service. A nil cache or
// publisher disables that concern.
func NewCandidateService(
	repo CandidateRepository,
	files storage.FileStore,
	extractor Extractor,
	candidateCache cache.CandidateCache,
	publisher events.Publisher,
	cfg config.ExtractionConfig,
	log *logger.Logger,
) *CandidateService {
	if candidateCache == nil {
		candidateCache = cache.NopCache{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CandidateService{
		repo:      repo,
		files:     files,
		extractor: extractor,
		cache:     candidateCache,
		publisher: publisher,
		cfg:       cfg,
		logger:    log,
	}
}

// AllowedExtensions lists the accepted upload extensions, without dots
func (s *CandidateService) AllowedExtensions() []string {
	return s.cfg.AllowedExtensions
}

// Upload stores a resume, extracts it and persists the candidate. The
// extension is checked before anything is written.
func (s *CandidateService) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	if filename == "" {
		metrics.RecordUpload(metrics.OutcomeRejected)
		return nil, errors.BadRequest("empty filename")
	}

	ext := uploadExtension(filename)
	if ext == "" || !s.cfg.IsAllowed(ext) {
		metrics.RecordUpload(metrics.OutcomeUnsupported)
		return nil, errors.UnsupportedFileType(s.cfg.AllowedExtensions)
	}

	log := s.logger.WithFile(filename)

	stored, err := s.files.Save(ctx, storageName(filename, ext), r)
	if err != nil {
		metrics.RecordUpload(metrics.OutcomeFailed)
		log.Error().Err(err).Msg("failed to store upload")
		return nil, errors.StorageFailed(err, "failed to store upload")
	}

	path, cleanup, err := s.files.LocalPath(ctx, stored)
	if err != nil {
		metrics.RecordUpload(metrics.OutcomeFailed)
		log.Error().Err(err).Msg("stored upload not readable")
		s.discard(ctx, stored)
		return nil, errors.StorageFailed(err, "failed to read stored upload")
	}
	defer cleanup()

	start := time.Now()
	rec, err := s.extractor.Extract(ctx, path, s.cfg.SkillsPath)
	if err != nil {
		s.discard(ctx, stored)
		if errors.Is(err, extraction.ErrUnsupportedFormat) {
			metrics.RecordUpload(metrics.OutcomeUnsupported)
			return nil, errors.UnsupportedFileType(s.cfg.AllowedExtensions)
		}
		metrics.RecordUpload(metrics.OutcomeFailed)
		log.Error().Err(err).Msg("extraction failed")
		return nil, errors.ExtractionFailed(err)
	}
	metrics.ObserveExtraction(ext, time.Since(start), len(rec.Warnings))

	cand := domain.FromRecord(rec, stored)
	if err := s.repo.Create(ctx, cand); err != nil {
		metrics.RecordUpload(metrics.OutcomeFailed)
		log.Error().Err(err).Msg("failed to persist candidate")
		s.discard(ctx, stored)
		return nil, err
	}

	s.cache.Set(ctx, cand)
	s.publisher.PublishCandidateParsed(ctx, cand, rec)
	metrics.RecordUpload(metrics.OutcomeStored)

	log.Info().
		Int64("candidate_id", cand.ID).
		Str("stored_as", stored).
		Int("skills", len(cand.Skills.Matched)).
		Strs("warnings", rec.Warnings).
		Int64("processing_time_ms", rec.ProcessingTimeMs).
		Msg("resume parsed and stored")

	return &UploadResult{Candidate: cand, Warnings: rec.Warnings}, nil
}

// discard removes an upload no candidate row will point at. It runs even
// when the request context is already cancelled.
func (s *CandidateService) discard(ctx context.Context, stored string) {
	if err := s.files.Delete(context.WithoutCancel(ctx), stored); err != nil {
		s.logger.Warn().Err(err).Str("file", stored).Msg("failed to remove orphaned upload")
	}
}

// GetByID gets a candidate by ID, through the cache
func (s *CandidateService) GetByID(ctx context.Context, id int64) (*domain.Candidate, error) {
	if cand, ok := s.cache.Get(ctx, id); ok {
		return cand, nil
	}

	cand, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, cand)
	return cand, nil
}

// List lists candidates newest first. Sizes above MaxPageSize are clamped.
func (s *CandidateService) List(ctx context.Context, page, size int) (*domain.Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return s.repo.List(ctx, page, size)
}

// Search finds candidates whose text fields contain q, case-insensitively
func (s *CandidateService) Search(ctx context.Context, q string) ([]*domain.Candidate, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, errors.BadRequest("q is required")
	}
	return s.repo.Search(ctx, q, MaxSearchResults)
}

// OpenUpload returns a stored original by its stored name
func (s *CandidateService) OpenUpload(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := s.files.Open(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errors.NotFound("file")
	}
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// uploadExtension is the lower-cased text after the last dot, or ""
func uploadExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// storageName sanitises filename, falling back to "resume.<ext>" when
// sanitising loses the extension (e.g. a name written only in non-Latin
// script), since readers are chosen by extension.
func storageName(filename, ext string) string {
	clean, err := storage.SecureFilename(filename)
	if err != nil || !strings.EqualFold(filepath.Ext(clean), "."+ext) {
		return "resume." + ext
	}
	return clean
}
