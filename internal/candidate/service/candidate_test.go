package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentvault/talentvault-backend/internal/candidate/domain"
	"github.com/talentvault/talentvault-backend/internal/candidate/events"
	"github.com/talentvault/talentvault-backend/internal/candidate/extraction"
	"github.com/talentvault/talentvault-backend/internal/candidate/service"
	"github.com/talentvault/talentvault-backend/internal/candidate/storage"
	"github.com/talentvault/talentvault-backend/pkg/config"
	apperrors "github.com/talentvault/talentvault-backend/pkg/errors"
	"github.com/talentvault/talentvault-backend/pkg/logger"
	"github.com/talentvault/talentvault-backend/pkg/messaging"
	"github.com/talentvault/talentvault-backend/pkg/testutil"
)

// memRepo is an in-memory CandidateRepository
type memRepo struct {
	mu         sync.Mutex
	candidates []*domain.Candidate
	createErr  error
	gets       int
	lastList   [2]int
	lastSearch string
}

func (r *memRepo) Create(_ context.Context, c *domain.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	c.ID = int64(len(r.candidates) + 1)
	c.CreatedAt = time.Now().UTC()
	r.candidates = append(r.candidates, c)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	for _, c := range r.candidates {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.NotFound("candidate")
}

func (r *memRepo) List(_ context.Context, page, size int) (*domain.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastList = [2]int{page, size}
	return &domain.Page{Candidates: r.candidates, Page: page, Size: size, Total: int64(len(r.candidates))}, nil
}

func (r *memRepo) Search(_ context.Context, q string, _ int) ([]*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSearch = q
	return []*domain.Candidate{}, nil
}

// memCache is an in-memory CandidateCache
type memCache struct {
	items map[int64]*domain.Candidate
}

func (c *memCache) Get(_ context.Context, id int64) (*domain.Candidate, bool) {
	cand, ok := c.items[id]
	return cand, ok
}
func (c *memCache) Set(_ context.Context, cand *domain.Candidate) { c.items[cand.ID] = cand }
func (c *memCache) Invalidate(_ context.Context, id int64)        { delete(c.items, id) }

type fixture struct {
	svc       *service.CandidateService
	repo      *memRepo
	cache     *memCache
	publisher *testutil.MockPublisher
	store     *storage.LocalStore
	annotated int
}

func newFixture(t *testing.T, allowed ...string) *fixture {
	t.Helper()
	if len(allowed) == 0 {
		allowed = []string{"pdf", "docx", "txt"}
	}

	f := &fixture{
		repo:      &memRepo{},
		cache:     &memCache{items: map[int64]*domain.Candidate{}},
		publisher: testutil.NewMockPublisher(),
	}

	store, err := storage.NewLocalStore(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	f.store = store

	annotator := extraction.AnnotatorFunc(func(text string) ([]extraction.Entity, error) {
		f.annotated++
		idx := strings.Index(text, "Jane Doe")
		if idx < 0 {
			return nil, nil
		}
		return []extraction.Entity{{Text: "Jane Doe", Start: idx, End: idx + 8, Label: extraction.LabelPerson}}, nil
	})

	f.svc = service.NewCandidateService(
		f.repo,
		store,
		extraction.New(annotator),
		f.cache,
		events.NewWithPublisher(f.publisher, logger.Nop()),
		config.ExtractionConfig{
			SkillsPath:        testutil.VocabularyFile(t),
			AllowedExtensions: allowed,
		},
		logger.Nop(),
	)
	return f
}

func TestCandidateService_Upload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Upload(ctx, "Jane Doe CV.txt", strings.NewReader(testutil.SampleResume))
	require.NoError(t, err)

	c := res.Candidate
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, "Jane_Doe_CV.txt", c.SourceFilename)
	require.NotNil(t, c.Name)
	assert.Equal(t, "Jane Doe", *c.Name)
	assert.Equal(t, "jane.doe@example.com", *c.Email)
	assert.Equal(t, "+15551234567", *c.Phone)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, c.Skills.Matched)
	assert.Equal(t, testutil.SampleResume, c.RawText)
	assert.Empty(t, res.Warnings)

	rc, err := f.svc.OpenUpload(ctx, "Jane_Doe_CV.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, testutil.SampleResume, string(data))

	f.publisher.AssertEventPublished(t, messaging.EventCandidateParsed)
	assert.Contains(t, f.cache.items, int64(1))
}

func TestCandidateService_Upload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantCode string
		wantMsg  string
	}{
		{"empty filename", "", "BAD_REQUEST", "empty filename"},
		{"no extension", "resume", "UNSUPPORTED_TYPE", "Unsupported type. Allowed: pdf, docx, txt"},
		{"executable", "virus.exe", "UNSUPPORTED_TYPE", "Unsupported type. Allowed: pdf, docx, txt"},
		{"legacy word", "cv.doc", "UNSUPPORTED_TYPE", "Unsupported type. Allowed: pdf, docx, txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			res, err := f.svc.Upload(context.Background(), tt.filename, strings.NewReader("data"))
			assert.Nil(t, res)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.Equal(t, 400, appErr.StatusCode)

			assert.Empty(t, f.repo.candidates)
			assert.Zero(t, f.annotated)
			f.publisher.AssertNoEventsPublished(t)
		})
	}
}

func TestCandidateService_Upload_AllowedButUnreadable(t *testing.T) {
	// configured to accept .doc, which no reader handles
	f := newFixture(t, "doc")

	_, err := f.svc.Upload(context.Background(), "cv.doc", strings.NewReader("binary"))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UNSUPPORTED_TYPE", appErr.Code)
	assert.Empty(t, f.repo.candidates)

	_, err = f.store.Open(context.Background(), "cv.doc")
	assert.ErrorIs(t, err, storage.ErrNotFound, "unreadable upload is not kept")
}

func TestCandidateService_Upload_NonLatinFilename(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Upload(context.Background(), "履歴書.txt", strings.NewReader("Skills: Go"))
	require.NoError(t, err)
	assert.Equal(t, "resume.txt", res.Candidate.SourceFilename)
	assert.Equal(t, []string{"Go"}, res.Candidate.Skills.Matched)
}

func TestCandidateService_Upload_MissingVocabulary(t *testing.T) {
	f := newFixture(t)
	svc := service.NewCandidateService(f.repo, f.store, extraction.New(nil), nil, nil,
		config.ExtractionConfig{SkillsPath: "/nonexistent/skills.txt", AllowedExtensions: []string{"txt"}},
		logger.Nop())

	res, err := svc.Upload(context.Background(), "cv.txt", strings.NewReader(testutil.SampleResume))
	require.NoError(t, err)
	assert.Empty(t, res.Candidate.Skills.Matched)
	require.Len(t, res.Warnings, 1)
	assert.Nil(t, res.Candidate.Name)
}

func TestCandidateService_Upload_PersistFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = apperrors.Validation(map[string]string{"name": "is too long"})

	_, err := f.svc.Upload(context.Background(), "cv.txt", strings.NewReader(testutil.SampleResume))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	f.publisher.AssertNoEventsPublished(t)

	_, err = f.store.Open(context.Background(), "cv.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound, "upload without a candidate row is removed")
}

func TestCandidateService_GetByID_UsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cand := testutil.NewFixtureFactory().Candidate()
	require.NoError(t, f.repo.Create(ctx, cand))

	got, err := f.svc.GetByID(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, cand, got)
	assert.Equal(t, 1, f.repo.gets)

	_, err = f.svc.GetByID(ctx, cand.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.gets, "second read served from cache")

	_, err = f.svc.GetByID(ctx, 404)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCandidateService_List_Clamps(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{1, 20, 1, 20},
		{3, 500, 3, 100},
		{0, 0, 1, 20},
	}

	for _, tt := range tests {
		f := newFixture(t)
		_, err := f.svc.List(context.Background(), tt.page, tt.size)
		require.NoError(t, err)
		assert.Equal(t, [2]int{tt.wantPage, tt.wantSize}, f.repo.lastList)
	}
}

func TestCandidateService_Search(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Search(context.Background(), "   ")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "q is required", appErr.Message)

	results, err := f.svc.Search(context.Background(), "  berlin ")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Equal(t, "berlin", f.repo.lastSearch)
}

func TestCandidateService_OpenUpload_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.OpenUpload(context.Background(), "nope.pdf")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
