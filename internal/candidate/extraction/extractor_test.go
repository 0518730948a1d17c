package extraction

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeText = `Jane Doe
jane.doe@example.com | +1 555-123-4567
Berlin

Backend engineer with Go and PostgreSQL.

Experience
Acme Corp, 2019-2024

Education
BSc Computer Science
`

// stubAnnotator labels fixed spans and counts calls
type stubAnnotator struct {
	mu    sync.Mutex
	calls int
	spans map[string]string
	err   error
}

func (s *stubAnnotator) Annotate(text string) ([]Entity, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	var entities []Entity
	for span, label := range s.spans {
		if idx := strings.Index(text, span); idx >= 0 {
			entities = append(entities, Entity{Text: span, Start: idx, End: idx + len(span), Label: label})
		}
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Start < entities[j].Start })
	return entities, nil
}

func newStub() *stubAnnotator {
	return &stubAnnotator{spans: map[string]string{
		"Jane Doe": LabelPerson,
		"Berlin":   LabelGPE,
	}}
}

func setupFiles(t *testing.T) (resume, vocab string) {
	t.Helper()
	dir := t.TempDir()
	resume = writeFile(t, dir, "jane.txt", []byte(resumeText))
	vocab = writeFile(t, dir, "skills.txt", []byte("Go\nPostgreSQL\nKubernetes\n\n  Python  \n"))
	return resume, vocab
}

func TestExtractor_Extract(t *testing.T) {
	resume, vocab := setupFiles(t)
	annotator := newStub()
	ex := New(annotator)

	rec, err := ex.Extract(context.Background(), resume, vocab)
	require.NoError(t, err)

	require.NotNil(t, rec.Name)
	assert.Equal(t, "Jane Doe", *rec.Name)
	require.NotNil(t, rec.Email)
	assert.Equal(t, "jane.doe@example.com", *rec.Email)
	require.NotNil(t, rec.Phone)
	assert.Equal(t, "+15551234567", *rec.Phone)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Berlin", *rec.Location)

	assert.Equal(t, "Jane Doe\njane.doe@example.com | +1 555-123-4567\nBerlin\n\nBackend engineer with Go and PostgreSQL.", rec.Summary)
	assert.Equal(t, "Experience\nAcme Corp, 2019-2024\n\nEducation\nBSc Computer Science", rec.ExperienceText)
	assert.Equal(t, "Education\nBSc Computer Science", rec.EducationText)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, rec.Skills)
	assert.Equal(t, resumeText, rec.RawText)
	assert.Empty(t, rec.Warnings)
	assert.Equal(t, 1, annotator.calls, "annotation runs once per document")
}

func TestExtractor_MissingFieldsNeverFail(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "blank.txt", []byte("nothing useful here"))
	vocab := writeFile(t, dir, "skills.txt", []byte("Go\n"))

	rec, err := New(nil).Extract(context.Background(), resume, vocab)
	require.NoError(t, err)

	assert.Nil(t, rec.Name)
	assert.Nil(t, rec.Email)
	assert.Nil(t, rec.Phone)
	assert.Nil(t, rec.Location)
	assert.Equal(t, "nothing useful here", rec.Summary)
	assert.Empty(t, rec.EducationText)
	assert.Empty(t, rec.ExperienceText)
	assert.NotNil(t, rec.Skills)
	assert.Empty(t, rec.Skills)
}

func TestExtractor_EmptyDocument(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "empty.txt", nil)
	vocab := writeFile(t, dir, "skills.txt", []byte("Go\n"))

	rec, err := New(newStub()).Extract(context.Background(), resume, vocab)
	require.NoError(t, err)
	assert.Equal(t, "", rec.RawText)
	assert.Empty(t, rec.Skills)
}

func TestExtractor_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	exe := writeFile(t, dir, "virus.exe", []byte("MZ jane.doe@example.com"))
	_, vocab := setupFiles(t)
	annotator := newStub()

	rec, err := New(annotator).Extract(context.Background(), exe, vocab)

	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, 0, annotator.calls, "no partial extraction")
}

func TestExtractor_DegradedStages(t *testing.T) {
	resume, vocab := setupFiles(t)

	t.Run("annotator failure", func(t *testing.T) {
		annotator := &stubAnnotator{err: errors.New("model not loaded")}
		rec, err := New(annotator).Extract(context.Background(), resume, vocab)
		require.NoError(t, err)

		assert.Nil(t, rec.Name)
		assert.Nil(t, rec.Location)
		require.NotNil(t, rec.Email)
		assert.Equal(t, []string{"Go", "PostgreSQL"}, rec.Skills)
		require.Len(t, rec.Warnings, 1)
		assert.Contains(t, rec.Warnings[0], "model not loaded")
	})

	t.Run("missing vocabulary", func(t *testing.T) {
		rec, err := New(newStub()).Extract(context.Background(), resume, filepath.Join(t.TempDir(), "nope.txt"))
		require.NoError(t, err)

		assert.Empty(t, rec.Skills)
		require.NotNil(t, rec.Name)
		require.Len(t, rec.Warnings, 1)
		assert.Contains(t, rec.Warnings[0], "skills vocabulary unavailable")
	})
}

func TestExtractor_CancelledContext(t *testing.T) {
	resume, vocab := setupFiles(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newStub()).Extract(ctx, resume, vocab)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_Options(t *testing.T) {
	resume, vocab := setupFiles(t)

	ex := New(newStub(), WithReaders(NewRegistry(PDFReader{})))
	_, err := ex.Extract(context.Background(), resume, vocab)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, ex.Supports("cv.txt"))
	assert.True(t, ex.Supports("CV.PDF"))

	ex = New(newStub(), WithMatchOptions(MatchOptions{ScoreCutoff: 85, Limit: 1}))
	rec, err := ex.Extract(context.Background(), resume, vocab)
	require.NoError(t, err)
	// exact pass still contributes beyond the fuzzy limit
	assert.Equal(t, []string{"Go", "PostgreSQL"}, rec.Skills)
}

func TestExtractor_Concurrent(t *testing.T) {
	resume, vocab := setupFiles(t)
	ex := New(newStub())

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := ex.Extract(context.Background(), resume, vocab)
			if err == nil {
				results[i] = rec.Skills
			}
		}(i)
	}
	wg.Wait()

	for _, skills := range results {
		assert.Equal(t, []string{"Go", "PostgreSQL"}, skills)
	}
}
