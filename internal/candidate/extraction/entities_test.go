package extraction

import (
	"errors"
	"testing"

	"github.com/jdkato/prose/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateEntities(t *testing.T) {
	text := "Jane Doe lives in Berlin. Jane Doe moved from Paris."
	found := []prose.Entity{
		{Text: "Jane Doe", Label: LabelPerson},
		{Text: "Berlin", Label: LabelGPE},
		{Text: "Jane Doe", Label: LabelPerson},
		{Text: "Paris", Label: LabelGPE},
	}

	got := locateEntities(text, found)
	require.Len(t, got, 4)

	assert.Equal(t, Entity{Text: "Jane Doe", Start: 0, End: 8, Label: LabelPerson}, got[0])
	assert.Equal(t, 18, got[1].Start)
	assert.Equal(t, 26, got[2].Start, "repeated span resolves to its second occurrence")
	assert.Equal(t, "Paris", text[got[3].Start:got[3].End])
}

func TestLocateEntities_WhitespaceRuns(t *testing.T) {
	text := "Name:  Jane\t  Doe"
	got := locateEntities(text, []prose.Entity{{Text: "Jane Doe", Label: LabelPerson}})

	require.Len(t, got, 1)
	assert.Equal(t, "Jane\t  Doe", got[0].Text)
	assert.Equal(t, 7, got[0].Start)
}

func TestLocateEntities_NeverCrossesLines(t *testing.T) {
	got := locateEntities("Jane\nDoe", []prose.Entity{{Text: "Jane Doe", Label: LabelPerson}})
	assert.Empty(t, got)
}

func TestAnnotateLines(t *testing.T) {
	text := "Jane Doe\nSoftware Engineer\n\nSan Francisco, California\n"

	var lines []string
	tagger := func(line string) ([]prose.Entity, error) {
		lines = append(lines, line)
		switch line {
		case "Jane Doe":
			return []prose.Entity{{Text: "Jane Doe", Label: LabelPerson}}, nil
		case "San Francisco, California":
			return []prose.Entity{{Text: "San Francisco", Label: LabelGPE}}, nil
		}
		return nil, nil
	}

	got, err := annotateLines(text, tagger)
	require.NoError(t, err)

	assert.Equal(t, []string{"Jane Doe", "Software Engineer", "San Francisco, California"}, lines, "blank lines are not tagged")
	require.Len(t, got, 2)
	assert.Equal(t, Entity{Text: "Jane Doe", Start: 0, End: 8, Label: LabelPerson}, got[0])
	assert.Equal(t, "San Francisco", text[got[1].Start:got[1].End])
	assert.Equal(t, 28, got[1].Start)
}

func TestAnnotateLines_Error(t *testing.T) {
	_, err := annotateLines("a\nb", func(string) ([]prose.Entity, error) {
		return nil, errors.New("model not loaded")
	})
	assert.Error(t, err)
}

func TestLocateEntities_SkipsUnlocatable(t *testing.T) {
	got := locateEntities("Jane Doe", []prose.Entity{
		{Text: "", Label: LabelPerson},
		{Text: "Berlin", Label: LabelGPE},
		{Text: "Jane", Label: LabelPerson},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Jane", got[0].Text)
}

func TestLocateEntities_OrderedByStart(t *testing.T) {
	// an out-of-order entity found by the fallback search sorts first
	got := locateEntities("Berlin based. Jane Doe.", []prose.Entity{
		{Text: "Jane Doe", Label: LabelPerson},
		{Text: "Berlin", Label: LabelGPE},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Berlin", got[0].Text)
	assert.Equal(t, "Jane Doe", got[1].Text)
}

func TestProseAnnotator_BlankText(t *testing.T) {
	entities, err := NewProseAnnotator().Annotate("  \n ")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestProseAnnotator_OffsetsMatchText(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the prose NER model")
	}

	text := "John Smith is a software engineer living in London.\nExperience: Google."
	entities, err := NewProseAnnotator().Annotate(text)
	require.NoError(t, err)

	for i, e := range entities {
		assert.Equal(t, e.Text, text[e.Start:e.End])
		if i > 0 {
			assert.LessOrEqual(t, entities[i-1].Start, e.Start)
		}
	}
}

func TestProseAnnotator_HeaderLinesStaySeparate(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the prose NER model")
	}

	text := "Jane Doe\nSoftware Engineer\nSan Francisco, California\njane.doe@example.com\n\nExperience\nAcme Corp, 2019 - 2024"
	entities, err := NewProseAnnotator().Annotate(text)
	require.NoError(t, err)

	for _, e := range entities {
		assert.NotContains(t, e.Text, "\n")
	}
	name := Name(entities)
	require.NotNil(t, name)
	assert.Equal(t, "Jane Doe", *name)
}
