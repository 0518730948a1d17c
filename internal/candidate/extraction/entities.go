package extraction

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// Entity labels consumed by the field extractors
const (
	LabelPerson   = "PERSON"
	LabelGPE      = "GPE"
	LabelLocation = "LOC"
)

// Entity is a labelled span of the annotated text. Start and End are byte offsets.
type Entity struct {
	Text  string
	Start int
	End   int
	Label string
}

// Annotator runs named-entity recognition over a document's text.
// Returned entities are ordered by Start.
type Annotator interface {
	Annotate(text string) ([]Entity, error)
}

// AnnotatorFunc adapts a function to Annotator
type AnnotatorFunc func(text string) ([]Entity, error)

func (f AnnotatorFunc) Annotate(text string) ([]Entity, error) { return f(text) }

// NopAnnotator finds nothing; name and location are then always absent
type NopAnnotator struct{}

func (NopAnnotator) Annotate(string) ([]Entity, error) { return nil, nil }

// ProseAnnotator uses prose's averaged-perceptron NER model, which labels
// PERSON and GPE spans. The model is loaded on first use and shared; prose
// only reads it while tagging. Construct once and share.
type ProseAnnotator struct {
	once  sync.Once
	model *prose.Model
}

func NewProseAnnotator() *ProseAnnotator {
	return &ProseAnnotator{}
}

// Annotate tags one line at a time. prose ignores line breaks and chunks
// adjacent proper nouns together, so a header like "Jane Doe\nSoftware
// Engineer" would otherwise come back as a single PERSON.
func (a *ProseAnnotator) Annotate(text string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	a.once.Do(func() { a.model = prose.ModelFromData("talentvault-en") })

	return annotateLines(text, a.annotateLine)
}

func (a *ProseAnnotator) annotateLine(line string) ([]prose.Entity, error) {
	doc, err := prose.NewDocument(line,
		prose.UsingModel(a.model),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, err
	}
	return doc.Entities(), nil
}

// annotateLines runs annotate over each non-blank line and shifts the
// located spans back to offsets in text.
func annotateLines(text string, annotate func(line string) ([]prose.Entity, error)) ([]Entity, error) {
	var entities []Entity
	for start := 0; start <= len(text); {
		n := strings.IndexByte(text[start:], '\n')
		if n < 0 {
			n = len(text) - start
		}
		line := text[start : start+n]

		if strings.TrimSpace(line) != "" {
			found, err := annotate(line)
			if err != nil {
				return nil, err
			}
			for _, e := range locateEntities(line, found) {
				e.Start += start
				e.End += start
				entities = append(entities, e)
			}
		}
		start += n + 1
	}
	return entities, nil
}

// locateEntities recovers byte offsets for prose entities, which carry only
// text. Entities arrive in document order, so each search resumes after the
// previous hit; a span not found there is retried from the start.
func locateEntities(text string, found []prose.Entity) []Entity {
	entities := make([]Entity, 0, len(found))
	cursor := 0

	for _, ent := range found {
		if ent.Text == "" {
			continue
		}
		start, end := findSpan(text, cursor, ent.Text)
		if start < 0 {
			start, end = findSpan(text, 0, ent.Text)
		}
		if start < 0 {
			continue
		}

		entities = append(entities, Entity{
			Text:  text[start:end],
			Start: start,
			End:   end,
			Label: ent.Label,
		})
		if end > cursor {
			cursor = end
		}
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Start < entities[j].Start
	})
	return entities
}

// findSpan locates needle in text[from:]. prose rejoins tokens with single
// spaces, so when the literal search fails the tokens are matched across any
// run of spaces or tabs. A span never crosses a line break.
func findSpan(text string, from int, needle string) (int, int) {
	if idx := strings.Index(text[from:], needle); idx >= 0 {
		return from + idx, from + idx + len(needle)
	}

	tokens := strings.Fields(needle)
	if len(tokens) < 2 {
		return -1, -1
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	re, err := regexp.Compile(strings.Join(quoted, `[^\S\n]+`))
	if err != nil {
		return -1, -1
	}
	loc := re.FindStringIndex(text[from:])
	if loc == nil {
		return -1, -1
	}
	return from + loc[0], from + loc[1]
}
