package extraction

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Default fuzzy matching thresholds
const (
	DefaultScoreCutoff = 85
	DefaultLimit       = 200
)

// Vocabulary is the ordered list of canonical skill labels
type Vocabulary []string

// LoadVocabulary reads one label per line; labels are trimmed and blank
// lines skipped. File order is preserved.
func LoadVocabulary(path string) (Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open skills vocabulary: %w", err)
	}
	defer f.Close()

	var vocab Vocabulary
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if label := strings.TrimSpace(scanner.Text()); label != "" {
			vocab = append(vocab, label)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read skills vocabulary: %w", err)
	}
	return vocab, nil
}

// MatchOptions tunes the fuzzy pass
type MatchOptions struct {
	// ScoreCutoff is the minimum token-set ratio (0-100) a label must reach
	ScoreCutoff int
	// Limit caps how many fuzzy hits are kept, best scores first
	Limit int
}

// DefaultMatchOptions returns cutoff 85, limit 200
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{ScoreCutoff: DefaultScoreCutoff, Limit: DefaultLimit}
}

func (o MatchOptions) normalized() MatchOptions {
	if o.ScoreCutoff <= 0 || o.ScoreCutoff > 100 {
		o.ScoreCutoff = DefaultScoreCutoff
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// MatchSkills returns the sorted union of the fuzzy and exact passes.
// Labels keep the vocabulary's casing.
func MatchSkills(text string, vocab Vocabulary, opts MatchOptions) []string {
	found := make(map[string]struct{})

	for _, label := range fuzzyMatches(text, vocab, opts.normalized()) {
		found[label] = struct{}{}
	}
	for _, label := range exactMatches(text, vocab) {
		found[label] = struct{}{}
	}

	skills := make([]string, 0, len(found))
	for label := range found {
		skills = append(skills, label)
	}
	sort.Strings(skills)
	return skills
}

type scoredLabel struct {
	label string
	score int
}

// fuzzyMatches scores the whole text against every label and keeps the top
// opts.Limit labels at or above opts.ScoreCutoff. Equal scores keep
// vocabulary order.
func fuzzyMatches(text string, vocab Vocabulary, opts MatchOptions) []string {
	textTokens := tokenSet(text)
	if len(textTokens) == 0 {
		return nil
	}

	var hits []scoredLabel
	for _, label := range vocab {
		score := tokenSetRatio(textTokens, tokenSet(label))
		if score >= opts.ScoreCutoff {
			hits = append(hits, scoredLabel{label: label, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}

	labels := make([]string, len(hits))
	for i, h := range hits {
		labels[i] = h.label
	}
	return labels
}

// exactMatches finds labels occurring as whole words, ignoring case
func exactMatches(text string, vocab Vocabulary) []string {
	lower := strings.ToLower(text)

	var labels []string
	for _, label := range vocab {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(label)) + `\b`)
		if err != nil {
			continue
		}
		if re.MatchString(lower) {
			labels = append(labels, label)
		}
	}
	return labels
}
