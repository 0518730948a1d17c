package extraction

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// TokenSetRatio scores how well the token sets of a and b overlap, 0-100.
// Both strings are lower-cased and split on whitespace. Symbols inside a token
// are kept, so "c++", "c#" and "c" stay distinct; only sentence punctuation
// and list bullets around a token are trimmed. Token order and repetition do
// not matter, and a string whose tokens are all contained in the other
// scores 100.
func TokenSetRatio(a, b string) int {
	return tokenSetRatio(tokenSet(a), tokenSet(b))
}

// tokenEdgePunct is stripped from both ends of a token. '+' and '#' are not
// in it; they are part of skill names.
const tokenEdgePunct = `.,;:!?'"()[]{}<>*-•|/\`

// tokenSet returns the sorted, de-duplicated processed tokens of s
func tokenSet(s string) []string {
	var fields []string
	for _, f := range strings.Fields(strings.ToLower(s)) {
		if f = strings.Trim(f, tokenEdgePunct); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	sort.Strings(fields)
	out := fields[:1]
	for _, f := range fields[1:] {
		if f != out[len(out)-1] {
			out = append(out, f)
		}
	}
	return out
}

func tokenSetRatio(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var sect, onlyA, onlyB []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			sect = append(sect, a[i])
			i++
			j++
		case a[i] < b[j]:
			onlyA = append(onlyA, a[i])
			i++
		default:
			onlyB = append(onlyB, b[j])
			j++
		}
	}
	onlyA = append(onlyA, a[i:]...)
	onlyB = append(onlyB, b[j:]...)

	if len(sect) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sorted := strings.Join(sect, " ")
	combinedA := joinNonEmpty(sorted, strings.Join(onlyA, " "))
	combinedB := joinNonEmpty(sorted, strings.Join(onlyB, " "))

	best := ratio(combinedA, combinedB)
	if sorted != "" {
		best = max(best, ratio(sorted, combinedA), ratio(sorted, combinedB))
	}
	return best
}

// ratio is the normalised edit-distance similarity of two strings, 0-100
func ratio(a, b string) int {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(100*float64(longest-dist)/float64(longest) + 0.5)
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
