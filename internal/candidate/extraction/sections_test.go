package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSections(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Sections
	}{
		{
			name: "experience before education overlaps",
			text: "Intro text. Experience: worked at X. Education: BSc Y.",
			want: Sections{
				Summary:    "Intro text.",
				Education:  "Education: BSc Y.",
				Experience: "Experience: worked at X. Education: BSc Y.",
			},
		},
		{
			name: "education before experience",
			text: "Jane\nEDUCATION\nBSc\nExperience\nAcme",
			want: Sections{
				Summary:    "Jane",
				Education:  "EDUCATION\nBSc\nExperience\nAcme",
				Experience: "Experience\nAcme",
			},
		},
		{
			name: "no anchors",
			text: "  Just a short bio.  ",
			want: Sections{Summary: "Just a short bio."},
		},
		{
			name: "only employment",
			text: "Bio\nEmployment History\nAcme",
			want: Sections{
				Summary:    "Bio",
				Experience: "Employment History\nAcme",
			},
		},
		{
			name: "later of experience and employment is used",
			text: "Bio. Employment: Acme. Experience: 5 years.",
			want: Sections{
				Summary:    "Bio. Employment: Acme.",
				Experience: "Experience: 5 years.",
			},
		},
		{
			name: "anchor at start leaves empty summary",
			text: "Education: MSc",
			want: Sections{Education: "Education: MSc"},
		},
		{
			name: "empty",
			text: "",
			want: Sections{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSections(tt.text))
		})
	}
}

func TestSplitSections_NonASCIIOffsets(t *testing.T) {
	// U+0130 lower-cases to a 3-byte sequence with strings.ToLower
	text := "İstanbul native. Experience: Acme."
	got := SplitSections(text)

	assert.Equal(t, "İstanbul native.", got.Summary)
	assert.Equal(t, "Experience: Acme.", got.Experience)
}

func TestSplitSections_ZonesAreSlicesOfText(t *testing.T) {
	text := "Summary here\nExperience\nA\nEducation\nB\n"
	got := SplitSections(text)

	for _, zone := range []string{got.Summary, got.Education, got.Experience} {
		assert.True(t, strings.Contains(text, zone), zone)
	}
	assert.True(t, strings.HasSuffix(got.Experience, got.Education))
}
