package textproc

import (
	"reflect"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "single sentence",
			input:    "She smiled.",
			expected: []string{"She smiled."},
		},
		{
			name:     "two sentences",
			input:    "She smiled. Then she left.",
			expected: []string{"She smiled.", "Then she left."},
		},
		{
			name:     "closing quote stays with sentence",
			input:    `"Stay with me." She whispered it twice.`,
			expected: []string{`"Stay with me."`, "She whispered it twice."},
		},
		{
			name:     "quote after punctuation",
			input:    `He said "go." Then silence.`,
			expected: []string{`He said "go."`, "Then silence."},
		},
		{
			name:     "question and exclamation",
			input:    "Really? Yes! Fine.",
			expected: []string{"Really?", "Yes!", "Fine."},
		},
		{
			name:     "no terminal punctuation",
			input:    "trailing fragment",
			expected: []string{"trailing fragment"},
		},
		{
			name:     "abbreviation-like dot mid-token is not split",
			input:    "It was 3.5 meters away. She ran.",
			expected: []string{"It was 3.5 meters away.", "She ran."},
		},
		{
			name:     "ellipsis",
			input:    "Maybe… maybe not. Who knows?",
			expected: []string{"Maybe…", "maybe not.", "Who knows?"},
		},
		{
			name:     "asterisk action closer",
			input:    "*she laughs.* And waves.",
			expected: []string{"*she laughs.*", "And waves."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SplitSentences() = %q, want %q", got, tt.expected)
			}
		})
	}
}
