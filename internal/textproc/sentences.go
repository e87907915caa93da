// Package textproc holds the pure text transforms applied to generated
// replies. Every function takes and returns plain strings and never fails.
package textproc

import (
	"strings"
	"unicode"
)

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'…': true, '。': true, '！': true, '？': true,
}

// Closing characters that belong to the sentence they follow.
var sentenceClosers = map[rune]bool{
	'"': true, '\'': true, '”': true, '’': true,
	'»': true, ')': true, ']': true, '*': true,
}

// SplitSentences splits on terminal punctuation followed by whitespace or
// end of input. Quotes and other closers directly after the punctuation are
// kept with the preceding sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if !sentenceEnders[r] {
			continue
		}

		// Attach closers to the current sentence.
		for i+1 < len(runes) && sentenceClosers[runes[i+1]] {
			i++
			current.WriteRune(runes[i])
		}

		if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
