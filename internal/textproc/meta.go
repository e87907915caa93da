package textproc

import (
	"regexp"
	"strings"
)

var (
	listMarkerRe = regexp.MustCompile(`(?m)^\s*(?:[-*•]|\d+[.)])\s+`)

	// "You feel:" / "You notice:" style meta prefixes, English and
	// Portuguese.
	metaPrefixRe = regexp.MustCompile(`(?mi)^\s*(?:you (?:feel|notice|see|hear|sense)|você (?:sente|percebe|nota|vê|ouve))\s*:\s*`)

	escapedCharRe = regexp.MustCompile(`\\([\\"'*_])`)
)

// StripMeta removes list markers and meta-narration prefixes, then collapses
// single newlines into spaces while preserving blank-line paragraph breaks.
// Escaped characters left by the model are restored last.
func StripMeta(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = listMarkerRe.ReplaceAllString(text, "")
	text = metaPrefixRe.ReplaceAllString(text, "")

	paras := Paragraphs(text)
	for i, p := range paras {
		lines := strings.Split(p, "\n")
		for j, l := range lines {
			lines[j] = strings.TrimSpace(l)
		}
		paras[i] = strings.Join(lines, " ")
	}
	text = strings.Join(paras, "\n\n")

	text = escapedCharRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// RemoveSentencesMentioning drops every sentence containing any of the given
// terms (case-insensitive). Used by character scope hooks.
func RemoveSentencesMentioning(text string, terms []string) string {
	if len(terms) == 0 {
		return text
	}

	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	var paras []string
	for _, p := range Paragraphs(text) {
		var kept []string
		for _, s := range SplitSentences(p) {
			ls := strings.ToLower(s)
			mentioned := false
			for _, t := range lowered {
				if strings.Contains(ls, t) {
					mentioned = true
					break
				}
			}
			if !mentioned {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			paras = append(paras, strings.Join(kept, " "))
		}
	}
	return strings.Join(paras, "\n\n")
}

// Mentions reports whether any of the terms occurs in text
// (case-insensitive).
func Mentions(text string, terms ...string) bool {
	ls := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(ls, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
