package textproc

import "strings"

const (
	DefaultSentencesPerParagraph = 2
	DefaultMinParagraphs         = 3
	DefaultMaxParagraphs         = 5
)

// Paragraphs splits on blank lines, trimming each block.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// Reflow regroups text into paragraphs of perPara sentences, capping the
// total at maxParas by merging the tail chunks into the last paragraph.
// Text that already has at least minParas blank-line-separated paragraphs is
// returned untouched, which makes the pass idempotent on well-formed input.
func Reflow(text string, perPara, minParas, maxParas int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if perPara < 1 {
		perPara = DefaultSentencesPerParagraph
	}

	if len(Paragraphs(text)) >= minParas {
		return text
	}

	// Single logical block: soft-wrap newlines become spaces before
	// sentence splitting.
	flat := strings.Join(Paragraphs(text), " ")
	sentences := SplitSentences(flat)
	if len(sentences) == 0 {
		return text
	}

	var chunks []string
	for i := 0; i < len(sentences); i += perPara {
		end := i + perPara
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
	}

	if maxParas > 0 && len(chunks) > maxParas {
		tail := strings.Join(chunks[maxParas-1:], " ")
		chunks = append(chunks[:maxParas-1], tail)
	}

	return strings.Join(chunks, "\n\n")
}
