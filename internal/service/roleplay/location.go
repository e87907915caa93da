package roleplay

import (
	"regexp"
	"strings"
)

// Movement and presence cues, English and Portuguese. The captured group is
// the destination phrase.
var locationRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:let'?s go to|take me to|we head to|going to|vamos (?:para|pra|ao|à)|me leva (?:para|pra))\s+(?:the\s+|o\s+|a\s+)?([\p{L}][\p{L} ']{2,40})`),
	regexp.MustCompile(`(?i)\b(?:we'?re (?:at|in)|i'?m (?:at|in)|estamos (?:no|na|em)|estou (?:no|na|em))\s+(?:the\s+|o\s+|a\s+)?([\p{L}][\p{L} ']{2,40})`),
}

// InferLocation extracts a scene location positively mentioned in the
// prompt. Empty string means no cue, never "unknown location".
func InferLocation(prompt string) string {
	for _, re := range locationRes {
		if m := re.FindStringSubmatch(prompt); m != nil {
			loc := strings.TrimSpace(m[1])
			loc = strings.TrimRight(loc, ".,!?")
			if loc != "" {
				return strings.ToLower(loc)
			}
		}
	}
	return ""
}
