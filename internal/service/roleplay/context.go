package roleplay

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/velvetcove/amora/internal/core"
)

// TokenEstimator prices a string in tokens for history budget trimming.
type TokenEstimator func(text string) int

var (
	tkOnce sync.Once
	tk     *tiktoken.Tiktoken
)

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		tk, _ = tiktoken.GetEncoding("cl100k_base")
	})
	return tk
}

// EstimateTokens counts cl100k_base tokens, falling back to a 4-chars-per-
// token heuristic when the encoding is unavailable.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if enc := getTokenizer(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// trimHistory walks interactions newest-first, keeping whole turns until the
// budget is spent, and returns the kept turns as chronological messages. The
// newest turn is always kept, even when it alone exceeds the budget.
func trimHistory(interactions []core.Interaction, budget int, estimate TokenEstimator) []core.Message {
	if len(interactions) == 0 {
		return nil
	}

	total := 0
	start := len(interactions)
	for i := len(interactions) - 1; i >= 0; i-- {
		cost := estimate(interactions[i].UserMessage) + estimate(interactions[i].Reply)
		if total+cost > budget && start < len(interactions) {
			break
		}
		total += cost
		start = i
	}

	msgs := make([]core.Message, 0, (len(interactions)-start)*2)
	for _, it := range interactions[start:] {
		msgs = append(msgs, core.User(it.UserMessage), core.Assistant(it.Reply))
	}
	return msgs
}
