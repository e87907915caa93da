package roleplay

import (
	"reflect"
	"testing"

	"github.com/velvetcove/amora/internal/core"
)

func charCount(s string) int { return len(s) }

func TestTrimHistory_KeepsNewestWithinBudget(t *testing.T) {
	interactions := []core.Interaction{
		{UserMessage: "aaaa", Reply: "bbbb"}, // 8
		{UserMessage: "cccc", Reply: "dddd"}, // 8
		{UserMessage: "ee", Reply: "ff"},     // 4
	}

	msgs := trimHistory(interactions, 12, charCount)

	want := []core.Message{
		core.User("cccc"), core.Assistant("dddd"),
		core.User("ee"), core.Assistant("ff"),
	}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("got %v, want %v", msgs, want)
	}
}

func TestTrimHistory_NewestAlwaysKept(t *testing.T) {
	interactions := []core.Interaction{
		{UserMessage: "old", Reply: "old reply"},
		{UserMessage: "this alone blows the budget", Reply: "so does this"},
	}

	msgs := trimHistory(interactions, 5, charCount)
	if len(msgs) != 2 {
		t.Fatalf("expected the newest turn only, got %d messages", len(msgs))
	}
	if msgs[0].Content != "this alone blows the budget" {
		t.Errorf("newest turn discarded: %v", msgs)
	}
}

func TestTrimHistory_Deterministic(t *testing.T) {
	interactions := []core.Interaction{
		{UserMessage: "one", Reply: "two"},
		{UserMessage: "three", Reply: "four"},
		{UserMessage: "five", Reply: "six"},
	}

	first := trimHistory(interactions, 15, charCount)
	second := trimHistory(interactions, 15, charCount)
	if !reflect.DeepEqual(first, second) {
		t.Error("same input and budget produced different trims")
	}
}

func TestTrimHistory_Empty(t *testing.T) {
	if msgs := trimHistory(nil, 100, charCount); msgs != nil {
		t.Errorf("expected nil for empty history, got %v", msgs)
	}
}

func TestTrimHistory_AllFit(t *testing.T) {
	interactions := []core.Interaction{
		{UserMessage: "hi", Reply: "hey"},
		{UserMessage: "how are you", Reply: "fine"},
	}

	msgs := trimHistory(interactions, 1000, charCount)
	if len(msgs) != 4 {
		t.Fatalf("expected all 4 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "hi" || msgs[3].Content != "fine" {
		t.Errorf("chronological order broken: %v", msgs)
	}
}
