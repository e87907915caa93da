package textproc

import (
	"strings"
	"testing"
)

func TestReflow_RegroupsSingleBlock(t *testing.T) {
	input := "One. Two. Three. Four. Five. Six."
	got := Reflow(input, 2, 3, 5)

	paras := Paragraphs(got)
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %q", len(paras), got)
	}
	if paras[0] != "One. Two." {
		t.Errorf("first paragraph = %q", paras[0])
	}
	if paras[2] != "Five. Six." {
		t.Errorf("last paragraph = %q", paras[2])
	}
}

func TestReflow_CapsParagraphCount(t *testing.T) {
	sentences := make([]string, 16)
	for i := range sentences {
		sentences[i] = "Word."
	}
	input := strings.Join(sentences, " ")

	got := Reflow(input, 2, 3, 5)
	paras := Paragraphs(got)
	if len(paras) != 5 {
		t.Fatalf("expected 5 paragraphs after capping, got %d", len(paras))
	}
	// Tail chunks merge into the final paragraph.
	if n := len(SplitSentences(paras[4])); n != 8 {
		t.Errorf("expected 8 sentences merged into last paragraph, got %d", n)
	}
}

func TestReflow_WellFormedUntouched(t *testing.T) {
	input := "First para here.\n\nSecond para there.\n\nThird para anywhere."
	got := Reflow(input, 2, 3, 5)
	if got != input {
		t.Errorf("well-formed text was modified: %q", got)
	}
}

func TestReflow_Idempotent(t *testing.T) {
	input := "One. Two. Three. Four. Five. Six. Seven. Eight."
	once := Reflow(input, 2, 3, 5)
	twice := Reflow(once, 2, 3, 5)
	if once != twice {
		t.Errorf("reflow not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestReflow_Empty(t *testing.T) {
	if got := Reflow("   ", 2, 3, 5); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
