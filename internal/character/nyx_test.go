package character

import (
	"strings"
	"testing"
)

func TestNyx_EnforceScope(t *testing.T) {
	nyx := &Nyx{}
	reply := "I shelved the grimoires. Moros watched from the rafters, judging. The candles guttered low."

	out, err := nyx.EnforceScope(reply, "what did you do tonight?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "Moros") {
		t.Errorf("raven mentioned unprompted: %q", out)
	}
	if !strings.Contains(out, "The candles guttered low.") {
		t.Errorf("innocent sentence dropped: %q", out)
	}

	out, err = nyx.EnforceScope(reply, "how is your raven?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Moros") {
		t.Errorf("raven removed although user asked: %q", out)
	}
}
