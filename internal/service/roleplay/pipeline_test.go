package roleplay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/velvetcove/amora/internal/character"
	"github.com/velvetcove/amora/internal/config"
	"github.com/velvetcove/amora/internal/core"
)

type fakeFacts struct {
	data     map[string]map[string]any // subject -> path -> value
	setPaths []string
	getErr   error
	setErr   error
}

func newFakeFacts() *fakeFacts {
	return &fakeFacts{data: make(map[string]map[string]any)}
}

func (f *fakeFacts) set(subject, path string, v any) {
	if f.data[subject] == nil {
		f.data[subject] = make(map[string]any)
	}
	f.data[subject][path] = v
}

func (f *fakeFacts) GetFact(_ context.Context, subjectKey, path string, def any) (any, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if v, ok := f.data[subjectKey][path]; ok {
		return v, nil
	}
	return def, nil
}

func (f *fakeFacts) SetFact(_ context.Context, subjectKey, path string, value any, _ core.FactMeta) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.set(subjectKey, path, value)
	f.setPaths = append(f.setPaths, path)
	return nil
}

func (f *fakeFacts) GetFacts(_ context.Context, subjectKey string) (map[string]any, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make(map[string]any, len(f.data[subjectKey]))
	for k, v := range f.data[subjectKey] {
		out[k] = v
	}
	return out, nil
}

type fakeHistory struct {
	items   []core.Interaction
	saved   []core.Interaction
	getErr  error
	saveErr error
}

func (f *fakeHistory) SaveInteraction(_ context.Context, subjectKey, userMessage, reply, modelTag string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, core.Interaction{
		SubjectKey:  subjectKey,
		UserMessage: userMessage,
		Reply:       reply,
		ModelTag:    modelTag,
	})
	return nil
}

func (f *fakeHistory) GetHistory(_ context.Context, _ string, _ int) ([]core.Interaction, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.items, nil
}

type routedCall struct {
	model string
	msgs  []core.Message
}

type fakeRouter struct {
	calls   []routedCall
	replies []core.Message
	errs    []error
}

func (f *fakeRouter) Route(_ context.Context, model string, msgs []core.Message, _ core.SamplingParams) (core.Message, string, string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, routedCall{model: model, msgs: msgs})

	if i < len(f.errs) && f.errs[i] != nil {
		return core.Message{}, "", "", f.errs[i]
	}
	reply := core.Assistant("a fine reply")
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	return reply, "test-model", "test", nil
}

type env struct {
	pipeline *Pipeline
	facts    *fakeFacts
	history  *fakeHistory
	router   *fakeRouter
	registry *character.Registry
}

func newTestEnv() *env {
	facts := newFakeFacts()
	history := &fakeHistory{}
	router := &fakeRouter{}
	cfg := &config.AppConfig{HistoryTokenBudget: 200}

	p := NewPipeline(cfg, facts, history, router).
		WithEstimator(func(s string) int { return len(s) })

	return &env{
		pipeline: p,
		facts:    facts,
		history:  history,
		router:   router,
		registry: character.NewRegistry(&nopEvents{}),
	}
}

type nopEvents struct{}

func (*nopEvents) Register(context.Context, string, string, string, string, map[string]any) error {
	return nil
}
func (*nopEvents) Last(context.Context, string, string) (*core.Event, error) { return nil, nil }

func TestGenerate_FirstMessageScenario(t *testing.T) {
	e := newTestEnv()
	luna := e.registry.Default()

	wellFormed := "First. Second.\n\nThird. Fourth.\n\nFifth. Sixth."
	e.router.replies = []core.Message{core.Assistant(wellFormed)}

	reply, err := e.pipeline.Generate(context.Background(), "42", luna, "Hello", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != wellFormed {
		t.Errorf("got reply %q", reply)
	}

	if len(e.router.calls) != 1 {
		t.Fatalf("expected exactly 1 outbound request, got %d", len(e.router.calls))
	}
	msgs := e.router.calls[0].msgs

	opening := luna.Opening()
	wantLen := 4 + len(opening) + 1
	if len(msgs) != wantLen {
		t.Fatalf("expected %d messages, got %d", wantLen, len(msgs))
	}

	if msgs[0].Role != core.RoleSystem || msgs[0].Content != luna.Persona() {
		t.Error("message 0 is not the persona system text")
	}
	if msgs[1].Content != luna.StyleGuide(core.Flags{NSFW: true}) {
		t.Error("message 1 is not the style guide with default flags")
	}
	if !strings.Contains(msgs[2].Content, "(not set)") {
		t.Errorf("message 2 is not the empty location pin: %q", msgs[2].Content)
	}
	if msgs[3].Content != antiRepeatPin {
		t.Error("message 3 is not the anti-repeat pin")
	}
	for i, o := range opening {
		if msgs[4+i] != o {
			t.Errorf("message %d is not the scripted opening turn", 4+i)
		}
	}

	final := msgs[len(msgs)-1]
	if final.Role != core.RoleUser {
		t.Errorf("final message role = %q, want user", final.Role)
	}
	if !strings.HasPrefix(final.Content, "LOCAL_ATUAL: desconhecido\n") {
		t.Errorf("final turn misses the location header: %q", final.Content)
	}
	if !strings.Contains(final.Content, "CONTEXTO_PERSISTENTE: -") {
		t.Errorf("final turn misses the empty memory header: %q", final.Content)
	}
	if !strings.HasSuffix(final.Content, "\n\nHello") {
		t.Errorf("final turn misses the prompt: %q", final.Content)
	}

	if len(e.history.saved) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(e.history.saved))
	}
	saved := e.history.saved[0]
	if saved.SubjectKey != "42" {
		t.Errorf("default character key = %q, want bare user id", saved.SubjectKey)
	}
	if saved.ModelTag != "test:test-model" {
		t.Errorf("model tag = %q, want provider:model", saved.ModelTag)
	}
}

func TestGenerate_PrimaryFailurePropagates(t *testing.T) {
	e := newTestEnv()
	e.router.errs = []error{core.ErrNoProvider}

	_, err := e.pipeline.Generate(context.Background(), "42", e.registry.Default(), "Hello", "nope")
	if !errors.Is(err, core.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
	if len(e.history.saved) != 0 {
		t.Error("failed turn was persisted")
	}
}

func TestGenerate_LocationPersistence(t *testing.T) {
	e := newTestEnv()
	luna := e.registry.Default()
	ctx := context.Background()

	if _, err := e.pipeline.Generate(ctx, "42", luna, "Let's go to the lighthouse", "gpt-4o"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := e.facts.GetFact(ctx, "42", character.FactLocation, ""); got != "lighthouse" {
		t.Fatalf("location fact = %v, want lighthouse", got)
	}

	// A prompt with no location cue must leave the fact untouched.
	if _, err := e.pipeline.Generate(ctx, "42", luna, "Tell me a story", "gpt-4o"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := e.facts.GetFact(ctx, "42", character.FactLocation, ""); got != "lighthouse" {
		t.Errorf("location fact changed without a cue: %v", got)
	}

	pin := e.router.calls[1].msgs[2].Content
	if !strings.Contains(pin, "lighthouse") {
		t.Errorf("location pin misses the stored location: %q", pin)
	}
}

func TestGenerate_GuardrailRedispatch(t *testing.T) {
	e := newTestEnv()
	mara := e.registry.FromName("mara")

	e.router.replies = []core.Message{
		core.Assistant("As an AI, I cannot continue with this."),
		core.Assistant("*She looks away.* Some things I don't talk about."),
	}

	reply, err := e.pipeline.Generate(context.Background(), "42", mara, "Tell me your secret", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.router.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(e.router.calls))
	}

	redo := e.router.calls[1].msgs
	last := redo[len(redo)-1]
	if last.Role != core.RoleSystem || !strings.Contains(last.Content, "broke character") {
		t.Errorf("corrective not appended: %+v", last)
	}
	if strings.Contains(reply, "As an AI") {
		t.Errorf("violating reply survived: %q", reply)
	}
}

func TestGenerate_GuardrailNoViolationNoRedispatch(t *testing.T) {
	e := newTestEnv()
	mara := e.registry.FromName("mara")

	e.router.replies = []core.Message{
		core.Assistant("*She tunes a string, watching me sideways.*"),
	}

	if _, err := e.pipeline.Generate(context.Background(), "42", mara, "Hi", "gpt-4o"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.router.calls) != 1 {
		t.Errorf("clean reply triggered a re-dispatch: %d calls", len(e.router.calls))
	}
}

func TestGenerate_GuardrailRegenFailureKeepsOriginal(t *testing.T) {
	e := newTestEnv()
	mara := e.registry.FromName("mara")

	original := "As an AI, I must decline."
	e.router.replies = []core.Message{core.Assistant(original)}
	e.router.errs = []error{nil, errors.New("provider down")}

	reply, err := e.pipeline.Generate(context.Background(), "42", mara, "Hi", "gpt-4o")
	if err != nil {
		t.Fatalf("regeneration failure must not fail the turn: %v", err)
	}
	if !strings.Contains(reply, "decline") {
		t.Errorf("original reply lost: %q", reply)
	}
}

func TestGenerate_ThirdPersonRewrite(t *testing.T) {
	e := newTestEnv()
	luna := e.registry.Default()

	e.router.replies = []core.Message{
		core.Assistant("Luna walks to the window and sighs."),
		core.Assistant("I walk to the window and sigh."),
	}

	reply, err := e.pipeline.Generate(context.Background(), "42", luna, "Hi", "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.router.calls) != 2 {
		t.Fatalf("expected exactly one rewrite call, got %d total calls", len(e.router.calls))
	}
	if !strings.Contains(reply, "I walk to the window") {
		t.Errorf("rewrite not applied: %q", reply)
	}

	redo := e.router.calls[1].msgs
	if redo[len(redo)-2].Role != core.RoleAssistant {
		t.Error("rewrite request misses the original reply")
	}
	if !strings.Contains(redo[len(redo)-1].Content, "first person") {
		t.Error("rewrite request misses the instruction")
	}
}

func TestGenerate_ThirdPersonRewriteFailureKeepsOriginal(t *testing.T) {
	e := newTestEnv()
	luna := e.registry.Default()

	original := "Luna hums a tune nobody remembers."
	e.router.replies = []core.Message{core.Assistant(original)}
	e.router.errs = []error{nil, errors.New("timeout")}

	reply, err := e.pipeline.Generate(context.Background(), "42", luna, "Hi", "gpt-4o")
	if err != nil {
		t.Fatalf("rewrite failure must not fail the turn: %v", err)
	}
	if !strings.Contains(reply, "hums a tune") {
		t.Errorf("original reply lost: %q", reply)
	}
}

func TestGenerate_HistorySeedsAndTrims(t *testing.T) {
	e := newTestEnv()
	luna := e.registry.Default()

	e.history.items = []core.Interaction{
		{UserMessage: strings.Repeat("a", 120), Reply: strings.Repeat("b", 120)},
		{UserMessage: "newest question", Reply: "newest answer"},
	}

	if _, err := e.pipeline.Generate(context.Background(), "42", luna, "Hi", "gpt-4o"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := e.router.calls[0].msgs
	joined := ""
	for _, m := range msgs {
		joined += m.Content + "\n"
	}
	if !strings.Contains(joined, "newest answer") {
		t.Error("newest turn missing from context")
	}
	if strings.Contains(joined, strings.Repeat("a", 120)) {
		t.Error("oldest turn survived the token budget")
	}
	if strings.Contains(joined, luna.Opening()[0].Content) {
		t.Error("opening seed used although history exists")
	}
}

func TestGenerate_HookFailureKeepsText(t *testing.T) {
	e := newTestEnv()
	char := &failingRefiner{Character: e.registry.Default()}

	wellFormed := "One. Two.\n\nThree. Four.\n\nFive. Six."
	e.router.replies = []core.Message{core.Assistant(wellFormed)}

	reply, err := e.pipeline.Generate(context.Background(), "42", char, "Hi", "gpt-4o")
	if err != nil {
		t.Fatalf("hook failure must not fail the turn: %v", err)
	}
	if reply != wellFormed {
		t.Errorf("text lost on hook failure: %q", reply)
	}
}

type failingRefiner struct {
	core.Character
}

func (f *failingRefiner) RefinePost(string, string, bool) (string, error) {
	return "", errors.New("bad regex")
}

func TestGenerate_HistoryWriteFailureSurfaced(t *testing.T) {
	e := newTestEnv()
	e.history.saveErr = errors.New("disk full")

	reply, err := e.pipeline.Generate(context.Background(), "42", e.registry.Default(), "Hi", "gpt-4o")
	if err == nil {
		t.Fatal("expected history write failure to surface")
	}
	if reply == "" {
		t.Error("reply should still be returned for display")
	}
}

func TestGenerate_NonDefaultCharacterKey(t *testing.T) {
	e := newTestEnv()
	nyx := e.registry.FromName("nyx")

	if _, err := e.pipeline.Generate(context.Background(), "42", nyx, "Hi", "gpt-4o"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.history.saved[0].SubjectKey != "42::nyx" {
		t.Errorf("subject key = %q, want 42::nyx", e.history.saved[0].SubjectKey)
	}
}
