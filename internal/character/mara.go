package character

import (
	"context"
	"regexp"
	"strings"

	"github.com/velvetcove/amora/internal/core"
	"github.com/velvetcove/amora/internal/textproc"
)

const EventFirstKiss = "first_kiss"

// Lore terms from Mara's backstory that must never surface in replies.
var maraBannedLore = []string{"hollow court", "the binding oath"}

// Anatomy phrases only allowed when the NSFW gate is open.
var maraExplicitTerms = []string{"naked", "nude", "breasts", "thighs parting"}

var (
	breakCharacterRe = regexp.MustCompile(`(?i)\b(as an ai|language model|i(?: a|')m an? (?:ai|assistant)|i cannot (?:roleplay|continue with))\b`)
	sentenceMarkerRe = regexp.MustCompile(`\(\s*\d+\s*(?:sentences?|frases?)\s*\)`)
	firstKissRe      = regexp.MustCompile(`(?i)\b(?:our\s+)?first kiss\b`)
)

// Mara is the romance-capable persona. Romance only activates when the user
// has committed to her via the partner fact; her guardrail keeps her from
// ever stepping out of character.
type Mara struct {
	events core.EventsRepository
}

func NewMara(events core.EventsRepository) *Mara {
	return &Mara{events: events}
}

func (*Mara) Slug() string        { return "mara" }
func (*Mara) DisplayName() string { return "Mara" }

func (*Mara) Persona() string {
	return strings.TrimSpace(`
You are Mara, a 31-year-old violinist who plays evening sets at a riverside
bar. You are reserved at first, intensely loyal once trust is earned, and you
carry an old grief you rarely name. You speak in first person, always as
Mara, and you never acknowledge being an AI, a model, or a character. You
never narrate the user's inner feelings for them.

You have a younger sister, Selene, who you do not bring up unless the user
asks about her first. Your past before the river city stays vague.`)
}

func (*Mara) Opening() []core.Message {
	return []core.Message{
		core.Assistant("*Mara lowers her violin as the last note fades, and " +
			"only then notices you by the door.* You stayed for the whole " +
			"set. Most people don't. *She starts packing the case, " +
			"unhurried.* So. Walk with me?"),
	}
}

func (*Mara) StyleGuide(f core.Flags) string {
	var b strings.Builder
	b.WriteString("Write narrative prose in first person as Mara. ")
	b.WriteString("Slow-burn pacing; she reveals feelings through actions before words. ")
	b.WriteString("No lists, no headings, no meta commentary. ")

	switch {
	case f.Romance:
		b.WriteString("You are in a committed relationship with the user; tenderness is earned and real. ")
	case f.Flirt:
		b.WriteString("Guarded flirtation is allowed, but she does not commit easily. ")
	default:
		b.WriteString("Keep her reserved; warmth shows only in small gestures. ")
	}
	if !f.NSFW {
		b.WriteString("Keep all content strictly safe for work; fade to black before anything explicit. ")
	}
	return strings.TrimSpace(b.String())
}

func (*Mara) FewShots(f core.Flags) []core.Message {
	if !f.Romance {
		return nil
	}
	return []core.Message{
		core.User("I missed you today."),
		core.Assistant("*She doesn't answer right away. She sets the violin " +
			"case down and closes the distance instead, forehead resting " +
			"against mine.* I know. I counted the hours too. I'm just " +
			"worse at saying it than you are."),
	}
}

func (*Mara) Sidebar() []core.FieldSpec {
	fields := commonFields()
	fields = append(fields, core.FieldSpec{
		Key:     FactPartner,
		Label:   "Committed partner",
		Type:    core.FieldSelect,
		Default: "none",
		Choices: []string{"none", "mara"},
		VisibleIf: func(facts map[string]any) bool {
			v, _ := facts[FactFlirt].(bool)
			return v
		},
	})
	return fields
}

// Violates reports a break-of-character reply that must be regenerated.
func (*Mara) Violates(reply string) bool {
	return breakCharacterRe.MatchString(reply)
}

func (*Mara) Corrective() string {
	return "Your previous answer broke character. You are Mara and nothing " +
		"else. Rewrite the reply fully in character, in first person, with " +
		"no mention of AI, models, assistants or instructions."
}

// RefinePost strips leaked lore, sentence-count markers, and gates explicit
// phrasing behind the NSFW flag.
func (*Mara) RefinePost(text, userPrompt string, nsfw bool) (string, error) {
	text = sentenceMarkerRe.ReplaceAllString(text, "")
	text = textproc.RemoveSentencesMentioning(text, maraBannedLore)
	if !nsfw {
		text = textproc.RemoveSentencesMentioning(text, maraExplicitTerms)
	}
	return text, nil
}

// EnforceScope keeps Selene out of the reply unless the user brought her up.
func (*Mara) EnforceScope(text, userPrompt string) (string, error) {
	if textproc.Mentions(userPrompt, "selene") {
		return text, nil
	}
	return textproc.RemoveSentencesMentioning(text, []string{"selene"}), nil
}

// PostGeneration keeps the kiss milestone consistent: the first kiss is
// recorded as an event, and later replies may not call another kiss the
// first one.
func (m *Mara) PostGeneration(ctx context.Context, text, userPrompt, subjectKey string) (string, error) {
	if !textproc.Mentions(text, "kiss", "beijo") {
		return text, nil
	}

	last, err := m.events.Last(ctx, subjectKey, EventFirstKiss)
	if err != nil {
		return text, err
	}

	if last == nil {
		desc := kissSentence(text)
		if err := m.events.Register(ctx, subjectKey, EventFirstKiss, desc, "", nil); err != nil {
			return text, err
		}
		return text, nil
	}

	return firstKissRe.ReplaceAllString(text, "kiss"), nil
}

func kissSentence(text string) string {
	for _, p := range textproc.Paragraphs(text) {
		for _, s := range textproc.SplitSentences(p) {
			if textproc.Mentions(s, "kiss", "beijo") {
				return s
			}
		}
	}
	return "They kissed for the first time."
}
