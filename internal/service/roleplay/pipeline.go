package roleplay

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/velvetcove/amora/internal/character"
	"github.com/velvetcove/amora/internal/config"
	"github.com/velvetcove/amora/internal/core"
	"github.com/velvetcove/amora/internal/textproc"
	"github.com/velvetcove/amora/pkg/log"
)

// historyFetchLimit bounds the raw rows read before token trimming.
const historyFetchLimit = 50

const antiRepeatPin = "Do not repeat or paraphrase your earlier replies and " +
	"do not re-describe scenes already established. Move the story forward " +
	"with each turn."

// Router dispatches a message list to the provider serving the model.
type Router interface {
	Route(ctx context.Context, model string, msgs []core.Message, params core.SamplingParams) (core.Message, string, string, error)
}

// Pipeline turns a user prompt into a persisted, persona-consistent reply.
// Only the primary generation call may fail the request; every guardrail,
// rewrite, hook and formatting step degrades to the previous text.
type Pipeline struct {
	cfg      *config.AppConfig
	facts    core.FactsRepository
	history  core.HistoryRepository
	router   Router
	estimate TokenEstimator
}

func NewPipeline(cfg *config.AppConfig, facts core.FactsRepository, history core.HistoryRepository, router Router) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		facts:    facts,
		history:  history,
		router:   router,
		estimate: EstimateTokens,
	}
}

// WithEstimator overrides the token estimator, used by tests.
func (p *Pipeline) WithEstimator(estimate TokenEstimator) *Pipeline {
	p.estimate = estimate
	return p
}

// Generate runs the full turn: derive the subject key, persist a detected
// location, rebuild trimmed history, assemble the message list in fixed
// order, dispatch, run the guardrail and post-processing chain, persist and
// return the final reply.
func (p *Pipeline) Generate(ctx context.Context, userID string, char core.Character, prompt, model string) (string, error) {
	subjectKey := character.SubjectKey(userID, char)
	logger := log.FromCtx(ctx).With().
		Str("request_id", uuid.NewString()).
		Str("character", char.Slug()).
		Str("subject", subjectKey).
		Logger()
	ctx = logger.WithContext(ctx)

	if loc := InferLocation(prompt); loc != "" {
		meta := core.FactMeta{Source: "service"}
		if err := p.facts.SetFact(ctx, subjectKey, character.FactLocation, loc, meta); err != nil {
			logger.Warn().Err(err).Str("location", loc).Msg("location fact write failed")
		}
	}

	location := p.currentLocation(ctx, subjectKey)
	flags := p.computeFlags(ctx, subjectKey, char)
	history := p.rebuildHistory(ctx, subjectKey, char)

	msgs := make([]core.Message, 0, len(history)+8)
	msgs = append(msgs,
		core.System(char.Persona()),
		core.System(char.StyleGuide(flags)),
		core.System(locationPin(location)),
		core.System(antiRepeatPin),
	)
	msgs = append(msgs, char.FewShots(flags)...)
	msgs = append(msgs, history...)
	msgs = append(msgs, core.User(p.finalUserTurn(ctx, subjectKey, prompt, location)))

	reply, resolvedModel, providerName, err := p.router.Route(ctx, model, msgs, core.DefaultSampling())
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	text := reply.Content

	text = p.applyGuardrail(ctx, char, msgs, model, text)
	text = p.rewriteThirdPerson(ctx, char, msgs, model, text)

	if refiner, ok := char.(core.PostRefiner); ok {
		refined, err := refiner.RefinePost(text, prompt, flags.NSFW)
		if err != nil {
			logger.Warn().Err(err).Msg("refine hook failed, keeping previous text")
		} else {
			text = refined
		}
	}

	text = textproc.StripMeta(text)
	text = textproc.Reflow(text,
		textproc.DefaultSentencesPerParagraph,
		textproc.DefaultMinParagraphs,
		textproc.DefaultMaxParagraphs)

	if enforcer, ok := char.(core.ScopeEnforcer); ok {
		scoped, err := enforcer.EnforceScope(text, prompt)
		if err != nil {
			logger.Warn().Err(err).Msg("scope hook failed, keeping previous text")
		} else {
			text = scoped
		}
	}

	if post, ok := char.(core.PostGenerator); ok {
		generated, err := post.PostGeneration(ctx, text, prompt, subjectKey)
		if err != nil {
			logger.Warn().Err(err).Msg("post-generation hook failed, keeping previous text")
		} else {
			text = generated
		}
	}

	modelTag := providerName + ":" + resolvedModel
	if err := p.history.SaveInteraction(ctx, subjectKey, prompt, text, modelTag); err != nil {
		// A lost history entry breaks continuity, so unlike fact writes this
		// one is surfaced. The reply is still returned for display.
		return text, fmt.Errorf("save interaction: %w", err)
	}

	logger.Info().Str("model_tag", modelTag).Int("reply_len", len(text)).Msg("turn generated")
	return text, nil
}

// applyGuardrail re-dispatches once with the corrective pinned when the
// character's rule predicate flags the reply. Failures keep the original.
func (p *Pipeline) applyGuardrail(ctx context.Context, char core.Character, msgs []core.Message, model, text string) string {
	guard, ok := char.(core.Guardrail)
	if !ok || !guard.Violates(text) {
		return text
	}

	logger := log.FromCtx(ctx)
	logger.Info().Msg("guardrail violation, regenerating")

	redo := append(append([]core.Message{}, msgs...), core.System(guard.Corrective()))
	reply, _, _, err := p.router.Route(ctx, model, redo, core.DefaultSampling())
	if err != nil {
		logger.Warn().Err(err).Msg("guardrail regeneration failed, keeping original reply")
		return text
	}
	if reply.Content == "" {
		return text
	}
	return reply.Content
}

// rewriteThirdPerson issues exactly one rewrite call when the reply slips
// into third person, detected by a line starting with the character's name.
// The rewrite call's own failure is swallowed.
func (p *Pipeline) rewriteThirdPerson(ctx context.Context, char core.Character, msgs []core.Message, model, text string) string {
	if !startsLineWithName(text, char.DisplayName()) {
		return text
	}

	logger := log.FromCtx(ctx)
	logger.Info().Msg("third-person slip, requesting rewrite")

	redo := append(append([]core.Message{}, msgs...),
		core.Assistant(text),
		core.System(fmt.Sprintf("The reply above narrates %s in third person. "+
			"Rewrite it entirely in first person, as %s speaking, keeping the "+
			"same content and length.", char.DisplayName(), char.DisplayName())),
	)
	reply, _, _, err := p.router.Route(ctx, model, redo, core.DefaultSampling())
	if err != nil {
		logger.Warn().Err(err).Msg("rewrite failed, keeping original reply")
		return text
	}
	if reply.Content == "" {
		return text
	}
	return reply.Content
}

func startsLineWithName(text, name string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(line, " \t*")
		if strings.HasPrefix(line, name+" ") {
			return true
		}
	}
	return false
}

// rebuildHistory reads stored turns and trims them to the token budget; a
// subject with no history is seeded with the persona's scripted opening.
// Read failures degrade to the opening seed.
func (p *Pipeline) rebuildHistory(ctx context.Context, subjectKey string, char core.Character) []core.Message {
	interactions, err := p.history.GetHistory(ctx, subjectKey, historyFetchLimit)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("history read failed, seeding opening")
		return char.Opening()
	}
	if len(interactions) == 0 {
		return char.Opening()
	}
	return trimHistory(interactions, p.cfg.HistoryTokenBudget, p.estimate)
}

func (p *Pipeline) currentLocation(ctx context.Context, subjectKey string) string {
	v, err := p.facts.GetFact(ctx, subjectKey, character.FactLocation, "")
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("location fact read failed")
		return ""
	}
	s, _ := v.(string)
	return s
}

func locationPin(location string) string {
	if location == "" {
		location = "(not set)"
	}
	return fmt.Sprintf("Current scene location: %s. Do not change the scene "+
		"or location unless the user explicitly asks to move.", location)
}

// finalUserTurn wraps the prompt with the scene header and the persistent
// memory-fact summary.
func (p *Pipeline) finalUserTurn(ctx context.Context, subjectKey, prompt, location string) string {
	if location == "" {
		location = "desconhecido"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LOCAL_ATUAL: %s\n", location)
	fmt.Fprintf(&b, "CONTEXTO_PERSISTENTE: %s\n\n", p.factsSummary(ctx, subjectKey))
	b.WriteString(prompt)
	return b.String()
}

func (p *Pipeline) factsSummary(ctx context.Context, subjectKey string) string {
	facts, err := p.facts.GetFacts(ctx, subjectKey)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("facts read failed, empty summary")
		return "-"
	}

	flat := map[string]string{}
	flattenFacts("", facts, flat)
	if len(flat) == 0 {
		return "-"
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+flat[k])
	}
	return strings.Join(parts, "; ")
}

func flattenFacts(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenFacts(key, nested, out)
			continue
		}
		out[key] = fmt.Sprintf("%v", v)
	}
}
