package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/velvetcove/amora/internal/character"
	"github.com/velvetcove/amora/internal/config"
	"github.com/velvetcove/amora/internal/core"
	"github.com/velvetcove/amora/internal/service/roleplay"
	"github.com/velvetcove/amora/pkg/log"
)

const baseContextKey = "base_context"

// Fact paths for per-chat preferences, stored under the bare subject key.
const (
	prefCharacterPath = "prefs.character"
	prefModelPath     = "prefs.model"
)

// Purger wipes all stored state for a subject key.
type Purger interface {
	PurgeSubject(ctx context.Context, subjectKey string) (core.PurgeCounts, error)
}

type Bot struct {
	bot      *tele.Bot
	sender   *sender
	appCfg   *config.AppConfig
	pipeline *roleplay.Pipeline
	registry *character.Registry
	facts    core.FactsRepository
	purger   Purger
	ownerID  int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	appCfg *config.AppConfig,
	pipeline *roleplay.Pipeline,
	registry *character.Registry,
	facts core.FactsRepository,
	purger Purger,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:      b,
		sender:   newSender(b),
		appCfg:   appCfg,
		pipeline: pipeline,
		registry: registry,
		facts:    facts,
		purger:   purger,
		ownerID:  cfg.OwnerID,
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow the owner
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender().ID != bot.ownerID {
				return nil // Ignore unauthorized users
			}
			return next(c)
		}
	})

	b.Handle("/persona", bot.handlePersona)
	b.Handle("/model", bot.handleModel)
	b.Handle("/set", bot.handleSet)
	b.Handle("/settings", bot.handleSettings)
	b.Handle("/reset", bot.handleReset)
	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)

	userID := chatUserID(c)
	char := b.currentCharacter(ctx, userID)
	model := b.currentModel(ctx, userID)

	// Notify user we are working
	_ = c.Notify(tele.Typing)

	reply, err := b.pipeline.Generate(ctx, userID, char, c.Text(), model)
	if err != nil {
		logger.Error().Err(err).Msg("generation failed")
		if reply == "" {
			return c.Send(fmt.Sprintf("error: %v", err))
		}
		// History write failed but a reply exists; still show it.
	}

	if strings.TrimSpace(reply) == "" {
		return c.Send(fmt.Sprintf("%s has nothing to say right now.", char.DisplayName()))
	}
	return b.sender.sendMarkdown(ctx, c.Chat(), reply, false)
}

func (b *Bot) handlePersona(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	userID := chatUserID(c)
	arg := strings.TrimSpace(c.Message().Payload)

	if arg == "" {
		current := b.currentCharacter(ctx, userID)
		var lines []string
		for _, ch := range b.registry.All() {
			marker := "  "
			if ch.Slug() == current.Slug() {
				marker = "* "
			}
			lines = append(lines, marker+ch.DisplayName())
		}
		return c.Send("Characters:\n" + strings.Join(lines, "\n") + "\n\nUse /persona <name> to switch.")
	}

	char := b.registry.FromName(arg)
	meta := core.FactMeta{Source: "sidebar"}
	if err := b.facts.SetFact(ctx, userID, prefCharacterPath, char.Slug(), meta); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to persist character choice")
		return c.Send("Could not switch character, try again.")
	}
	return c.Send(fmt.Sprintf("You are now talking to %s.", char.DisplayName()))
}

func (b *Bot) handleModel(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	userID := chatUserID(c)
	arg := strings.TrimSpace(c.Message().Payload)

	if arg == "" {
		return c.Send("Current model: " + b.currentModel(ctx, userID) + "\n\nUse /model <name> to switch.")
	}

	meta := core.FactMeta{Source: "sidebar"}
	if err := b.facts.SetFact(ctx, userID, prefModelPath, arg, meta); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to persist model choice")
		return c.Send("Could not switch model, try again.")
	}
	return c.Send("Model set to " + arg + ".")
}

// handleSet writes one sidebar field: /set <key> <value>.
func (b *Bot) handleSet(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	userID := chatUserID(c)

	parts := strings.SplitN(strings.TrimSpace(c.Message().Payload), " ", 2)
	if len(parts) != 2 {
		return c.Send("Usage: /set <key> <value>. See /settings for keys.")
	}
	key, raw := parts[0], strings.TrimSpace(parts[1])

	char := b.currentCharacter(ctx, userID)
	field := findField(char.Sidebar(), key)
	if field == nil {
		return c.Send(fmt.Sprintf("Unknown setting %q for %s.", key, char.DisplayName()))
	}

	value, err := parseFieldValue(*field, raw)
	if err != nil {
		return c.Send(err.Error())
	}

	subjectKey := character.SubjectKey(userID, char)
	meta := core.FactMeta{Source: "sidebar"}
	if err := b.facts.SetFact(ctx, subjectKey, field.Key, value, meta); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to persist setting")
		return c.Send("Could not save the setting, try again.")
	}
	return c.Send(fmt.Sprintf("%s = %v", field.Key, value))
}

func (b *Bot) handleSettings(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	userID := chatUserID(c)

	char := b.currentCharacter(ctx, userID)
	subjectKey := character.SubjectKey(userID, char)

	facts, err := b.facts.GetFacts(ctx, subjectKey)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("facts read failed for settings")
		facts = map[string]any{}
	}

	var lines []string
	for _, f := range char.Sidebar() {
		if f.VisibleIf != nil && !f.VisibleIf(facts) {
			continue
		}
		value := f.Default
		if v, err := b.facts.GetFact(ctx, subjectKey, f.Key, f.Default); err == nil {
			value = v
		}
		line := fmt.Sprintf("%s (%s) = %v", f.Key, f.Label, value)
		if len(f.Choices) > 0 {
			line += "  [" + strings.Join(f.Choices, "|") + "]"
		}
		lines = append(lines, line)
	}
	return c.Send(fmt.Sprintf("Settings for %s:\n%s", char.DisplayName(), strings.Join(lines, "\n")))
}

func (b *Bot) handleReset(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	userID := chatUserID(c)

	char := b.currentCharacter(ctx, userID)
	subjectKey := character.SubjectKey(userID, char)

	counts, err := b.purger.PurgeSubject(ctx, subjectKey)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("purge failed")
		return c.Send("Could not reset the conversation, try again.")
	}
	return c.Send(fmt.Sprintf("Fresh start with %s: %d facts, %d turns, %d events removed.",
		char.DisplayName(), counts.Facts, counts.Interactions, counts.Events))
}

func (b *Bot) currentCharacter(ctx context.Context, userID string) core.Character {
	v, err := b.facts.GetFact(ctx, userID, prefCharacterPath, b.appCfg.DefaultCharacter)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("character pref read failed")
		return b.registry.FromName(b.appCfg.DefaultCharacter)
	}
	name, _ := v.(string)
	return b.registry.FromName(name)
}

func (b *Bot) currentModel(ctx context.Context, userID string) string {
	v, err := b.facts.GetFact(ctx, userID, prefModelPath, b.appCfg.Model)
	if err != nil {
		return b.appCfg.Model
	}
	if name, ok := v.(string); ok && name != "" {
		return name
	}
	return b.appCfg.Model
}

func chatUserID(c tele.Context) string {
	return fmt.Sprintf("telegram-%d", c.Chat().ID)
}

func findField(fields []core.FieldSpec, key string) *core.FieldSpec {
	for i := range fields {
		if fields[i].Key == key {
			return &fields[i]
		}
	}
	return nil
}

func parseFieldValue(f core.FieldSpec, raw string) (any, error) {
	switch f.Type {
	case core.FieldBool:
		switch strings.ToLower(raw) {
		case "true", "on", "yes", "1":
			return true, nil
		case "false", "off", "no", "0":
			return false, nil
		}
		return nil, fmt.Errorf("%s expects on or off", f.Key)
	case core.FieldSelect:
		for _, choice := range f.Choices {
			if raw == choice {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("%s expects one of: %s", f.Key, strings.Join(f.Choices, ", "))
	default:
		return raw, nil
	}
}
