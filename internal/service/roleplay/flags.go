package roleplay

import (
	"context"

	"github.com/velvetcove/amora/internal/character"
	"github.com/velvetcove/amora/internal/core"
	"github.com/velvetcove/amora/pkg/log"
)

// computeFlags derives behavior flags from facts. NSFW defaults to on and is
// only disabled by an explicit "off" override; romance needs both the
// romance-capable character and a matching partner fact. Store failures
// degrade to the defaults.
func (p *Pipeline) computeFlags(ctx context.Context, subjectKey string, char core.Character) core.Flags {
	logger := log.FromCtx(ctx)

	flags := core.Flags{NSFW: true}

	if v, err := p.facts.GetFact(ctx, subjectKey, character.FactNSFWOverride, ""); err != nil {
		logger.Warn().Err(err).Msg("nsfw override read failed, keeping default")
	} else if s, ok := v.(string); ok && s == "off" {
		flags.NSFW = false
	}

	if v, err := p.facts.GetFact(ctx, subjectKey, character.FactFlirt, false); err != nil {
		logger.Warn().Err(err).Msg("flirt fact read failed, keeping default")
	} else {
		flags.Flirt = asBool(v)
	}

	if char.Slug() == character.RomanceSlug {
		if v, err := p.facts.GetFact(ctx, subjectKey, character.FactPartner, ""); err != nil {
			logger.Warn().Err(err).Msg("partner fact read failed, keeping default")
		} else if s, ok := v.(string); ok && s == character.RomanceSlug {
			flags.Romance = true
		}
	}

	return flags
}

// asBool tolerates the representations a JSON round-trip or a sidebar toggle
// can produce.
func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "on" || b == "1"
	case float64:
		return b != 0
	default:
		return false
	}
}
