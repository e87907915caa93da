package character

import (
	"strings"

	"github.com/velvetcove/amora/internal/core"
)

// DefaultSlug is the character whose subject key collapses to the bare user
// id. Everyone else gets a "user::slug" key.
const DefaultSlug = "luna"

// RomanceSlug is the only character the romance flag can activate for.
const RomanceSlug = "mara"

// Fact keys shared between sidebar fields and the generation pipeline.
const (
	FactNSFWOverride = "nsfw_override"
	FactFlirt        = "flirt"
	FactPartner      = "partner"
	FactLocation     = "scene.location"
)

// Registry is the closed set of supported characters. There is no dynamic
// persona loading; adding a character means adding a case here.
type Registry struct {
	luna *Luna
	mara *Mara
	nyx  *Nyx
}

func NewRegistry(events core.EventsRepository) *Registry {
	return &Registry{
		luna: &Luna{},
		mara: NewMara(events),
		nyx:  &Nyx{},
	}
}

// FromName resolves a free-text character name, folding case, whitespace and
// common accented spellings. Unknown names resolve to the default character.
func (r *Registry) FromName(name string) core.Character {
	switch foldName(name) {
	case "luna", "lua":
		return r.luna
	case "mara", "marah":
		return r.mara
	case "nyx", "nix":
		return r.nyx
	default:
		return r.luna
	}
}

func (r *Registry) Default() core.Character {
	return r.luna
}

func (r *Registry) All() []core.Character {
	return []core.Character{r.luna, r.mara, r.nyx}
}

func foldName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return accentFolder.Replace(name)
}

var accentFolder = strings.NewReplacer(
	"á", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o",
	"ú", "u",
	"ç", "c",
	"ý", "y",
)

// SubjectKey collapses (user, character) into the storage isolation key.
func SubjectKey(userID string, c core.Character) string {
	if c.Slug() == DefaultSlug {
		return userID
	}
	return userID + "::" + c.Slug()
}

func commonFields() []core.FieldSpec {
	return []core.FieldSpec{
		{
			Key:     FactNSFWOverride,
			Label:   "Explicit content",
			Type:    core.FieldSelect,
			Default: "on",
			Choices: []string{"on", "off"},
		},
		{
			Key:     FactFlirt,
			Label:   "Flirt mode",
			Type:    core.FieldBool,
			Default: false,
		},
		{
			Key:     FactLocation,
			Label:   "Current scene",
			Type:    core.FieldText,
			Default: "",
		},
	}
}
