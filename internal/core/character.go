package core

import "context"

// Flags are the behavior switches computed from facts before each turn.
type Flags struct {
	NSFW    bool
	Flirt   bool
	Romance bool
}

// FieldType is the input kind of a sidebar field.
type FieldType string

const (
	FieldBool   FieldType = "bool"
	FieldText   FieldType = "text"
	FieldSelect FieldType = "select"
)

// FieldSpec describes one sidebar setting a transport can render. Values are
// persisted as facts under Key.
type FieldSpec struct {
	Key     string
	Label   string
	Type    FieldType
	Default any
	Choices []string
	// VisibleIf gates the field on current facts; nil means always visible.
	VisibleIf func(facts map[string]any) bool
}

// Character is the fixed capability surface every persona implements. The
// set of characters is a closed enumeration; lookup lives in
// internal/character.
type Character interface {
	// Slug is the stable lowercase identifier used in subject keys.
	Slug() string
	// DisplayName is the name the persona uses for itself in replies.
	DisplayName() string
	// Persona is the system text defining voice, constraints and world facts.
	Persona() string
	// Opening seeds the conversation when no history exists yet.
	Opening() []Message
	StyleGuide(f Flags) string
	FewShots(f Flags) []Message
	Sidebar() []FieldSpec
}

// Optional per-character hooks. The pipeline checks for them with type
// assertions; a missing hook is a no-op, a failing hook keeps the previous
// text.

// PostRefiner applies character-specific regex cleanup right after
// generation.
type PostRefiner interface {
	RefinePost(text, userPrompt string, nsfw bool) (string, error)
}

// ScopeEnforcer removes sentences referencing entities the user's own prompt
// never introduced.
type ScopeEnforcer interface {
	EnforceScope(text, userPrompt string) (string, error)
}

// PostGenerator applies stateful narrative rules after formatting. It may
// rewrite the reply ending and record events.
type PostGenerator interface {
	PostGeneration(ctx context.Context, text, userPrompt, subjectKey string) (string, error)
}

// Guardrail is an inviolable narrative constraint. When Violates reports
// true the pipeline re-dispatches once with Corrective appended as a system
// message.
type Guardrail interface {
	Violates(reply string) bool
	Corrective() string
}
