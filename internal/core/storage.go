package core

import (
	"context"
	"time"
)

// FactMeta records provenance for a fact write.
type FactMeta struct {
	Source string `json:"source,omitempty"` // "sidebar" | "service" | other
}

// Interaction is one stored (user message, reply) pair for a subject key.
// Ordering by insertion id is the sole contract.
type Interaction struct {
	ID          int64     `json:"id"`
	SubjectKey  string    `json:"subject_key"`
	UserMessage string    `json:"user_message"`
	Reply       string    `json:"reply"`
	ModelTag    string    `json:"model_tag"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event is an append-only narrative milestone.
type Event struct {
	ID          int64          `json:"id"`
	SubjectKey  string         `json:"subject_key"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Location    string         `json:"location,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PurgeCounts reports rows removed by PurgeSubject per table.
type PurgeCounts struct {
	Facts        int64 `json:"facts"`
	Interactions int64 `json:"interactions"`
	Events       int64 `json:"events"`
}

type FactsRepository interface {
	// GetFact resolves a dotted path level by level; any missing segment
	// yields def.
	GetFact(ctx context.Context, subjectKey, path string, def any) (any, error)
	SetFact(ctx context.Context, subjectKey, path string, value any, meta FactMeta) error
	GetFacts(ctx context.Context, subjectKey string) (map[string]any, error)
}

type HistoryRepository interface {
	SaveInteraction(ctx context.Context, subjectKey, userMessage, reply, modelTag string) error
	// GetHistory returns at most limit newest interactions in chronological
	// order.
	GetHistory(ctx context.Context, subjectKey string, limit int) ([]Interaction, error)
}

type EventsRepository interface {
	Register(ctx context.Context, subjectKey, eventType, description, location string, extra map[string]any) error
	// Last returns the most recent event of the given type, or nil.
	Last(ctx context.Context, subjectKey, eventType string) (*Event, error)
}
