package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/velvetcove/amora/internal/core"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

func (r *EventsRepo) Register(ctx context.Context, subjectKey, eventType, description, location string, extra map[string]any) error {
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("failed to marshal event extra: %w", err)
	}
	// Empty map stored as '{}' to keep the column non-null.
	if extra == nil {
		extraJSON = []byte("{}")
	}

	var loc sql.NullString
	if location != "" {
		loc = sql.NullString{String: location, Valid: true}
	}

	query := `INSERT INTO events (subject_key, type, description, location, extra) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, subjectKey, eventType, description, loc, string(extraJSON)); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *EventsRepo) Last(ctx context.Context, subjectKey, eventType string) (*core.Event, error) {
	query := `SELECT id, description, location, extra, created_at FROM events WHERE subject_key = ? AND type = ? ORDER BY id DESC LIMIT 1`

	ev := core.Event{SubjectKey: subjectKey, Type: eventType}
	var loc sql.NullString
	var extraRaw string

	err := r.db.QueryRowContext(ctx, query, subjectKey, eventType).
		Scan(&ev.ID, &ev.Description, &loc, &extraRaw, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last event: %w", err)
	}

	ev.Location = loc.String
	if extraRaw != "" && extraRaw != "{}" {
		if err := json.Unmarshal([]byte(extraRaw), &ev.Extra); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event extra: %w", err)
		}
	}

	return &ev, nil
}
