package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/velvetcove/amora/internal/core"
	"github.com/velvetcove/amora/pkg/log"
)

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (h *HistoryRepo) SaveInteraction(ctx context.Context, subjectKey, userMessage, reply, modelTag string) error {
	query := `INSERT INTO interactions (subject_key, user_message, reply, model_tag) VALUES (?, ?, ?, ?)`
	if _, err := h.db.ExecContext(ctx, query, subjectKey, userMessage, reply, modelTag); err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

func (h *HistoryRepo) GetHistory(ctx context.Context, subjectKey string, limit int) ([]core.Interaction, error) {
	// Fetch the LAST 'limit' interactions by ordering DESC
	query := `SELECT id, user_message, reply, model_tag, created_at FROM interactions WHERE subject_key = ? ORDER BY id DESC LIMIT ?`

	rows, err := h.db.QueryContext(ctx, query, subjectKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var items []core.Interaction
	for rows.Next() {
		it := core.Interaction{SubjectKey: subjectKey}
		var modelTag sql.NullString

		if err := rows.Scan(&it.ID, &it.UserMessage, &it.Reply, &modelTag, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		it.ModelTag = modelTag.String

		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query returned rows newest-first; reverse back to chronological
	// order for prompt assembly.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(items)).Msg("loaded interaction history")
	return items, nil
}
