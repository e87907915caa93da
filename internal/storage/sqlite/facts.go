package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/velvetcove/amora/internal/core"
)

// FactsRepo stores one JSON facts document per subject key, with a parallel
// meta document recording write provenance. Mutating operations serialize on
// a repo-level mutex; the read-modify-write is additionally wrapped in a
// transaction.
type FactsRepo struct {
	db *sql.DB
	mu sync.Mutex
}

func NewFactsRepo(db *sql.DB) *FactsRepo {
	return &FactsRepo{db: db}
}

func (r *FactsRepo) GetFact(ctx context.Context, subjectKey, path string, def any) (any, error) {
	doc, err := r.loadDoc(ctx, r.db, subjectKey, "doc")
	if err != nil {
		return def, err
	}

	val, ok := lookupPath(doc, strings.Split(path, "."))
	if !ok {
		return def, nil
	}
	return val, nil
}

func (r *FactsRepo) GetFacts(ctx context.Context, subjectKey string) (map[string]any, error) {
	return r.loadDoc(ctx, r.db, subjectKey, "doc")
}

func (r *FactsRepo) SetFact(ctx context.Context, subjectKey, path string, value any, meta core.FactMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	doc, err := r.loadDoc(ctx, tx, subjectKey, "doc")
	if err != nil {
		return err
	}
	metaDoc, err := r.loadDoc(ctx, tx, subjectKey, "meta")
	if err != nil {
		return err
	}

	setPath(doc, strings.Split(path, "."), value)
	if meta.Source != "" {
		metaDoc[path] = map[string]any{"source": meta.Source}
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal facts doc: %w", err)
	}
	metaJSON, err := json.Marshal(metaDoc)
	if err != nil {
		return fmt.Errorf("failed to marshal meta doc: %w", err)
	}

	query := `INSERT INTO facts (subject_key, doc, meta, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(subject_key) DO UPDATE SET doc = excluded.doc, meta = excluded.meta, updated_at = CURRENT_TIMESTAMP`
	if _, err := tx.ExecContext(ctx, query, subjectKey, string(docJSON), string(metaJSON)); err != nil {
		return fmt.Errorf("failed to upsert facts: %w", err)
	}

	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *FactsRepo) loadDoc(ctx context.Context, q queryer, subjectKey, column string) (map[string]any, error) {
	// column is one of the two fixed JSON columns, never user input.
	query := fmt.Sprintf(`SELECT %s FROM facts WHERE subject_key = ?`, column)

	var raw string
	err := q.QueryRowContext(ctx, query, subjectKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load facts row: %w", err)
	}

	doc := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal facts doc: %w", err)
		}
	}
	return doc, nil
}

// lookupPath walks nested maps level by level. Any missing segment or
// non-map intermediate reports false.
func lookupPath(doc map[string]any, segments []string) (any, bool) {
	var current any = doc
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setPath creates intermediate maps as needed; a non-map intermediate is
// replaced (last-write-wins).
func setPath(doc map[string]any, segments []string, value any) {
	current := doc
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[seg] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}
