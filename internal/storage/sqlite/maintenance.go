package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/velvetcove/amora/internal/core"
)

type Maintenance struct {
	db *sql.DB
}

func NewMaintenance(db *sql.DB) *Maintenance {
	return &Maintenance{db: db}
}

// PurgeSubject removes all facts, interactions and events for a subject key
// and reports how many rows each table lost.
func (m *Maintenance) PurgeSubject(ctx context.Context, subjectKey string) (core.PurgeCounts, error) {
	var counts core.PurgeCounts

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, err
	}
	defer tx.Rollback()

	del := func(table string) (int64, error) {
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE subject_key = ?`, table), subjectKey)
		if err != nil {
			return 0, fmt.Errorf("failed to purge %s: %w", table, err)
		}
		return res.RowsAffected()
	}

	if counts.Facts, err = del("facts"); err != nil {
		return counts, err
	}
	if counts.Interactions, err = del("interactions"); err != nil {
		return counts, err
	}
	if counts.Events, err = del("events"); err != nil {
		return counts, err
	}

	return counts, tx.Commit()
}
