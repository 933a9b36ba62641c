package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/poslytics/backend/internal/domain"
)

type cogsRepository struct {
	db *DB
}

func NewCogsRepository(db *DB) *cogsRepository {
	return &cogsRepository{db: db}
}

func (r *cogsRepository) UpsertCogsDaily(ctx context.Context, entries []*domain.CogsDailyEntry) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO cogs_daily (date, total, items, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (date) DO UPDATE SET
				total = EXCLUDED.total,
				items = EXCLUDED.items,
				updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare cogs upsert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			items := e.Items
			if items == nil {
				items = []domain.CogsItem{}
			}
			itemsJSON, err := json.Marshal(items)
			if err != nil {
				return fmt.Errorf("failed to marshal cogs items: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, e.Date, e.Total, itemsJSON); err != nil {
				return fmt.Errorf("failed to upsert cogs for %s: %w",
					e.Date.Format(domain.DateKeyLayout), err)
			}
		}
		return nil
	})
}

type cogsRow struct {
	Date      time.Time `db:"date"`
	Total     float64   `db:"total"`
	ItemsJSON []byte    `db:"items"`
}

func (r *cogsRepository) ListCogsDaily(ctx context.Context, from, to time.Time) ([]*domain.CogsDailyEntry, error) {
	var rows []cogsRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT date, total, items
		FROM cogs_daily
		WHERE date BETWEEN $1 AND $2
		ORDER BY date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list cogs entries: %w", err)
	}

	out := make([]*domain.CogsDailyEntry, 0, len(rows))
	for _, row := range rows {
		e := &domain.CogsDailyEntry{Date: row.Date, Total: row.Total}
		if err := json.Unmarshal(row.ItemsJSON, &e.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cogs items of %s: %w",
				row.Date.Format(domain.DateKeyLayout), err)
		}
		out = append(out, e)
	}
	return out, nil
}
