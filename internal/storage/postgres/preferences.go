package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxPreferenceHistory bounds the per-owner history length.
const maxPreferenceHistory = 50

type preferenceStorage struct {
	pool *pgxpool.Pool
}

func newPreferenceStorage(pool *pgxpool.Pool) *preferenceStorage {
	return &preferenceStorage{pool: pool}
}

func (s *preferenceStorage) RecordChosen(ctx context.Context, ownerUserID string, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Re-chosen items move to the tail of the queue.
	upsertQuery := `
		INSERT INTO preference_history (owner_user_id, item_id, chosen_at)
		VALUES ($1, $2, now())
		ON CONFLICT (owner_user_id, item_id) DO UPDATE
		SET chosen_at = now()
	`
	for _, id := range itemIDs {
		if _, err := tx.Exec(ctx, upsertQuery, ownerUserID, id); err != nil {
			return fmt.Errorf("failed to record chosen item: %w", err)
		}
	}

	trimQuery := `
		DELETE FROM preference_history
		WHERE owner_user_id = $1 AND item_id NOT IN (
			SELECT item_id FROM preference_history
			WHERE owner_user_id = $1
			ORDER BY chosen_at DESC
			LIMIT $2
		)
	`
	if _, err := tx.Exec(ctx, trimQuery, ownerUserID, maxPreferenceHistory); err != nil {
		return fmt.Errorf("failed to trim preference history: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *preferenceStorage) ListRecent(ctx context.Context, ownerUserID string, limit int) ([]uuid.UUID, error) {
	if limit <= 0 || limit > maxPreferenceHistory {
		limit = maxPreferenceHistory
	}

	// Most recent last, matching the queue order callers expect.
	query := `
		SELECT item_id FROM (
			SELECT item_id, chosen_at FROM preference_history
			WHERE owner_user_id = $1
			ORDER BY chosen_at DESC
			LIMIT $2
		) recent
		ORDER BY chosen_at ASC
	`

	rows, err := s.pool.Query(ctx, query, ownerUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list preference history: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan preference item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
