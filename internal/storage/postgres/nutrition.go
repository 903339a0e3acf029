package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mealforge/mealforge/internal/storage"
)

type nutritionStorage struct {
	pool *pgxpool.Pool
}

func newNutritionStorage(pool *pgxpool.Pool) *nutritionStorage {
	return &nutritionStorage{pool: pool}
}

func (s *nutritionStorage) GetRequirement(ctx context.Context, ownerUserID string) (storage.DailyRequirement, bool, error) {
	query := `
		SELECT owner_user_id, calories, protein_g, carbs_g, fat_g, created_at, updated_at
		FROM daily_requirements
		WHERE owner_user_id = $1
	`

	var req storage.DailyRequirement
	err := s.pool.QueryRow(ctx, query, ownerUserID).Scan(
		&req.OwnerUserID,
		&req.Calories,
		&req.ProteinG,
		&req.CarbsG,
		&req.FatG,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.DailyRequirement{}, false, nil
	}
	if err != nil {
		return storage.DailyRequirement{}, false, fmt.Errorf("failed to get daily requirement: %w", err)
	}
	return req, true, nil
}

func (s *nutritionStorage) UpsertRequirement(ctx context.Context, ownerUserID string, upsert storage.RequirementUpsert) (storage.DailyRequirement, error) {
	query := `
		INSERT INTO daily_requirements (owner_user_id, calories, protein_g, carbs_g, fat_g, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (owner_user_id) DO UPDATE
		SET calories = EXCLUDED.calories,
		    protein_g = EXCLUDED.protein_g,
		    carbs_g = EXCLUDED.carbs_g,
		    fat_g = EXCLUDED.fat_g,
		    updated_at = EXCLUDED.updated_at
		RETURNING owner_user_id, calories, protein_g, carbs_g, fat_g, created_at, updated_at
	`

	var req storage.DailyRequirement
	err := s.pool.QueryRow(ctx, query,
		ownerUserID,
		upsert.Calories,
		upsert.ProteinG,
		upsert.CarbsG,
		upsert.FatG,
		time.Now(),
	).Scan(
		&req.OwnerUserID,
		&req.Calories,
		&req.ProteinG,
		&req.CarbsG,
		&req.FatG,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return storage.DailyRequirement{}, fmt.Errorf("failed to upsert daily requirement: %w", err)
	}
	return req, nil
}

const slotConfigColumns = `id, owner_user_id, name, slot_type, order_index, calories_share, protein_share, carbs_share, fat_share, created_at, updated_at`

func scanSlotConfig(row pgx.Row) (storage.SlotConfig, error) {
	var cfg storage.SlotConfig
	err := row.Scan(
		&cfg.ID,
		&cfg.OwnerUserID,
		&cfg.Name,
		&cfg.SlotType,
		&cfg.OrderIndex,
		&cfg.CaloriesShare,
		&cfg.ProteinShare,
		&cfg.CarbsShare,
		&cfg.FatShare,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	return cfg, err
}

func (s *nutritionStorage) ListSlotConfigs(ctx context.Context, ownerUserID string) ([]storage.SlotConfig, error) {
	query := `
		SELECT ` + slotConfigColumns + `
		FROM slot_configs
		WHERE owner_user_id = $1
		ORDER BY order_index ASC
	`

	rows, err := s.pool.Query(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot configs: %w", err)
	}
	defer rows.Close()

	var configs []storage.SlotConfig
	for rows.Next() {
		cfg, err := scanSlotConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot config: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (s *nutritionStorage) ReplaceSlotConfigs(ctx context.Context, ownerUserID string, items []storage.SlotConfigUpsert) ([]storage.SlotConfig, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM slot_configs WHERE owner_user_id = $1`, ownerUserID); err != nil {
		return nil, fmt.Errorf("failed to delete existing slot configs: %w", err)
	}

	insertQuery := `
		INSERT INTO slot_configs (id, owner_user_id, name, slot_type, order_index, calories_share, protein_share, carbs_share, fat_share, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING ` + slotConfigColumns + `
	`

	now := time.Now()
	var configs []storage.SlotConfig
	for _, item := range items {
		cfg, err := scanSlotConfig(tx.QueryRow(ctx, insertQuery,
			uuid.New(),
			ownerUserID,
			item.Name,
			item.SlotType,
			item.OrderIndex,
			item.CaloriesShare,
			item.ProteinShare,
			item.CarbsShare,
			item.FatShare,
			now,
		))
		if err != nil {
			return nil, fmt.Errorf("failed to insert slot config: %w", err)
		}
		configs = append(configs, cfg)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].OrderIndex < configs[j].OrderIndex })
	return configs, nil
}
