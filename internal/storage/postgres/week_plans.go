package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mealforge/mealforge/internal/storage"
)

type weekPlansStorage struct {
	pool *pgxpool.Pool
}

func newWeekPlansStorage(pool *pgxpool.Pool) *weekPlansStorage {
	return &weekPlansStorage{pool: pool}
}

const planSlotColumns = `s.id, s.day_plan_id, s.owner_user_id, s.slot_config_id, s.name, s.slot_type, s.order_index,
	s.demand_calories, s.demand_protein_g, s.demand_carbs_g, s.demand_fat_g,
	s.calories, s.protein_g, s.carbs_g, s.fat_g, s.chosen, s.alternatives, s.created_at, s.updated_at`

func scanPlanSlot(row pgx.Row) (storage.PlanSlot, error) {
	var slot storage.PlanSlot
	err := row.Scan(
		&slot.ID,
		&slot.DayPlanID,
		&slot.OwnerUserID,
		&slot.SlotConfigID,
		&slot.Name,
		&slot.SlotType,
		&slot.OrderIndex,
		&slot.DemandCalories,
		&slot.DemandProteinG,
		&slot.DemandCarbsG,
		&slot.DemandFatG,
		&slot.Calories,
		&slot.ProteinG,
		&slot.CarbsG,
		&slot.FatG,
		&slot.Chosen,
		&slot.Alternatives,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	return slot, err
}

func (s *weekPlansStorage) ReplaceWeek(ctx context.Context, ownerUserID string, days []storage.DaySlotUpsert) (storage.WeekPlan, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.WeekPlan{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// CASCADE removes days and slots of the previous week.
	if _, err := tx.Exec(ctx, `DELETE FROM week_plans WHERE owner_user_id = $1`, ownerUserID); err != nil {
		return storage.WeekPlan{}, fmt.Errorf("failed to delete existing week plan: %w", err)
	}

	now := time.Now()
	weekQuery := `
		INSERT INTO week_plans (id, owner_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id, owner_user_id, created_at, updated_at
	`

	var week storage.WeekPlan
	err = tx.QueryRow(ctx, weekQuery, uuid.New(), ownerUserID, now).Scan(
		&week.ID,
		&week.OwnerUserID,
		&week.CreatedAt,
		&week.UpdatedAt,
	)
	if err != nil {
		return storage.WeekPlan{}, fmt.Errorf("failed to insert week plan: %w", err)
	}

	dayQuery := `
		INSERT INTO day_plans (id, week_plan_id, day_index, calories, protein_g, carbs_g, fat_g)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	slotQuery := `
		INSERT INTO plan_slots (id, day_plan_id, owner_user_id, slot_config_id, name, slot_type, order_index,
			demand_calories, demand_protein_g, demand_carbs_g, demand_fat_g,
			calories, protein_g, carbs_g, fat_g, chosen, alternatives, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
	`

	for _, dayUpsert := range days {
		dayID := uuid.New()
		_, err := tx.Exec(ctx, dayQuery,
			dayID,
			week.ID,
			dayUpsert.DayIndex,
			dayUpsert.Calories,
			dayUpsert.ProteinG,
			dayUpsert.CarbsG,
			dayUpsert.FatG,
		)
		if err != nil {
			return storage.WeekPlan{}, fmt.Errorf("failed to insert day plan: %w", err)
		}

		for _, slotUpsert := range dayUpsert.Slots {
			_, err := tx.Exec(ctx, slotQuery,
				uuid.New(),
				dayID,
				ownerUserID,
				slotUpsert.SlotConfigID,
				slotUpsert.Name,
				slotUpsert.SlotType,
				slotUpsert.OrderIndex,
				slotUpsert.DemandCalories,
				slotUpsert.DemandProteinG,
				slotUpsert.DemandCarbsG,
				slotUpsert.DemandFatG,
				slotUpsert.Calories,
				slotUpsert.ProteinG,
				slotUpsert.CarbsG,
				slotUpsert.FatG,
				slotUpsert.Chosen,
				slotUpsert.Alternatives,
				now,
			)
			if err != nil {
				return storage.WeekPlan{}, fmt.Errorf("failed to insert plan slot: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.WeekPlan{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return week, nil
}

func (s *weekPlansStorage) GetWeek(ctx context.Context, ownerUserID string) (storage.WeekPlan, []storage.DayPlan, []storage.PlanSlot, bool, error) {
	weekQuery := `
		SELECT id, owner_user_id, created_at, updated_at
		FROM week_plans
		WHERE owner_user_id = $1
	`

	var week storage.WeekPlan
	err := s.pool.QueryRow(ctx, weekQuery, ownerUserID).Scan(
		&week.ID,
		&week.OwnerUserID,
		&week.CreatedAt,
		&week.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.WeekPlan{}, nil, nil, false, nil
	}
	if err != nil {
		return storage.WeekPlan{}, nil, nil, false, fmt.Errorf("failed to get week plan: %w", err)
	}

	daysQuery := `
		SELECT id, week_plan_id, day_index, calories, protein_g, carbs_g, fat_g
		FROM day_plans
		WHERE week_plan_id = $1
		ORDER BY day_index ASC
	`

	rows, err := s.pool.Query(ctx, daysQuery, week.ID)
	if err != nil {
		return storage.WeekPlan{}, nil, nil, false, fmt.Errorf("failed to list day plans: %w", err)
	}
	defer rows.Close()

	var daysOut []storage.DayPlan
	for rows.Next() {
		var day storage.DayPlan
		err := rows.Scan(
			&day.ID,
			&day.WeekPlanID,
			&day.DayIndex,
			&day.Calories,
			&day.ProteinG,
			&day.CarbsG,
			&day.FatG,
		)
		if err != nil {
			return storage.WeekPlan{}, nil, nil, false, fmt.Errorf("failed to scan day plan: %w", err)
		}
		daysOut = append(daysOut, day)
	}
	if rows.Err() != nil {
		return storage.WeekPlan{}, nil, nil, false, rows.Err()
	}

	slotsQuery := `
		SELECT ` + planSlotColumns + `
		FROM plan_slots s
		INNER JOIN day_plans d ON d.id = s.day_plan_id
		WHERE d.week_plan_id = $1
		ORDER BY d.day_index ASC, s.order_index ASC
	`

	slotRows, err := s.pool.Query(ctx, slotsQuery, week.ID)
	if err != nil {
		return storage.WeekPlan{}, nil, nil, false, fmt.Errorf("failed to list plan slots: %w", err)
	}
	defer slotRows.Close()

	var slotsOut []storage.PlanSlot
	for slotRows.Next() {
		slot, err := scanPlanSlot(slotRows)
		if err != nil {
			return storage.WeekPlan{}, nil, nil, false, fmt.Errorf("failed to scan plan slot: %w", err)
		}
		slotsOut = append(slotsOut, slot)
	}
	if slotRows.Err() != nil {
		return storage.WeekPlan{}, nil, nil, false, slotRows.Err()
	}

	return week, daysOut, slotsOut, true, nil
}

func (s *weekPlansStorage) DeleteWeek(ctx context.Context, ownerUserID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM week_plans WHERE owner_user_id = $1`, ownerUserID)
	if err != nil {
		return fmt.Errorf("failed to delete week plan: %w", err)
	}
	return nil
}

func (s *weekPlansStorage) GetSlot(ctx context.Context, ownerUserID string, slotID uuid.UUID) (storage.PlanSlot, error) {
	query := `
		SELECT ` + planSlotColumns + `
		FROM plan_slots s
		WHERE s.id = $1 AND s.owner_user_id = $2
	`

	slot, err := scanPlanSlot(s.pool.QueryRow(ctx, query, slotID, ownerUserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.PlanSlot{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.PlanSlot{}, fmt.Errorf("failed to get plan slot: %w", err)
	}
	return slot, nil
}

func (s *weekPlansStorage) ListDaySlots(ctx context.Context, ownerUserID string, dayPlanID uuid.UUID) ([]storage.PlanSlot, error) {
	query := `
		SELECT ` + planSlotColumns + `
		FROM plan_slots s
		WHERE s.day_plan_id = $1 AND s.owner_user_id = $2
		ORDER BY s.order_index ASC
	`

	rows, err := s.pool.Query(ctx, query, dayPlanID, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan slots: %w", err)
	}
	defer rows.Close()

	var slots []storage.PlanSlot
	for rows.Next() {
		slot, err := scanPlanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *weekPlansStorage) UpdateSlot(ctx context.Context, ownerUserID string, slotID uuid.UUID, update storage.SlotUpdate) (storage.PlanSlot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.PlanSlot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE plan_slots s
		SET demand_calories = $3, demand_protein_g = $4, demand_carbs_g = $5, demand_fat_g = $6,
		    calories = $7, protein_g = $8, carbs_g = $9, fat_g = $10,
		    chosen = $11, alternatives = $12, updated_at = $13
		WHERE s.id = $1 AND s.owner_user_id = $2
		RETURNING ` + planSlotColumns + `
	`

	slot, err := scanPlanSlot(tx.QueryRow(ctx, query,
		slotID,
		ownerUserID,
		update.DemandCalories,
		update.DemandProteinG,
		update.DemandCarbsG,
		update.DemandFatG,
		update.Calories,
		update.ProteinG,
		update.CarbsG,
		update.FatG,
		update.Chosen,
		update.Alternatives,
		time.Now(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.PlanSlot{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.PlanSlot{}, fmt.Errorf("failed to update plan slot: %w", err)
	}

	dayQuery := `
		UPDATE day_plans
		SET calories = $2, protein_g = $3, carbs_g = $4, fat_g = $5
		WHERE id = $1
	`
	_, err = tx.Exec(ctx, dayQuery,
		slot.DayPlanID,
		update.DayCalories,
		update.DayProteinG,
		update.DayCarbsG,
		update.DayFatG,
	)
	if err != nil {
		return storage.PlanSlot{}, fmt.Errorf("failed to update day plan totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.PlanSlot{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return slot, nil
}
