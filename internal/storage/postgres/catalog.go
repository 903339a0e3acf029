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

type catalogStorage struct {
	pool *pgxpool.Pool
}

func newCatalogStorage(pool *pgxpool.Pool) *catalogStorage {
	return &catalogStorage{pool: pool}
}

const catalogItemColumns = `id, owner_user_id, name, tags, portion_g, calories, protein_g, carbs_g, fat_g, image_key, created_at, updated_at`

func scanCatalogItem(row pgx.Row) (storage.CatalogItem, error) {
	var item storage.CatalogItem
	err := row.Scan(
		&item.ID,
		&item.OwnerUserID,
		&item.Name,
		&item.Tags,
		&item.PortionG,
		&item.Calories,
		&item.ProteinG,
		&item.CarbsG,
		&item.FatG,
		&item.ImageKey,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *catalogStorage) ListByTag(ctx context.Context, ownerUserID string, tag string) ([]storage.CatalogItem, error) {
	query := `
		SELECT ` + catalogItemColumns + `
		FROM catalog_items
		WHERE (owner_user_id = '' OR owner_user_id = $1) AND $2 = ANY(tags)
		ORDER BY name ASC
	`

	rows, err := s.pool.Query(ctx, query, ownerUserID, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items by tag: %w", err)
	}
	defer rows.Close()

	var items []storage.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *catalogStorage) GetItem(ctx context.Context, ownerUserID string, id uuid.UUID) (storage.CatalogItem, error) {
	query := `
		SELECT ` + catalogItemColumns + `
		FROM catalog_items
		WHERE id = $1 AND (owner_user_id = '' OR owner_user_id = $2)
	`

	item, err := scanCatalogItem(s.pool.QueryRow(ctx, query, id, ownerUserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.CatalogItem{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.CatalogItem{}, fmt.Errorf("failed to get catalog item: %w", err)
	}
	return item, nil
}

func (s *catalogStorage) ListItems(ctx context.Context, ownerUserID string, query string, limit, offset int) ([]storage.CatalogItem, int, error) {
	where := `(owner_user_id = '' OR owner_user_id = $1)
		AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR EXISTS (
			SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE '%' || $2 || '%'
		))`

	countQuery := `SELECT COUNT(*) FROM catalog_items WHERE ` + where

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, ownerUserID, query).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count catalog items: %w", err)
	}

	listQuery := `
		SELECT ` + catalogItemColumns + `
		FROM catalog_items
		WHERE ` + where + `
		ORDER BY name ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := s.pool.Query(ctx, listQuery, ownerUserID, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	var items []storage.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (s *catalogStorage) UpsertItem(ctx context.Context, ownerUserID string, upsert storage.CatalogItemUpsert) (storage.CatalogItem, error) {
	now := time.Now()

	if upsert.ID != uuid.Nil {
		query := `
			UPDATE catalog_items
			SET name = $3, tags = $4, portion_g = $5, calories = $6, protein_g = $7,
			    carbs_g = $8, fat_g = $9, updated_at = $10
			WHERE id = $1 AND owner_user_id = $2
			RETURNING ` + catalogItemColumns + `
		`

		item, err := scanCatalogItem(s.pool.QueryRow(ctx, query,
			upsert.ID,
			ownerUserID,
			upsert.Name,
			upsert.Tags,
			upsert.PortionG,
			upsert.Calories,
			upsert.ProteinG,
			upsert.CarbsG,
			upsert.FatG,
			now,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.CatalogItem{}, storage.ErrNotFound
		}
		if err != nil {
			return storage.CatalogItem{}, fmt.Errorf("failed to update catalog item: %w", err)
		}
		return item, nil
	}

	query := `
		INSERT INTO catalog_items (id, owner_user_id, name, tags, portion_g, calories, protein_g, carbs_g, fat_g, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING ` + catalogItemColumns + `
	`

	item, err := scanCatalogItem(s.pool.QueryRow(ctx, query,
		uuid.New(),
		ownerUserID,
		upsert.Name,
		upsert.Tags,
		upsert.PortionG,
		upsert.Calories,
		upsert.ProteinG,
		upsert.CarbsG,
		upsert.FatG,
		now,
	))
	if err != nil {
		return storage.CatalogItem{}, fmt.Errorf("failed to insert catalog item: %w", err)
	}
	return item, nil
}

func (s *catalogStorage) DeleteItem(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	query := `DELETE FROM catalog_items WHERE id = $1 AND owner_user_id = $2`

	result, err := s.pool.Exec(ctx, query, id, ownerUserID)
	if err != nil {
		return fmt.Errorf("failed to delete catalog item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *catalogStorage) SetItemImage(ctx context.Context, ownerUserID string, id uuid.UUID, objectKey string) error {
	query := `
		UPDATE catalog_items
		SET image_key = $3, updated_at = $4
		WHERE id = $1 AND owner_user_id = $2
	`

	result, err := s.pool.Exec(ctx, query, id, ownerUserID, objectKey, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set catalog item image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
