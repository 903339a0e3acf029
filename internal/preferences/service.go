package preferences

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

// maxRecordBatch bounds one record request; the storage trims overall history.
const maxRecordBatch = 50

type Service struct {
	preferences storage.PreferenceStorage
	catalog     storage.CatalogStorage
}

func NewService(preferenceStorage storage.PreferenceStorage, catalogStorage storage.CatalogStorage) *Service {
	return &Service{
		preferences: preferenceStorage,
		catalog:     catalogStorage,
	}
}

// RecordChosen appends item ids to the owner's preference queue.
func (s *Service) RecordChosen(ctx context.Context, ownerUserID string, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return fmt.Errorf("item_ids must not be empty")
	}
	if len(itemIDs) > maxRecordBatch {
		return fmt.Errorf("item_ids must not exceed %d entries", maxRecordBatch)
	}

	// Only visible catalog items may enter the queue.
	for _, id := range itemIDs {
		if _, err := s.catalog.GetItem(ctx, ownerUserID, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("unknown item: %s", id)
			}
			return err
		}
	}

	return s.preferences.RecordChosen(ctx, ownerUserID, itemIDs)
}

// ListRecent returns the most recently chosen items, most recent last.
// Items deleted from the catalog since they were chosen are skipped.
func (s *Service) ListRecent(ctx context.Context, ownerUserID string, limit int) ([]RecentItemDTO, error) {
	ids, err := s.preferences.ListRecent(ctx, ownerUserID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]RecentItemDTO, 0, len(ids))
	for _, id := range ids {
		item, err := s.catalog.GetItem(ctx, ownerUserID, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, RecentItemDTO{
			ID:       item.ID,
			Name:     item.Name,
			Tags:     item.Tags,
			Calories: item.Calories,
		})
	}
	return items, nil
}
