package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

type catalogStorage struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*storage.CatalogItem
}

func newCatalogStorage() *catalogStorage {
	return &catalogStorage{items: make(map[uuid.UUID]*storage.CatalogItem)}
}

// seedSystemCatalog inserts a starter system catalog (OwnerUserID == "").
func (s *catalogStorage) seedSystemCatalog() {
	seed := []storage.CatalogItem{
		{Name: "Oatmeal with berries", Tags: []string{"main", "breakfast"}, PortionG: 250, Calories: 280, ProteinG: 8, CarbsG: 48, FatG: 6},
		{Name: "Scrambled eggs", Tags: []string{"main", "breakfast"}, PortionG: 150, Calories: 220, ProteinG: 15, CarbsG: 2, FatG: 16},
		{Name: "Greek yogurt", Tags: []string{"side", "breakfast", "snack"}, PortionG: 150, Calories: 130, ProteinG: 13, CarbsG: 8, FatG: 4},
		{Name: "Black coffee", Tags: []string{"drink", "breakfast"}, PortionG: 200, Calories: 4, ProteinG: 0.3, CarbsG: 0.5, FatG: 0},
		{Name: "Grilled chicken breast", Tags: []string{"main", "lunch", "dinner"}, PortionG: 180, Calories: 290, ProteinG: 42, CarbsG: 0, FatG: 12},
		{Name: "Beef stew", Tags: []string{"main", "lunch", "dinner"}, PortionG: 300, Calories: 380, ProteinG: 28, CarbsG: 14, FatG: 22},
		{Name: "Baked salmon", Tags: []string{"main", "lunch", "dinner"}, PortionG: 170, Calories: 320, ProteinG: 34, CarbsG: 0, FatG: 20},
		{Name: "Steamed rice", Tags: []string{"side", "lunch", "dinner"}, PortionG: 180, Calories: 230, ProteinG: 4.5, CarbsG: 50, FatG: 0.5},
		{Name: "Garden salad", Tags: []string{"side", "lunch", "dinner"}, PortionG: 150, Calories: 70, ProteinG: 2, CarbsG: 9, FatG: 3},
		{Name: "Orange juice", Tags: []string{"drink", "breakfast", "lunch"}, PortionG: 250, Calories: 112, ProteinG: 1.7, CarbsG: 26, FatG: 0.5},
		{Name: "Sparkling water", Tags: []string{"drink", "lunch", "dinner"}, PortionG: 330, Calories: 0, ProteinG: 0, CarbsG: 0, FatG: 0},
		{Name: "Apple", Tags: []string{"main", "snack"}, PortionG: 180, Calories: 95, ProteinG: 0.5, CarbsG: 25, FatG: 0.3},
		{Name: "Mixed nuts", Tags: []string{"side", "snack"}, PortionG: 30, Calories: 180, ProteinG: 5, CarbsG: 6, FatG: 16},
	}

	now := time.Now().UTC()
	for i := range seed {
		item := seed[i]
		item.ID = uuid.New()
		item.CreatedAt = now
		item.UpdatedAt = now
		s.items[item.ID] = &item
	}
}

func visibleTo(item *storage.CatalogItem, ownerUserID string) bool {
	return item.OwnerUserID == "" || item.OwnerUserID == ownerUserID
}

func hasTag(item *storage.CatalogItem, tag string) bool {
	for _, t := range item.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (s *catalogStorage) ListByTag(ctx context.Context, ownerUserID string, tag string) ([]storage.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.CatalogItem
	for _, item := range s.items {
		if visibleTo(item, ownerUserID) && hasTag(item, tag) {
			result = append(result, *item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *catalogStorage) GetItem(ctx context.Context, ownerUserID string, id uuid.UUID) (storage.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok || !visibleTo(item, ownerUserID) {
		return storage.CatalogItem{}, storage.ErrNotFound
	}
	return *item, nil
}

func (s *catalogStorage) ListItems(ctx context.Context, ownerUserID string, query string, limit, offset int) ([]storage.CatalogItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var filtered []storage.CatalogItem
	for _, item := range s.items {
		if !visibleTo(item, ownerUserID) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(item.Name), q) && !tagMatches(item, q) {
			continue
		}
		filtered = append(filtered, *item)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })

	total := len(filtered)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

func tagMatches(item *storage.CatalogItem, q string) bool {
	for _, t := range item.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (s *catalogStorage) UpsertItem(ctx context.Context, ownerUserID string, upsert storage.CatalogItemUpsert) (storage.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	if upsert.ID != uuid.Nil {
		existing, ok := s.items[upsert.ID]
		if !ok || existing.OwnerUserID != ownerUserID {
			return storage.CatalogItem{}, storage.ErrNotFound
		}
		existing.Name = upsert.Name
		existing.Tags = upsert.Tags
		existing.PortionG = upsert.PortionG
		existing.Calories = upsert.Calories
		existing.ProteinG = upsert.ProteinG
		existing.CarbsG = upsert.CarbsG
		existing.FatG = upsert.FatG
		existing.UpdatedAt = now
		return *existing, nil
	}

	item := &storage.CatalogItem{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		Name:        upsert.Name,
		Tags:        upsert.Tags,
		PortionG:    upsert.PortionG,
		Calories:    upsert.Calories,
		ProteinG:    upsert.ProteinG,
		CarbsG:      upsert.CarbsG,
		FatG:        upsert.FatG,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.items[item.ID] = item
	return *item, nil
}

func (s *catalogStorage) DeleteItem(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok || item.OwnerUserID != ownerUserID {
		return storage.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *catalogStorage) SetItemImage(ctx context.Context, ownerUserID string, id uuid.UUID, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok || item.OwnerUserID != ownerUserID {
		return storage.ErrNotFound
	}
	item.ImageKey = &objectKey
	item.UpdatedAt = time.Now().UTC()
	return nil
}
