package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

type nutritionStorage struct {
	mu           sync.RWMutex
	requirements map[string]*storage.DailyRequirement // key: ownerUserID
	slots        map[string][]*storage.SlotConfig     // key: ownerUserID
}

func newNutritionStorage() *nutritionStorage {
	return &nutritionStorage{
		requirements: make(map[string]*storage.DailyRequirement),
		slots:        make(map[string][]*storage.SlotConfig),
	}
}

func (s *nutritionStorage) GetRequirement(ctx context.Context, ownerUserID string) (storage.DailyRequirement, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requirements[ownerUserID]
	if !ok {
		return storage.DailyRequirement{}, false, nil
	}
	return *req, true, nil
}

func (s *nutritionStorage) UpsertRequirement(ctx context.Context, ownerUserID string, upsert storage.RequirementUpsert) (storage.DailyRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.requirements[ownerUserID]
	if ok {
		existing.Calories = upsert.Calories
		existing.ProteinG = upsert.ProteinG
		existing.CarbsG = upsert.CarbsG
		existing.FatG = upsert.FatG
		existing.UpdatedAt = now
		return *existing, nil
	}

	req := &storage.DailyRequirement{
		OwnerUserID: ownerUserID,
		Calories:    upsert.Calories,
		ProteinG:    upsert.ProteinG,
		CarbsG:      upsert.CarbsG,
		FatG:        upsert.FatG,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.requirements[ownerUserID] = req
	return *req, nil
}

func (s *nutritionStorage) ListSlotConfigs(ctx context.Context, ownerUserID string) ([]storage.SlotConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	configs := make([]storage.SlotConfig, 0, len(s.slots[ownerUserID]))
	for _, cfg := range s.slots[ownerUserID] {
		configs = append(configs, *cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].OrderIndex < configs[j].OrderIndex })
	return configs, nil
}

func (s *nutritionStorage) ReplaceSlotConfigs(ctx context.Context, ownerUserID string, items []storage.SlotConfigUpsert) ([]storage.SlotConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	replaced := make([]*storage.SlotConfig, 0, len(items))
	result := make([]storage.SlotConfig, 0, len(items))
	for _, item := range items {
		cfg := &storage.SlotConfig{
			ID:            uuid.New(),
			OwnerUserID:   ownerUserID,
			Name:          item.Name,
			SlotType:      item.SlotType,
			OrderIndex:    item.OrderIndex,
			CaloriesShare: item.CaloriesShare,
			ProteinShare:  item.ProteinShare,
			CarbsShare:    item.CarbsShare,
			FatShare:      item.FatShare,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		replaced = append(replaced, cfg)
		result = append(result, *cfg)
	}
	s.slots[ownerUserID] = replaced

	sort.Slice(result, func(i, j int) bool { return result[i].OrderIndex < result[j].OrderIndex })
	return result, nil
}
