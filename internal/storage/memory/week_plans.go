package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

type weekPlansStorage struct {
	mu          sync.RWMutex
	weeks       map[string]*storage.WeekPlan    // key: ownerUserID (one active week)
	days        map[uuid.UUID]*storage.DayPlan  // key: day_plan_id
	slots       map[uuid.UUID]*storage.PlanSlot // key: slot_id
	daysByWeek  map[uuid.UUID][]uuid.UUID
	slotsByDay  map[uuid.UUID][]uuid.UUID
	weekByOwner map[string]uuid.UUID
}

func newWeekPlansStorage() *weekPlansStorage {
	return &weekPlansStorage{
		weeks:       make(map[string]*storage.WeekPlan),
		days:        make(map[uuid.UUID]*storage.DayPlan),
		slots:       make(map[uuid.UUID]*storage.PlanSlot),
		daysByWeek:  make(map[uuid.UUID][]uuid.UUID),
		slotsByDay:  make(map[uuid.UUID][]uuid.UUID),
		weekByOwner: make(map[string]uuid.UUID),
	}
}

func (s *weekPlansStorage) ReplaceWeek(ctx context.Context, ownerUserID string, days []storage.DaySlotUpsert) (storage.WeekPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if weekID, ok := s.weekByOwner[ownerUserID]; ok {
		s.deleteWeekLocked(ownerUserID, weekID)
	}

	now := time.Now().UTC()
	week := &storage.WeekPlan{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.weeks[ownerUserID] = week
	s.weekByOwner[ownerUserID] = week.ID

	for _, dayUpsert := range days {
		day := &storage.DayPlan{
			ID:         uuid.New(),
			WeekPlanID: week.ID,
			DayIndex:   dayUpsert.DayIndex,
			Calories:   dayUpsert.Calories,
			ProteinG:   dayUpsert.ProteinG,
			CarbsG:     dayUpsert.CarbsG,
			FatG:       dayUpsert.FatG,
		}
		s.days[day.ID] = day
		s.daysByWeek[week.ID] = append(s.daysByWeek[week.ID], day.ID)

		for _, slotUpsert := range dayUpsert.Slots {
			slot := &storage.PlanSlot{
				ID:             uuid.New(),
				DayPlanID:      day.ID,
				OwnerUserID:    ownerUserID,
				SlotConfigID:   slotUpsert.SlotConfigID,
				Name:           slotUpsert.Name,
				SlotType:       slotUpsert.SlotType,
				OrderIndex:     slotUpsert.OrderIndex,
				DemandCalories: slotUpsert.DemandCalories,
				DemandProteinG: slotUpsert.DemandProteinG,
				DemandCarbsG:   slotUpsert.DemandCarbsG,
				DemandFatG:     slotUpsert.DemandFatG,
				Calories:       slotUpsert.Calories,
				ProteinG:       slotUpsert.ProteinG,
				CarbsG:         slotUpsert.CarbsG,
				FatG:           slotUpsert.FatG,
				Chosen:         slotUpsert.Chosen,
				Alternatives:   slotUpsert.Alternatives,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			s.slots[slot.ID] = slot
			s.slotsByDay[day.ID] = append(s.slotsByDay[day.ID], slot.ID)
		}
	}

	return *week, nil
}

func (s *weekPlansStorage) GetWeek(ctx context.Context, ownerUserID string) (storage.WeekPlan, []storage.DayPlan, []storage.PlanSlot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	week, ok := s.weeks[ownerUserID]
	if !ok {
		return storage.WeekPlan{}, nil, nil, false, nil
	}

	var days []storage.DayPlan
	var slots []storage.PlanSlot
	for _, dayID := range s.daysByWeek[week.ID] {
		day := s.days[dayID]
		days = append(days, *day)
		for _, slotID := range s.slotsByDay[dayID] {
			slots = append(slots, *s.slots[slotID])
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].DayIndex < days[j].DayIndex })
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayPlanID != slots[j].DayPlanID {
			return s.days[slots[i].DayPlanID].DayIndex < s.days[slots[j].DayPlanID].DayIndex
		}
		return slots[i].OrderIndex < slots[j].OrderIndex
	})

	return *week, days, slots, true, nil
}

func (s *weekPlansStorage) DeleteWeek(ctx context.Context, ownerUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	weekID, ok := s.weekByOwner[ownerUserID]
	if !ok {
		return nil // nothing to delete
	}
	s.deleteWeekLocked(ownerUserID, weekID)
	return nil
}

// deleteWeekLocked removes the week with all days and slots (lock held).
func (s *weekPlansStorage) deleteWeekLocked(ownerUserID string, weekID uuid.UUID) {
	for _, dayID := range s.daysByWeek[weekID] {
		for _, slotID := range s.slotsByDay[dayID] {
			delete(s.slots, slotID)
		}
		delete(s.slotsByDay, dayID)
		delete(s.days, dayID)
	}
	delete(s.daysByWeek, weekID)
	delete(s.weeks, ownerUserID)
	delete(s.weekByOwner, ownerUserID)
}

func (s *weekPlansStorage) GetSlot(ctx context.Context, ownerUserID string, slotID uuid.UUID) (storage.PlanSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[slotID]
	if !ok || slot.OwnerUserID != ownerUserID {
		return storage.PlanSlot{}, storage.ErrNotFound
	}
	return *slot, nil
}

func (s *weekPlansStorage) ListDaySlots(ctx context.Context, ownerUserID string, dayPlanID uuid.UUID) ([]storage.PlanSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slots []storage.PlanSlot
	for _, slotID := range s.slotsByDay[dayPlanID] {
		slot := s.slots[slotID]
		if slot.OwnerUserID != ownerUserID {
			return nil, storage.ErrNotFound
		}
		slots = append(slots, *slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].OrderIndex < slots[j].OrderIndex })
	return slots, nil
}

func (s *weekPlansStorage) UpdateSlot(ctx context.Context, ownerUserID string, slotID uuid.UUID, update storage.SlotUpdate) (storage.PlanSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[slotID]
	if !ok || slot.OwnerUserID != ownerUserID {
		return storage.PlanSlot{}, storage.ErrNotFound
	}

	slot.DemandCalories = update.DemandCalories
	slot.DemandProteinG = update.DemandProteinG
	slot.DemandCarbsG = update.DemandCarbsG
	slot.DemandFatG = update.DemandFatG
	slot.Calories = update.Calories
	slot.ProteinG = update.ProteinG
	slot.CarbsG = update.CarbsG
	slot.FatG = update.FatG
	slot.Chosen = update.Chosen
	slot.Alternatives = update.Alternatives
	slot.UpdatedAt = time.Now().UTC()

	if day, ok := s.days[slot.DayPlanID]; ok {
		day.Calories = update.DayCalories
		day.ProteinG = update.DayProteinG
		day.CarbsG = update.DayCarbsG
		day.FatG = update.DayFatG
	}

	return *slot, nil
}
