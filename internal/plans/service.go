package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/config"
	"github.com/mealforge/mealforge/internal/planner"
	"github.com/mealforge/mealforge/internal/storage"
)

var (
	// ErrNotConfigured means the daily requirement or the slot configs are
	// missing; assembly cannot run until both are set.
	ErrNotConfigured = errors.New("nutrition requirement and slot configs must be set first")

	// ErrNoWeek means no active week plan exists for the owner.
	ErrNoWeek = errors.New("no active week plan")

	// ErrNoCandidates means the catalog has nothing to offer for the slot.
	ErrNoCandidates = errors.New("no combo candidates for this slot")
)

// OptionsFromConfig maps the planner env knobs onto generation options.
func OptionsFromConfig(cfg config.PlannerConfig) planner.Options {
	return planner.Options{
		Step:             cfg.QuantityStep,
		MaxPortionFactor: cfg.QuantityCap,
		TolerancePct:     cfg.Tolerance,
		PreferPct:        cfg.PreferPct,
		SideChance:       cfg.SideChance,
		DrinkChance:      cfg.DrinkChance,
		ComboCount:       cfg.ComboCount,
		Attempts:         cfg.Attempts,
		FrequencyCap:     cfg.FrequencyCap,
		MinSlotCalories:  cfg.MinSlotCalories,
		PreferenceLimit:  cfg.PreferenceLimit,
	}
}

type Service struct {
	catalog     storage.CatalogStorage
	nutrition   storage.NutritionStorage
	preferences storage.PreferenceStorage
	weekPlans   storage.WeekPlansStorage
	opts        planner.Options
	seedFn      func() int64
}

func NewService(store storage.Storage, opts planner.Options) *Service {
	return &Service{
		catalog:     store.Catalog(),
		nutrition:   store.Nutrition(),
		preferences: store.Preferences(),
		weekPlans:   store.WeekPlans(),
		opts:        opts,
		seedFn:      func() int64 { return time.Now().UnixNano() },
	}
}

// newAssembler builds a fresh assembler per request. rand.Rand is not safe
// for concurrent use, so generators are never shared between requests.
func (s *Service) newAssembler() *planner.Assembler {
	rng := rand.New(rand.NewSource(s.seedFn()))
	return planner.NewAssembler(planner.NewGenerator(rng, s.opts))
}

// AssembleWeek builds and persists a fresh 7-day plan, replacing any prior
// active week. Every chosen item is recorded into the preference history.
func (s *Service) AssembleWeek(ctx context.Context, ownerUserID string) (WeekResponse, error) {
	requirement, configs, err := s.loadPlanningInputs(ctx, ownerUserID)
	if err != nil {
		return WeekResponse{}, err
	}

	catalog, err := s.catalogBySlotType(ctx, ownerUserID, configs)
	if err != nil {
		return WeekResponse{}, err
	}

	preferred, err := s.preferredSet(ctx, ownerUserID)
	if err != nil {
		return WeekResponse{}, err
	}

	days := s.newAssembler().AssembleWeek(requirement, configs, catalog, preferred)

	upserts := make([]storage.DaySlotUpsert, len(days))
	for i, day := range days {
		upsert := storage.DaySlotUpsert{
			DayIndex: day.DayIndex,
			Calories: day.Totals.Calories,
			ProteinG: day.Totals.ProteinG,
			CarbsG:   day.Totals.CarbsG,
			FatG:     day.Totals.FatG,
		}
		for _, slot := range day.Slots {
			row, err := slotUpsert(slot)
			if err != nil {
				return WeekResponse{}, err
			}
			upsert.Slots = append(upsert.Slots, row)
		}
		upserts[i] = upsert
	}

	if _, err := s.weekPlans.ReplaceWeek(ctx, ownerUserID, upserts); err != nil {
		return WeekResponse{}, err
	}

	if ids := chosenItemIDs(days); len(ids) > 0 {
		if err := s.preferences.RecordChosen(ctx, ownerUserID, ids); err != nil {
			return WeekResponse{}, fmt.Errorf("failed to record chosen items: %w", err)
		}
	}

	return s.GetWeek(ctx, ownerUserID)
}

// GetWeek returns the active week plan.
func (s *Service) GetWeek(ctx context.Context, ownerUserID string) (WeekResponse, error) {
	week, dayRows, slotRows, ok, err := s.weekPlans.GetWeek(ctx, ownerUserID)
	if err != nil {
		return WeekResponse{}, err
	}
	if !ok {
		return WeekResponse{}, ErrNoWeek
	}

	slotsByDay := make(map[uuid.UUID][]SlotDTO, len(dayRows))
	for _, row := range slotRows {
		dto, err := slotDTO(row)
		if err != nil {
			return WeekResponse{}, err
		}
		slotsByDay[row.DayPlanID] = append(slotsByDay[row.DayPlanID], dto)
	}

	resp := WeekResponse{
		ID:        week.ID,
		CreatedAt: week.CreatedAt,
		UpdatedAt: week.UpdatedAt,
		Days:      make([]DayDTO, len(dayRows)),
	}
	for i, day := range dayRows {
		slots := slotsByDay[day.ID]
		if slots == nil {
			slots = []SlotDTO{}
		}
		resp.Days[i] = DayDTO{
			DayIndex: day.DayIndex,
			Totals: planner.Vector{
				Calories: day.Calories,
				ProteinG: day.ProteinG,
				CarbsG:   day.CarbsG,
				FatG:     day.FatG,
			},
			Slots: slots,
		}
	}
	return resp, nil
}

// DeleteWeek removes the active week. Deleting when none exists is a no-op.
func (s *Service) DeleteWeek(ctx context.Context, ownerUserID string) error {
	return s.weekPlans.DeleteWeek(ctx, ownerUserID)
}

// Candidates generates ranked combos for an explicit slot type and demand
// without touching the persisted week.
func (s *Service) Candidates(ctx context.Context, ownerUserID string, req CandidatesRequest) (CandidatesResponse, error) {
	if err := req.Validate(); err != nil {
		return CandidatesResponse{}, err
	}

	items, err := s.catalog.ListByTag(ctx, ownerUserID, req.SlotType)
	if err != nil {
		return CandidatesResponse{}, err
	}
	preferred, err := s.preferredSet(ctx, ownerUserID)
	if err != nil {
		return CandidatesResponse{}, err
	}

	rng := rand.New(rand.NewSource(s.seedFn()))
	combos := planner.NewGenerator(rng, s.opts).Candidates(items, req.Demand.Round(), preferred)
	return CandidatesResponse{Combos: combos}, nil
}

// RegenerateSlot rebuilds one slot's candidate set and swaps in the new top
// pick. The weekly frequency state of the original assembly run is gone by
// now, so regeneration may re-pick items that run had capped out. When the
// slot's config still exists the demand is recomputed from the current
// requirement; otherwise the demand frozen on the slot is reused.
func (s *Service) RegenerateSlot(ctx context.Context, ownerUserID string, slotID uuid.UUID) (SlotDTO, error) {
	slot, err := s.weekPlans.GetSlot(ctx, ownerUserID, slotID)
	if err != nil {
		return SlotDTO{}, err
	}

	demand := slotDemand(slot)
	if cfg, ok, err := s.currentSlotConfig(ctx, ownerUserID, slot.SlotConfigID); err != nil {
		return SlotDTO{}, err
	} else if ok {
		requirement, found, err := s.nutrition.GetRequirement(ctx, ownerUserID)
		if err != nil {
			return SlotDTO{}, err
		}
		if found {
			demand = planner.SlotDemand(requirementVector(requirement), cfg)
		}
	}

	items, err := s.catalog.ListByTag(ctx, ownerUserID, slot.SlotType)
	if err != nil {
		return SlotDTO{}, err
	}
	preferred, err := s.preferredSet(ctx, ownerUserID)
	if err != nil {
		return SlotDTO{}, err
	}

	rng := rand.New(rand.NewSource(s.seedFn()))
	combos := planner.NewGenerator(rng, s.opts).Candidates(items, demand, preferred)
	if len(combos) == 0 {
		return SlotDTO{}, ErrNoCandidates
	}
	chosen := combos[0]

	update, err := s.slotUpdate(ctx, ownerUserID, slot, demand, chosen, combos)
	if err != nil {
		return SlotDTO{}, err
	}

	updated, err := s.weekPlans.UpdateSlot(ctx, ownerUserID, slotID, update)
	if err != nil {
		return SlotDTO{}, err
	}

	if err := s.preferences.RecordChosen(ctx, ownerUserID, comboItemIDs(chosen)); err != nil {
		return SlotDTO{}, fmt.Errorf("failed to record chosen items: %w", err)
	}

	return slotDTO(updated)
}

// ProposeQuantity builds the discrete quantity table for adding a catalog
// item to a slot. It never mutates the slot.
func (s *Service) ProposeQuantity(ctx context.Context, ownerUserID string, slotID uuid.UUID, itemID uuid.UUID) (planner.QuantityProposal, error) {
	slot, err := s.weekPlans.GetSlot(ctx, ownerUserID, slotID)
	if err != nil {
		return planner.QuantityProposal{}, err
	}
	item, err := s.catalog.GetItem(ctx, ownerUserID, itemID)
	if err != nil {
		return planner.QuantityProposal{}, err
	}

	return planner.ProposeQuantity(slotTotals(slot), slotDemand(slot), planner.ItemVector(item), s.opts), nil
}

// loadPlanningInputs fetches the requirement vector and ordered slot configs,
// failing with ErrNotConfigured when either is missing.
func (s *Service) loadPlanningInputs(ctx context.Context, ownerUserID string) (planner.Vector, []storage.SlotConfig, error) {
	requirement, ok, err := s.nutrition.GetRequirement(ctx, ownerUserID)
	if err != nil {
		return planner.Vector{}, nil, err
	}
	if !ok {
		return planner.Vector{}, nil, ErrNotConfigured
	}

	configs, err := s.nutrition.ListSlotConfigs(ctx, ownerUserID)
	if err != nil {
		return planner.Vector{}, nil, err
	}
	if len(configs) == 0 {
		return planner.Vector{}, nil, ErrNotConfigured
	}

	return requirementVector(requirement), configs, nil
}

// catalogBySlotType fetches the slot-tagged item set once per distinct type.
func (s *Service) catalogBySlotType(ctx context.Context, ownerUserID string, configs []storage.SlotConfig) (map[string][]storage.CatalogItem, error) {
	catalog := make(map[string][]storage.CatalogItem)
	for _, cfg := range configs {
		if _, seen := catalog[cfg.SlotType]; seen {
			continue
		}
		items, err := s.catalog.ListByTag(ctx, ownerUserID, cfg.SlotType)
		if err != nil {
			return nil, err
		}
		catalog[cfg.SlotType] = items
	}
	return catalog, nil
}

func (s *Service) preferredSet(ctx context.Context, ownerUserID string) (map[uuid.UUID]bool, error) {
	ids, err := s.preferences.ListRecent(ctx, ownerUserID, s.opts.PreferenceLimit)
	if err != nil {
		return nil, err
	}
	preferred := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		preferred[id] = true
	}
	return preferred, nil
}

func (s *Service) currentSlotConfig(ctx context.Context, ownerUserID string, id uuid.UUID) (storage.SlotConfig, bool, error) {
	configs, err := s.nutrition.ListSlotConfigs(ctx, ownerUserID)
	if err != nil {
		return storage.SlotConfig{}, false, err
	}
	for _, cfg := range configs {
		if cfg.ID == id {
			return cfg, true, nil
		}
	}
	return storage.SlotConfig{}, false, nil
}

// slotUpdate packs the new chosen combo plus the day totals recomputed from
// the full slot set of the slot's day.
func (s *Service) slotUpdate(ctx context.Context, ownerUserID string, slot storage.PlanSlot, demand planner.Vector, chosen planner.Combo, combos []planner.Combo) (storage.SlotUpdate, error) {
	chosenJSON, err := json.Marshal(chosen)
	if err != nil {
		return storage.SlotUpdate{}, fmt.Errorf("failed to encode chosen combo: %w", err)
	}
	alternativesJSON, err := json.Marshal(combos)
	if err != nil {
		return storage.SlotUpdate{}, fmt.Errorf("failed to encode alternatives: %w", err)
	}

	siblings, err := s.weekPlans.ListDaySlots(ctx, ownerUserID, slot.DayPlanID)
	if err != nil {
		return storage.SlotUpdate{}, err
	}
	dayTotals := planner.Vector{}
	for _, sibling := range siblings {
		if sibling.ID == slot.ID {
			dayTotals = dayTotals.Add(chosen.Totals)
			continue
		}
		dayTotals = dayTotals.Add(slotTotals(sibling))
	}
	dayTotals = dayTotals.Round()

	return storage.SlotUpdate{
		DemandCalories: demand.Calories,
		DemandProteinG: demand.ProteinG,
		DemandCarbsG:   demand.CarbsG,
		DemandFatG:     demand.FatG,
		Calories:       chosen.Totals.Calories,
		ProteinG:       chosen.Totals.ProteinG,
		CarbsG:         chosen.Totals.CarbsG,
		FatG:           chosen.Totals.FatG,
		Chosen:         chosenJSON,
		Alternatives:   alternativesJSON,
		DayCalories:    dayTotals.Calories,
		DayProteinG:    dayTotals.ProteinG,
		DayCarbsG:      dayTotals.CarbsG,
		DayFatG:        dayTotals.FatG,
	}, nil
}

func slotUpsert(slot planner.SlotPlan) (storage.PlanSlotUpsert, error) {
	chosenJSON, err := json.Marshal(slot.Chosen)
	if err != nil {
		return storage.PlanSlotUpsert{}, fmt.Errorf("failed to encode chosen combo: %w", err)
	}
	alternativesJSON, err := json.Marshal(slot.Alternatives)
	if err != nil {
		return storage.PlanSlotUpsert{}, fmt.Errorf("failed to encode alternatives: %w", err)
	}
	return storage.PlanSlotUpsert{
		SlotConfigID:   slot.SlotConfigID,
		Name:           slot.Name,
		SlotType:       slot.SlotType,
		OrderIndex:     slot.OrderIndex,
		DemandCalories: slot.Demand.Calories,
		DemandProteinG: slot.Demand.ProteinG,
		DemandCarbsG:   slot.Demand.CarbsG,
		DemandFatG:     slot.Demand.FatG,
		Calories:       slot.Chosen.Totals.Calories,
		ProteinG:       slot.Chosen.Totals.ProteinG,
		CarbsG:         slot.Chosen.Totals.CarbsG,
		FatG:           slot.Chosen.Totals.FatG,
		Chosen:         chosenJSON,
		Alternatives:   alternativesJSON,
	}, nil
}

func slotDTO(row storage.PlanSlot) (SlotDTO, error) {
	var chosen planner.Combo
	if err := json.Unmarshal(row.Chosen, &chosen); err != nil {
		return SlotDTO{}, fmt.Errorf("failed to decode chosen combo: %w", err)
	}
	var alternatives []planner.Combo
	if err := json.Unmarshal(row.Alternatives, &alternatives); err != nil {
		return SlotDTO{}, fmt.Errorf("failed to decode alternatives: %w", err)
	}
	return SlotDTO{
		ID:           row.ID,
		SlotConfigID: row.SlotConfigID,
		Name:         row.Name,
		SlotType:     row.SlotType,
		OrderIndex:   row.OrderIndex,
		Demand:       slotDemand(row),
		Chosen:       chosen,
		Alternatives: alternatives,
	}, nil
}

// chosenItemIDs collects the distinct item ids chosen across the week, in
// day/slot order so the preference queue keeps a meaningful recency order.
func chosenItemIDs(days []planner.DayAssembly) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, day := range days {
		for _, slot := range day.Slots {
			for _, item := range slot.Chosen.Items {
				if !seen[item.ItemID] {
					seen[item.ItemID] = true
					ids = append(ids, item.ItemID)
				}
			}
		}
	}
	return ids
}

func comboItemIDs(c planner.Combo) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, item := range c.Items {
		if !seen[item.ItemID] {
			seen[item.ItemID] = true
			ids = append(ids, item.ItemID)
		}
	}
	return ids
}

func requirementVector(r storage.DailyRequirement) planner.Vector {
	return planner.Vector{
		Calories: r.Calories,
		ProteinG: r.ProteinG,
		CarbsG:   r.CarbsG,
		FatG:     r.FatG,
	}
}
