package plans

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/planner"
	"github.com/mealforge/mealforge/internal/storage"
)

// SlotDTO is one assembled slot of a day.
type SlotDTO struct {
	ID           uuid.UUID       `json:"id"`
	SlotConfigID uuid.UUID       `json:"slot_config_id"`
	Name         string          `json:"name"`
	SlotType     string          `json:"slot_type"`
	OrderIndex   int             `json:"order_index"`
	Demand       planner.Vector  `json:"demand"`
	Chosen       planner.Combo   `json:"chosen"`
	Alternatives []planner.Combo `json:"alternatives"`
}

// DayDTO is one weekday with its slots and rolled-up totals.
type DayDTO struct {
	DayIndex int            `json:"day_index"`
	Totals   planner.Vector `json:"totals"`
	Slots    []SlotDTO      `json:"slots"`
}

// WeekResponse is the active assembled week.
type WeekResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Days      []DayDTO  `json:"days"`
}

// CandidatesRequest asks for ranked combo candidates against an explicit
// demand, outside of any persisted week.
type CandidatesRequest struct {
	SlotType string         `json:"slot_type"`
	Demand   planner.Vector `json:"demand"`
}

func (r CandidatesRequest) Validate() error {
	if strings.TrimSpace(r.SlotType) == "" {
		return fmt.Errorf("slot_type is required")
	}
	if r.Demand.Calories <= 0 {
		return fmt.Errorf("demand.calories must be positive")
	}
	if r.Demand.ProteinG < 0 || r.Demand.CarbsG < 0 || r.Demand.FatG < 0 {
		return fmt.Errorf("demand macros must be non-negative")
	}
	return nil
}

type CandidatesResponse struct {
	Combos []planner.Combo `json:"combos"`
}

// QuantityRequest names the catalog item a quantity table is requested for.
type QuantityRequest struct {
	ItemID uuid.UUID `json:"item_id"`
}

func slotDemand(slot storage.PlanSlot) planner.Vector {
	return planner.Vector{
		Calories: slot.DemandCalories,
		ProteinG: slot.DemandProteinG,
		CarbsG:   slot.DemandCarbsG,
		FatG:     slot.DemandFatG,
	}
}

func slotTotals(slot storage.PlanSlot) planner.Vector {
	return planner.Vector{
		Calories: slot.Calories,
		ProteinG: slot.ProteinG,
		CarbsG:   slot.CarbsG,
		FatG:     slot.FatG,
	}
}
