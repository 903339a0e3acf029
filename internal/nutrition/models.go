package nutrition

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

// RequirementDTO is the daily nutrient requirement on the wire.
type RequirementDTO struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

type RequirementResponse struct {
	Requirement RequirementDTO `json:"requirement"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (r RequirementDTO) Validate() error {
	if r.Calories <= 0 {
		return fmt.Errorf("calories must be positive")
	}
	if r.ProteinG < 0 || r.CarbsG < 0 || r.FatG < 0 {
		return fmt.Errorf("nutrient values must not be negative")
	}
	return nil
}

// SlotConfigDTO describes one meal slot and its share of the daily requirement.
type SlotConfigDTO struct {
	ID            uuid.UUID `json:"id,omitempty"`
	Name          string    `json:"name"`
	SlotType      string    `json:"slot_type"`
	OrderIndex    int       `json:"order_index"`
	CaloriesShare float64   `json:"calories_share"`
	ProteinShare  float64   `json:"protein_share"`
	CarbsShare    float64   `json:"carbs_share"`
	FatShare      float64   `json:"fat_share"`
}

type SlotConfigsResponse struct {
	Slots []SlotConfigDTO `json:"slots"`
}

type ReplaceSlotsRequest struct {
	Slots []SlotConfigDTO `json:"slots"`
}

func (r ReplaceSlotsRequest) Validate() error {
	if len(r.Slots) == 0 {
		return fmt.Errorf("at least one slot is required")
	}

	var calSum float64
	for i, slot := range r.Slots {
		if strings.TrimSpace(slot.Name) == "" {
			return fmt.Errorf("slots[%d]: name is required", i)
		}
		if strings.TrimSpace(slot.SlotType) == "" {
			return fmt.Errorf("slots[%d]: slot_type is required", i)
		}
		for _, share := range []float64{slot.CaloriesShare, slot.ProteinShare, slot.CarbsShare, slot.FatShare} {
			if share < 0 || share > 1 {
				return fmt.Errorf("slots[%d]: shares must be in range 0..1", i)
			}
		}
		calSum += slot.CaloriesShare
	}

	if calSum > 1.0+1e-9 {
		return fmt.Errorf("calories_share across slots must not exceed 1.0 (got %.2f)", calSum)
	}
	return nil
}

func requirementFromStorage(req storage.DailyRequirement) RequirementResponse {
	return RequirementResponse{
		Requirement: RequirementDTO{
			Calories: req.Calories,
			ProteinG: req.ProteinG,
			CarbsG:   req.CarbsG,
			FatG:     req.FatG,
		},
		UpdatedAt: req.UpdatedAt,
	}
}

func slotDTOFromStorage(cfg storage.SlotConfig) SlotConfigDTO {
	return SlotConfigDTO{
		ID:            cfg.ID,
		Name:          cfg.Name,
		SlotType:      cfg.SlotType,
		OrderIndex:    cfg.OrderIndex,
		CaloriesShare: cfg.CaloriesShare,
		ProteinShare:  cfg.ProteinShare,
		CarbsShare:    cfg.CarbsShare,
		FatShare:      cfg.FatShare,
	}
}
