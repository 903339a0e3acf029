package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

// ItemDTO is the wire representation of a catalog item.
type ItemDTO struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"` // system | user
	Name      string    `json:"name"`
	Tags      []string  `json:"tags"`
	PortionG  float64   `json:"portion_g"`
	Calories  float64   `json:"calories"`
	ProteinG  float64   `json:"protein_g"`
	CarbsG    float64   `json:"carbs_g"`
	FatG      float64   `json:"fat_g"`
	ImageKey  *string   `json:"image_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertRequest creates a new item (no id) or updates an owned one (id set).
type UpsertRequest struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	Name     string     `json:"name"`
	Tags     []string   `json:"tags"`
	PortionG float64    `json:"portion_g"`
	Calories float64    `json:"calories"`
	ProteinG float64    `json:"protein_g"`
	CarbsG   float64    `json:"carbs_g"`
	FatG     float64    `json:"fat_g"`
}

type ListResponse struct {
	Items []ItemDTO `json:"items"`
	Total int       `json:"total"`
}

func (r UpsertRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(r.Tags) == 0 {
		return fmt.Errorf("at least one tag is required")
	}
	for _, tag := range r.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags must not be empty strings")
		}
	}
	if r.PortionG <= 0 {
		return fmt.Errorf("portion_g must be positive")
	}
	if r.Calories < 0 || r.ProteinG < 0 || r.CarbsG < 0 || r.FatG < 0 {
		return fmt.Errorf("nutrient values must not be negative")
	}
	return nil
}

func dtoFromStorage(item storage.CatalogItem) ItemDTO {
	source := "user"
	if item.OwnerUserID == "" {
		source = "system"
	}
	return ItemDTO{
		ID:        item.ID,
		Source:    source,
		Name:      item.Name,
		Tags:      item.Tags,
		PortionG:  item.PortionG,
		Calories:  item.Calories,
		ProteinG:  item.ProteinG,
		CarbsG:    item.CarbsG,
		FatG:      item.FatG,
		ImageKey:  item.ImageKey,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
