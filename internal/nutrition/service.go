package nutrition

import (
	"context"
	"errors"
	"strings"

	"github.com/mealforge/mealforge/internal/storage"
)

// ErrNotConfigured is returned when the owner has not set a requirement yet.
var ErrNotConfigured = errors.New("daily requirement is not configured")

type Service struct {
	storage storage.NutritionStorage
}

func NewService(nutritionStorage storage.NutritionStorage) *Service {
	return &Service{storage: nutritionStorage}
}

func (s *Service) GetRequirement(ctx context.Context, ownerUserID string) (RequirementResponse, error) {
	req, found, err := s.storage.GetRequirement(ctx, ownerUserID)
	if err != nil {
		return RequirementResponse{}, err
	}
	if !found {
		return RequirementResponse{}, ErrNotConfigured
	}
	return requirementFromStorage(req), nil
}

func (s *Service) UpsertRequirement(ctx context.Context, ownerUserID string, dto RequirementDTO) (RequirementResponse, error) {
	if err := dto.Validate(); err != nil {
		return RequirementResponse{}, err
	}

	req, err := s.storage.UpsertRequirement(ctx, ownerUserID, storage.RequirementUpsert{
		Calories: dto.Calories,
		ProteinG: dto.ProteinG,
		CarbsG:   dto.CarbsG,
		FatG:     dto.FatG,
	})
	if err != nil {
		return RequirementResponse{}, err
	}
	return requirementFromStorage(req), nil
}

func (s *Service) ListSlots(ctx context.Context, ownerUserID string) (SlotConfigsResponse, error) {
	configs, err := s.storage.ListSlotConfigs(ctx, ownerUserID)
	if err != nil {
		return SlotConfigsResponse{}, err
	}

	dtos := make([]SlotConfigDTO, 0, len(configs))
	for _, cfg := range configs {
		dtos = append(dtos, slotDTOFromStorage(cfg))
	}
	return SlotConfigsResponse{Slots: dtos}, nil
}

func (s *Service) ReplaceSlots(ctx context.Context, ownerUserID string, req ReplaceSlotsRequest) (SlotConfigsResponse, error) {
	if err := req.Validate(); err != nil {
		return SlotConfigsResponse{}, err
	}

	upserts := make([]storage.SlotConfigUpsert, 0, len(req.Slots))
	for _, slot := range req.Slots {
		upserts = append(upserts, storage.SlotConfigUpsert{
			Name:          strings.TrimSpace(slot.Name),
			SlotType:      strings.ToLower(strings.TrimSpace(slot.SlotType)),
			OrderIndex:    slot.OrderIndex,
			CaloriesShare: slot.CaloriesShare,
			ProteinShare:  slot.ProteinShare,
			CarbsShare:    slot.CarbsShare,
			FatShare:      slot.FatShare,
		})
	}

	configs, err := s.storage.ReplaceSlotConfigs(ctx, ownerUserID, upserts)
	if err != nil {
		return SlotConfigsResponse{}, err
	}

	dtos := make([]SlotConfigDTO, 0, len(configs))
	for _, cfg := range configs {
		dtos = append(dtos, slotDTOFromStorage(cfg))
	}
	return SlotConfigsResponse{Slots: dtos}, nil
}
