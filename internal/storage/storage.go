package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist or is not
// visible to the calling owner.
var ErrNotFound = errors.New("record not found")

// Storage aggregates every storage concern behind one backend handle.
// Implemented by memory.MemoryStorage and postgres.PostgresStorage.
type Storage interface {
	Catalog() CatalogStorage
	Nutrition() NutritionStorage
	Preferences() PreferenceStorage
	WeekPlans() WeekPlansStorage
	Close() error
}

// ============================================================================
// Catalog
// ============================================================================

// CatalogItem is a dish, side or drink the planner can combine.
// Items with an empty OwnerUserID belong to the shared system catalog;
// items with a non-empty OwnerUserID are private to that user.
type CatalogItem struct {
	ID          uuid.UUID
	OwnerUserID string // "" for system catalog items
	Name        string
	Tags        []string // category tags ("main", "side", "drink") + slot tags ("breakfast", ...)
	PortionG    float64  // weight of a single portion, grams
	Calories    float64  // per single portion
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	ImageKey    *string // blob object key, nil when no image uploaded
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CatalogItemUpsert is used for creating/updating catalog items.
type CatalogItemUpsert struct {
	ID       uuid.UUID // Nil to create
	Name     string
	Tags     []string
	PortionG float64
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
}

// CatalogStorage manages catalog items.
type CatalogStorage interface {
	// ListByTag returns system items plus the owner's private items carrying the tag.
	ListByTag(ctx context.Context, ownerUserID string, tag string) ([]CatalogItem, error)

	// GetItem returns an item visible to the owner (system or their own).
	GetItem(ctx context.Context, ownerUserID string, id uuid.UUID) (CatalogItem, error)

	// ListItems returns items with optional name/tag search, paginated, with total count.
	ListItems(ctx context.Context, ownerUserID string, query string, limit, offset int) ([]CatalogItem, int, error)

	// UpsertItem creates or updates an item owned by ownerUserID.
	UpsertItem(ctx context.Context, ownerUserID string, upsert CatalogItemUpsert) (CatalogItem, error)

	// DeleteItem removes an item owned by ownerUserID.
	DeleteItem(ctx context.Context, ownerUserID string, id uuid.UUID) error

	// SetItemImage stores the blob object key for an item owned by ownerUserID.
	SetItemImage(ctx context.Context, ownerUserID string, id uuid.UUID, objectKey string) error
}

// ============================================================================
// Nutrition: daily requirement + slot configs
// ============================================================================

// DailyRequirement is the user's total daily nutrient requirement.
type DailyRequirement struct {
	OwnerUserID string
	Calories    float64
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequirementUpsert is used for creating/updating the daily requirement.
type RequirementUpsert struct {
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
}

// SlotConfig is one recurring meal slot and its share of the daily requirement.
type SlotConfig struct {
	ID            uuid.UUID
	OwnerUserID   string
	Name          string
	SlotType      string // breakfast | lunch | dinner | snack
	OrderIndex    int
	CaloriesShare float64 // each share in [0,1]
	ProteinShare  float64
	CarbsShare    float64
	FatShare      float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SlotConfigUpsert is used when replacing the slot config set.
type SlotConfigUpsert struct {
	Name          string
	SlotType      string
	OrderIndex    int
	CaloriesShare float64
	ProteinShare  float64
	CarbsShare    float64
	FatShare      float64
}

// NutritionStorage manages the daily requirement and slot configs.
type NutritionStorage interface {
	// GetRequirement returns the owner's requirement. bool=false means not set.
	GetRequirement(ctx context.Context, ownerUserID string) (DailyRequirement, bool, error)

	// UpsertRequirement creates or updates the owner's requirement.
	UpsertRequirement(ctx context.Context, ownerUserID string, upsert RequirementUpsert) (DailyRequirement, error)

	// ListSlotConfigs returns the owner's slot configs ordered by order_index.
	ListSlotConfigs(ctx context.Context, ownerUserID string) ([]SlotConfig, error)

	// ReplaceSlotConfigs atomically replaces the owner's slot config set.
	ReplaceSlotConfigs(ctx context.Context, ownerUserID string, items []SlotConfigUpsert) ([]SlotConfig, error)
}

// ============================================================================
// Preferences
// ============================================================================

// PreferenceStorage keeps a bounded, insertion-ordered history of item ids
// the user has chosen, most recent last. Used only as a sampling bias.
type PreferenceStorage interface {
	// RecordChosen appends item ids to the history; re-chosen ids move to the tail.
	RecordChosen(ctx context.Context, ownerUserID string, itemIDs []uuid.UUID) error

	// ListRecent returns up to limit most recent item ids, oldest first.
	ListRecent(ctx context.Context, ownerUserID string, limit int) ([]uuid.UUID, error)
}

// ============================================================================
// Week plans
// ============================================================================

// WeekPlan is the active assembled week for an owner.
type WeekPlan struct {
	ID          uuid.UUID
	OwnerUserID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DayPlan is one weekday of a week plan with rolled-up totals.
type DayPlan struct {
	ID         uuid.UUID
	WeekPlanID uuid.UUID
	DayIndex   int // 0=Monday .. 6=Sunday
	Calories   float64
	ProteinG   float64
	CarbsG     float64
	FatG       float64
}

// PlanSlot is the assembled result for one slot on one day. Chosen and
// Alternatives hold JSON-encoded combo payloads (see planner.Combo).
type PlanSlot struct {
	ID             uuid.UUID
	DayPlanID      uuid.UUID
	OwnerUserID    string
	SlotConfigID   uuid.UUID
	Name           string
	SlotType       string
	OrderIndex     int
	DemandCalories float64
	DemandProteinG float64
	DemandCarbsG   float64
	DemandFatG     float64
	Calories       float64 // chosen combo totals
	ProteinG       float64
	CarbsG         float64
	FatG           float64
	Chosen         []byte // JSON combo
	Alternatives   []byte // JSON combo list
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DaySlotUpsert pairs a day index with its slot rows for ReplaceWeek.
type DaySlotUpsert struct {
	DayIndex int
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
	Slots    []PlanSlotUpsert
}

// PlanSlotUpsert is one slot row for ReplaceWeek.
type PlanSlotUpsert struct {
	SlotConfigID   uuid.UUID
	Name           string
	SlotType       string
	OrderIndex     int
	DemandCalories float64
	DemandProteinG float64
	DemandCarbsG   float64
	DemandFatG     float64
	Calories       float64
	ProteinG       float64
	CarbsG         float64
	FatG           float64
	Chosen         []byte
	Alternatives   []byte
}

// SlotUpdate carries the mutated slot plus the recomputed day totals.
// Day totals are always recomputed from the full slot set, never adjusted
// incrementally.
type SlotUpdate struct {
	DemandCalories float64
	DemandProteinG float64
	DemandCarbsG   float64
	DemandFatG     float64
	Calories       float64
	ProteinG       float64
	CarbsG         float64
	FatG           float64
	Chosen         []byte
	Alternatives   []byte

	DayCalories float64
	DayProteinG float64
	DayCarbsG   float64
	DayFatG     float64
}

// WeekPlansStorage manages the active week plan. A week and its days/slots
// are created and deleted together; there is never a partial week.
type WeekPlansStorage interface {
	// ReplaceWeek atomically replaces the owner's active week.
	ReplaceWeek(ctx context.Context, ownerUserID string, days []DaySlotUpsert) (WeekPlan, error)

	// GetWeek returns the active week with its days and slots. bool=false means none.
	GetWeek(ctx context.Context, ownerUserID string) (WeekPlan, []DayPlan, []PlanSlot, bool, error)

	// DeleteWeek removes the active week with all days and slots.
	DeleteWeek(ctx context.Context, ownerUserID string) error

	// GetSlot returns a single slot owned by ownerUserID.
	GetSlot(ctx context.Context, ownerUserID string, slotID uuid.UUID) (PlanSlot, error)

	// ListDaySlots returns all slots of the day owning slotID, ordered by order_index.
	ListDaySlots(ctx context.Context, ownerUserID string, dayPlanID uuid.UUID) ([]PlanSlot, error)

	// UpdateSlot persists a slot mutation together with the day's recomputed totals.
	UpdateSlot(ctx context.Context, ownerUserID string, slotID uuid.UUID, update SlotUpdate) (PlanSlot, error)
}
