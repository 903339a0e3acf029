package memory

import (
	"github.com/mealforge/mealforge/internal/storage"
)

// MemoryStorage is the in-memory implementation of every storage interface.
// Used when DATABASE_URL is not configured and in tests.
type MemoryStorage struct {
	catalog     *catalogStorage
	nutrition   *nutritionStorage
	preferences *preferenceStorage
	weekPlans   *weekPlansStorage
}

// New creates a MemoryStorage pre-seeded with a small system catalog so a
// fresh local server can assemble a week out of the box.
func New() *MemoryStorage {
	m := &MemoryStorage{
		catalog:     newCatalogStorage(),
		nutrition:   newNutritionStorage(),
		preferences: newPreferenceStorage(),
		weekPlans:   newWeekPlansStorage(),
	}
	m.catalog.seedSystemCatalog()
	return m
}

// Close is a no-op for the in-memory backend.
func (m *MemoryStorage) Close() error { return nil }

// Catalog returns the catalog storage.
func (m *MemoryStorage) Catalog() storage.CatalogStorage { return m.catalog }

// Nutrition returns the nutrition storage.
func (m *MemoryStorage) Nutrition() storage.NutritionStorage { return m.nutrition }

// Preferences returns the preference storage.
func (m *MemoryStorage) Preferences() storage.PreferenceStorage { return m.preferences }

// WeekPlans returns the week plans storage.
func (m *MemoryStorage) WeekPlans() storage.WeekPlansStorage { return m.weekPlans }
