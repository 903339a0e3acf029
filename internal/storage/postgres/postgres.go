package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mealforge/mealforge/internal/storage"
)

// PostgresStorage is the Postgres implementation of every storage interface.
type PostgresStorage struct {
	pool        *pgxpool.Pool
	catalog     *catalogStorage
	nutrition   *nutritionStorage
	preferences *preferenceStorage
	weekPlans   *weekPlansStorage
}

// New connects to Postgres and verifies the connection with a ping.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:        pool,
		catalog:     newCatalogStorage(pool),
		nutrition:   newNutritionStorage(pool),
		preferences: newPreferenceStorage(pool),
		weekPlans:   newWeekPlansStorage(pool),
	}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// Catalog returns the catalog storage.
func (p *PostgresStorage) Catalog() storage.CatalogStorage { return p.catalog }

// Nutrition returns the nutrition storage.
func (p *PostgresStorage) Nutrition() storage.NutritionStorage { return p.nutrition }

// Preferences returns the preference storage.
func (p *PostgresStorage) Preferences() storage.PreferenceStorage { return p.preferences }

// WeekPlans returns the week plans storage.
func (p *PostgresStorage) WeekPlans() storage.WeekPlansStorage { return p.weekPlans }
