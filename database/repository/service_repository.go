package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"salonbook/models"
)

// ServiceRepository handles service catalog data operations.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository creates a new service repository.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// FindByID retrieves a service.
func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*models.Service, error) {
	var s models.Service
	err := r.db.GetContext(ctx, &s, `SELECT * FROM services WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to find service by id: %w", err)
	}
	return &s, nil
}

// FindByIDs retrieves the given services. Missing ids are simply absent from
// the result; callers validate completeness.
func (r *ServiceRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var services []models.Service
	err := r.db.SelectContext(ctx, &services, `
		SELECT * FROM services WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to find services: %w", err)
	}
	return services, nil
}

// List returns the whole catalog ordered by name.
func (r *ServiceRepository) List(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	err := r.db.SelectContext(ctx, &services, `SELECT * FROM services ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

// Upsert creates or rewrites a catalog entry.
func (r *ServiceRepository) Upsert(ctx context.Context, s *models.Service) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO services (id, name, category, description, price_cents, duration_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			price_cents = EXCLUDED.price_cents,
			duration_minutes = EXCLUDED.duration_minutes
	`, s.ID, s.Name, s.Category, s.Description, s.PriceCents, s.DurationMinutes)
	if err != nil {
		return fmt.Errorf("failed to upsert service: %w", err)
	}
	return nil
}

// Delete removes a service from the catalog. Booking items keep their
// snapshot rows via FK, so deletion is blocked while items reference it.
func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// DurationOverrides returns the master's per-service duration overrides.
func (r *ServiceRepository) DurationOverrides(ctx context.Context, masterID int64, serviceIDs []string) (map[string]int, error) {
	if len(serviceIDs) == 0 {
		return map[string]int{}, nil
	}
	type row struct {
		ServiceID       string `db:"service_id"`
		DurationMinutes *int   `db:"duration_minutes"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, `
		SELECT service_id, duration_minutes FROM master_services
		WHERE master_id = $1 AND service_id = ANY($2)
	`, masterID, pq.Array(serviceIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load duration overrides: %w", err)
	}
	overrides := make(map[string]int, len(rows))
	for _, r := range rows {
		if r.DurationMinutes != nil && *r.DurationMinutes > 0 {
			overrides[r.ServiceID] = *r.DurationMinutes
		}
	}
	return overrides, nil
}
