package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"salonbook/models"
)

// MasterRepository handles masters, their service links and per-client notes.
type MasterRepository struct {
	db *sqlx.DB
}

// NewMasterRepository creates a new master repository.
func NewMasterRepository(db *sqlx.DB) *MasterRepository {
	return &MasterRepository{db: db}
}

// FindByID retrieves a master by internal id.
func (r *MasterRepository) FindByID(ctx context.Context, id int64) (*models.Master, error) {
	var m models.Master
	err := r.db.GetContext(ctx, &m, `SELECT * FROM masters WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMasterNotFound
		}
		return nil, fmt.Errorf("failed to find master by id: %w", err)
	}
	return &m, nil
}

// FindByTelegramID retrieves a master by external messaging id.
func (r *MasterRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*models.Master, error) {
	var m models.Master
	err := r.db.GetContext(ctx, &m, `SELECT * FROM masters WHERE telegram_id = $1`, telegramID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMasterNotFound
		}
		return nil, fmt.Errorf("failed to find master by telegram id: %w", err)
	}
	return &m, nil
}

// ListActive returns all active masters ordered by name.
func (r *MasterRepository) ListActive(ctx context.Context) ([]models.Master, error) {
	var masters []models.Master
	err := r.db.SelectContext(ctx, &masters, `
		SELECT * FROM masters WHERE is_active ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list masters: %w", err)
	}
	return masters, nil
}

// ListOfferingAll returns active masters that offer every one of the given
// services.
func (r *MasterRepository) ListOfferingAll(ctx context.Context, serviceIDs []string) ([]models.Master, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}
	var masters []models.Master
	err := r.db.SelectContext(ctx, &masters, `
		SELECT m.* FROM masters m
		JOIN master_services ms ON ms.master_id = m.id
		WHERE m.is_active AND ms.service_id = ANY($1)
		GROUP BY m.id
		HAVING COUNT(DISTINCT ms.service_id) = $2
		ORDER BY m.name ASC
	`, pq.Array(serviceIDs), len(serviceIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list masters for services: %w", err)
	}
	return masters, nil
}

// Create inserts a master.
func (r *MasterRepository) Create(ctx context.Context, m *models.Master) error {
	err := r.db.GetContext(ctx, m, `
		INSERT INTO masters (telegram_id, name, bio, profile, is_active, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, TRUE), NOW())
		RETURNING *
	`, m.TelegramID, m.Name, m.Bio, m.Profile, m.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create master: %w", err)
	}
	return nil
}

// Update rewrites a master's mutable fields.
func (r *MasterRepository) Update(ctx context.Context, m *models.Master) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE masters SET name = $1, bio = $2, profile = $3, is_active = $4, telegram_id = $5
		WHERE id = $6
	`, m.Name, m.Bio, m.Profile, m.IsActive, m.TelegramID, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update master: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMasterNotFound
	}
	return nil
}

// ServiceLinks returns the master's service links with duration overrides.
func (r *MasterRepository) ServiceLinks(ctx context.Context, masterID int64) ([]models.MasterService, error) {
	var links []models.MasterService
	err := r.db.SelectContext(ctx, &links, `
		SELECT * FROM master_services WHERE master_id = $1 ORDER BY service_id ASC
	`, masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list master services: %w", err)
	}
	return links, nil
}

// LinkService attaches a service to a master, replacing the duration
// override when the pair already exists.
func (r *MasterRepository) LinkService(ctx context.Context, link models.MasterService) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO master_services (master_id, service_id, duration_minutes)
		VALUES ($1, $2, $3)
		ON CONFLICT (master_id, service_id) DO UPDATE SET duration_minutes = EXCLUDED.duration_minutes
	`, link.MasterID, link.ServiceID, link.DurationMinutes)
	if err != nil {
		return fmt.Errorf("failed to link service: %w", err)
	}
	return nil
}

// UnlinkService removes a master-service link.
func (r *MasterRepository) UnlinkService(ctx context.Context, masterID int64, serviceID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM master_services WHERE master_id = $1 AND service_id = $2
	`, masterID, serviceID)
	if err != nil {
		return fmt.Errorf("failed to unlink service: %w", err)
	}
	return nil
}

// UpsertClientNote keeps the single note a master has per client.
func (r *MasterRepository) UpsertClientNote(ctx context.Context, note models.MasterClientNote) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO master_client_notes (master_id, user_id, note)
		VALUES ($1, $2, $3)
		ON CONFLICT (master_id, user_id) DO UPDATE SET note = EXCLUDED.note
	`, note.MasterID, note.UserID, note.Note)
	if err != nil {
		return fmt.Errorf("failed to upsert client note: %w", err)
	}
	return nil
}

// GetClientNote returns the master's note for a client, or nil when absent.
func (r *MasterRepository) GetClientNote(ctx context.Context, masterID, userID int64) (*models.MasterClientNote, error) {
	var note models.MasterClientNote
	err := r.db.GetContext(ctx, &note, `
		SELECT * FROM master_client_notes WHERE master_id = $1 AND user_id = $2
	`, masterID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get client note: %w", err)
	}
	return &note, nil
}
