package models

import "time"

// Master is a service provider.
type Master struct {
	ID         int64   `db:"id" json:"id"`
	TelegramID *int64  `db:"telegram_id" json:"telegram_id,omitempty"`
	Name       string  `db:"name" json:"name"`
	Bio        *string `db:"bio" json:"bio,omitempty"`
	// Profile holds optional free-form profile data as a JSON blob.
	Profile   []byte    `db:"profile" json:"profile,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MasterService links a master to a service they offer, optionally
// overriding the service duration for that master.
type MasterService struct {
	MasterID        int64  `db:"master_id" json:"master_id"`
	ServiceID       string `db:"service_id" json:"service_id"`
	DurationMinutes *int   `db:"duration_minutes" json:"duration_minutes,omitempty"`
}

// MasterClientNote is the single private note a master keeps per client.
type MasterClientNote struct {
	ID       int64  `db:"id" json:"id"`
	MasterID int64  `db:"master_id" json:"master_id"`
	UserID   int64  `db:"user_id" json:"user_id"`
	Note     string `db:"note" json:"note"`
}
