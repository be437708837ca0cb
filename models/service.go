package models

import "time"

// Service is a bookable salon service. Price is in minor currency units.
type Service struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Category        *string    `db:"category" json:"category,omitempty"`
	Description     *string    `db:"description" json:"description,omitempty"`
	PriceCents      *int64     `db:"price_cents" json:"price_cents,omitempty"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
	CreatedAt       *time.Time `db:"created_at" json:"created_at,omitempty"`
}
