package models

import "time"

// User is a client of the salon, identified externally by the messaging
// platform id and internally by a surrogate key.
type User struct {
	ID         int64     `db:"id" json:"id"`
	TelegramID int64     `db:"telegram_id" json:"telegram_id"`
	Name       string    `db:"name" json:"name"`
	Username   *string   `db:"username" json:"username,omitempty"`
	FirstName  *string   `db:"first_name" json:"first_name,omitempty"`
	LastName   *string   `db:"last_name" json:"last_name,omitempty"`
	Locale     *string   `db:"locale" json:"locale,omitempty"`
	IsAdmin    bool      `db:"is_admin" json:"is_admin"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
