package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version int
	sql     string
}

// Migrate applies pending schema migrations. Safe to run on every boot.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := runMigration(db, m); err != nil {
			return err
		}
	}
	return nil
}

func runMigration(db *sqlx.DB, m migration) error {
	var exists bool
	err := db.Get(&exists,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
		m.version,
	)
	if err != nil {
		return fmt.Errorf("failed to check migration %d: %w", m.version, err)
	}
	if exists {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
	}
	if _, err := tx.Exec(m.sql); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to run migration %d: %w", m.version, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}
	return tx.Commit()
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE EXTENSION IF NOT EXISTS btree_gist;

			CREATE TYPE booking_status AS ENUM (
				'reserved', 'pending_payment', 'confirmed', 'paid',
				'cancelled', 'done', 'no_show', 'expired'
			);

			CREATE TABLE users (
				id BIGSERIAL PRIMARY KEY,
				telegram_id BIGINT NOT NULL UNIQUE,
				name VARCHAR(120) NOT NULL,
				username VARCHAR(64),
				first_name VARCHAR(120),
				last_name VARCHAR(120),
				locale VARCHAR(8),
				is_admin BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE masters (
				id BIGSERIAL PRIMARY KEY,
				telegram_id BIGINT UNIQUE,
				name VARCHAR(120) NOT NULL,
				bio TEXT,
				profile JSONB,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE services (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(200) NOT NULL,
				category VARCHAR(100),
				description TEXT,
				price_cents BIGINT,
				duration_minutes INTEGER,
				created_at TIMESTAMPTZ
			);

			CREATE TABLE master_services (
				master_id BIGINT NOT NULL REFERENCES masters(id) ON DELETE CASCADE,
				service_id VARCHAR(64) NOT NULL REFERENCES services(id) ON DELETE CASCADE,
				duration_minutes INTEGER,
				PRIMARY KEY (master_id, service_id)
			);

			CREATE TABLE master_schedules (
				id BIGSERIAL PRIMARY KEY,
				master_id BIGINT NOT NULL REFERENCES masters(id) ON DELETE CASCADE,
				day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
				start_time VARCHAR(5) NOT NULL,
				end_time VARCHAR(5) NOT NULL
			);
			CREATE INDEX idx_master_schedules_master_day
				ON master_schedules(master_id, day_of_week);

			CREATE TABLE master_schedule_exceptions (
				id BIGSERIAL PRIMARY KEY,
				master_id BIGINT NOT NULL REFERENCES masters(id) ON DELETE CASCADE,
				date DATE NOT NULL,
				start_time VARCHAR(5) NOT NULL DEFAULT '00:00',
				end_time VARCHAR(5) NOT NULL DEFAULT '00:00',
				is_off BOOLEAN NOT NULL DEFAULT FALSE,
				reason TEXT
			);
			CREATE INDEX idx_schedule_exceptions_master_date
				ON master_schedule_exceptions(master_id, date);

			CREATE TABLE bookings (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id),
				master_id BIGINT NOT NULL REFERENCES masters(id),
				status booking_status NOT NULL DEFAULT 'reserved',
				starts_at TIMESTAMPTZ NOT NULL,
				ends_at TIMESTAMPTZ,
				original_price_cents BIGINT,
				final_price_cents BIGINT,
				discount_applied VARCHAR(64),
				cash_hold_expires_at TIMESTAMPTZ,
				paid_at TIMESTAMPTZ,
				payment_provider VARCHAR(32),
				payment_id VARCHAR(64),
				last_reminder_sent_at TIMESTAMPTZ,
				last_reminder_lead_minutes INTEGER,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CHECK (ends_at IS NULL OR ends_at > starts_at)
			);
			CREATE INDEX idx_bookings_starts_at ON bookings(starts_at);
			CREATE INDEX idx_bookings_user_id ON bookings(user_id);
			CREATE INDEX idx_bookings_master_starts ON bookings(master_id, starts_at);

			ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
				EXCLUDE USING gist (
					master_id WITH =,
					tstzrange(starts_at, ends_at) WITH &&
				)
				WHERE (status IN ('reserved', 'pending_payment', 'confirmed', 'paid')
					AND ends_at IS NOT NULL);

			CREATE TABLE booking_items (
				id BIGSERIAL PRIMARY KEY,
				booking_id BIGINT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
				service_id VARCHAR(64) NOT NULL REFERENCES services(id),
				position INTEGER NOT NULL DEFAULT 0,
				price_cents BIGINT NOT NULL DEFAULT 0
			);
			CREATE INDEX idx_booking_items_booking ON booking_items(booking_id);

			CREATE TABLE booking_status_history (
				id BIGSERIAL PRIMARY KEY,
				booking_id BIGINT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
				old_status booking_status,
				new_status booking_status NOT NULL,
				changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX idx_status_history_booking ON booking_status_history(booking_id);

			CREATE TABLE booking_ratings (
				id BIGSERIAL PRIMARY KEY,
				booking_id BIGINT NOT NULL UNIQUE REFERENCES bookings(id) ON DELETE CASCADE,
				rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
				comment TEXT
			);

			CREATE TABLE master_client_notes (
				id BIGSERIAL PRIMARY KEY,
				master_id BIGINT NOT NULL REFERENCES masters(id) ON DELETE CASCADE,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				note TEXT NOT NULL,
				UNIQUE (master_id, user_id)
			);

			CREATE TABLE settings (
				id BIGSERIAL PRIMARY KEY,
				key VARCHAR(120) NOT NULL UNIQUE,
				value VARCHAR(400) NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
}
