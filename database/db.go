package database

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"salonbook/config"
)

// DB is the global Postgres connection pool.
var DB *sqlx.DB

// InitDB initializes the Postgres connection and bootstraps the schema.
func InitDB() {
	db, err := sqlx.Connect("postgres", config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to migrate database schema: %v", err)
	}

	DB = db
	log.Println("Connected to Postgres successfully!")
}

// GetDB returns the global connection pool.
func GetDB() *sqlx.DB {
	if DB == nil {
		InitDB()
	}
	return DB
}
