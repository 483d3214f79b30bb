package postgres

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	apperrors "kinact/internal/errors"
)

// Connect opens a PostgreSQL connection pool and applies the run schema.
func Connect(databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, apperrors.ConfigInvalid("database URL is empty")
	}
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, apperrors.DatabaseError(err.Error())
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(Schema()); err != nil {
		db.Close()
		return nil, apperrors.DatabaseError(err.Error())
	}
	log.Printf("[Postgres] Connected and schema applied")
	return db, nil
}
