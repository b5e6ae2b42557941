package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/camera-rental/config"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{"host": cfg.Host, "db": cfg.DBName}).Info("Successfully connected to PostgreSQL")
	return db, nil
}

// Migrations are applied in order on every start; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS cameras (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		brand VARCHAR(100) NOT NULL DEFAULT '',
		daily_rate NUMERIC(10,2) NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id SERIAL PRIMARY KEY,
		camera_id INTEGER NOT NULL REFERENCES cameras(id),
		customer_name VARCHAR(255) NOT NULL,
		customer_email VARCHAR(255) NOT NULL DEFAULT '',
		customer_chat_id VARCHAR(100) NOT NULL DEFAULT '',
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		rental_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		shipping_status VARCHAR(30),
		total_price NUMERIC(10,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK (start_date <= end_date)
	)`,

	// rows created before the stage column keep NULL and derive their stage
	`ALTER TABLE bookings ADD COLUMN IF NOT EXISTS lifecycle_stage VARCHAR(30)`,

	`CREATE TABLE IF NOT EXISTS potential_bookings (
		id SERIAL PRIMARY KEY,
		camera_id INTEGER NOT NULL REFERENCES cameras(id),
		customer_name VARCHAR(255) NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK (start_date <= end_date)
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_bookings_camera_id ON bookings(camera_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_rental_status ON bookings(rental_status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_camera_dates ON bookings(camera_id, start_date, end_date)`,
	`CREATE INDEX IF NOT EXISTS idx_potential_bookings_camera_id ON potential_bookings(camera_id)`,
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", i, err)
		}
	}

	logrus.WithField("count", len(migrations)).Info("Database migrations completed successfully")
	return nil
}
