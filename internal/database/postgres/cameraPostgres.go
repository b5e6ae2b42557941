package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
)

type cameraRepository struct {
	db *sql.DB
}

func NewCameraRepository(db *sql.DB) CameraRepository {
	return &cameraRepository{db: db}
}

func (r *cameraRepository) Create(ctx context.Context, camera *entity.Camera) error {
	query := `
		INSERT INTO cameras (name, brand, daily_rate, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		camera.Name,
		camera.Brand,
		camera.DailyRate,
		camera.Active,
		now,
		now,
	).Scan(&camera.ID)
	if err != nil {
		return fmt.Errorf("failed to create camera: %w", err)
	}

	camera.CreatedAt = now
	camera.UpdatedAt = now
	return nil
}

func (r *cameraRepository) GetByID(ctx context.Context, id int64) (*entity.Camera, error) {
	query := `
		SELECT id, name, brand, daily_rate, active, created_at, updated_at
		FROM cameras
		WHERE id = $1
	`

	var camera entity.Camera
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&camera.ID,
		&camera.Name,
		&camera.Brand,
		&camera.DailyRate,
		&camera.Active,
		&camera.CreatedAt,
		&camera.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrCameraNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get camera: %w", err)
	}
	return &camera, nil
}

func (r *cameraRepository) GetAll(ctx context.Context) ([]*entity.Camera, error) {
	query := `
		SELECT id, name, brand, daily_rate, active, created_at, updated_at
		FROM cameras
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cameras: %w", err)
	}
	defer rows.Close()

	cameras := make([]*entity.Camera, 0)
	for rows.Next() {
		var camera entity.Camera
		err := rows.Scan(
			&camera.ID,
			&camera.Name,
			&camera.Brand,
			&camera.DailyRate,
			&camera.Active,
			&camera.CreatedAt,
			&camera.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		cameras = append(cameras, &camera)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cameras: %w", err)
	}
	return cameras, nil
}

func (r *cameraRepository) Update(ctx context.Context, camera *entity.Camera) error {
	query := `
		UPDATE cameras
		SET name = $1, brand = $2, daily_rate = $3, active = $4, updated_at = $5
		WHERE id = $6
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		camera.Name,
		camera.Brand,
		camera.DailyRate,
		camera.Active,
		now,
		camera.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update camera: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrCameraNotFound
	}

	camera.UpdatedAt = now
	return nil
}
