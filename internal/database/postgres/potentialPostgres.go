package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
)

type potentialBookingRepository struct {
	db *sql.DB
}

func NewPotentialBookingRepository(db *sql.DB) PotentialBookingRepository {
	return &potentialBookingRepository{db: db}
}

func (r *potentialBookingRepository) Create(ctx context.Context, pb *entity.PotentialBooking) error {
	query := `
		INSERT INTO potential_bookings (camera_id, customer_name, start_date, end_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		pb.CameraID,
		pb.CustomerName,
		pb.StartDate,
		pb.EndDate,
		pb.Notes,
		now,
	).Scan(&pb.ID)
	if err != nil {
		return fmt.Errorf("failed to create potential booking: %w", err)
	}

	pb.CreatedAt = now
	return nil
}

func (r *potentialBookingRepository) GetByID(ctx context.Context, id int64) (*entity.PotentialBooking, error) {
	query := `
		SELECT id, camera_id, customer_name, start_date, end_date, notes, created_at
		FROM potential_bookings
		WHERE id = $1
	`

	var pb entity.PotentialBooking
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&pb.ID,
		&pb.CameraID,
		&pb.CustomerName,
		&pb.StartDate,
		&pb.EndDate,
		&pb.Notes,
		&pb.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrPotentialBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get potential booking: %w", err)
	}
	return &pb, nil
}

func (r *potentialBookingRepository) GetAll(ctx context.Context) ([]*entity.PotentialBooking, error) {
	query := `
		SELECT id, camera_id, customer_name, start_date, end_date, notes, created_at
		FROM potential_bookings
		ORDER BY start_date ASC
	`
	return r.query(ctx, query)
}

func (r *potentialBookingRepository) GetByCamera(ctx context.Context, cameraID int64) ([]*entity.PotentialBooking, error) {
	query := `
		SELECT id, camera_id, customer_name, start_date, end_date, notes, created_at
		FROM potential_bookings
		WHERE camera_id = $1
		ORDER BY start_date ASC
	`
	return r.query(ctx, query, cameraID)
}

func (r *potentialBookingRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.PotentialBooking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query potential bookings: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.PotentialBooking, 0)
	for rows.Next() {
		var pb entity.PotentialBooking
		err := rows.Scan(
			&pb.ID,
			&pb.CameraID,
			&pb.CustomerName,
			&pb.StartDate,
			&pb.EndDate,
			&pb.Notes,
			&pb.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan potential booking: %w", err)
		}
		list = append(list, &pb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating potential bookings: %w", err)
	}
	return list, nil
}

func (r *potentialBookingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM potential_bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete potential booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrPotentialBookingNotFound
	}
	return nil
}
