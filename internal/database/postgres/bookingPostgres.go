package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
)

const bookingColumns = `
	id, camera_id, customer_name, customer_email, customer_chat_id,
	start_date, end_date, rental_status, COALESCE(shipping_status, ''),
	COALESCE(lifecycle_stage, ''), total_price, created_at, updated_at`

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.CameraID,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CustomerChatID,
		&b.StartDate,
		&b.EndDate,
		&b.RentalStatus,
		&b.ShippingStatus,
		&b.LifecycleStage,
		&b.TotalPrice,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*entity.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*entity.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}
	return bookings, nil
}

// nullShipping stores "no shipping yet" as NULL.
func nullShipping(ss entity.ShippingStatus) sql.NullString {
	return sql.NullString{String: string(ss), Valid: ss != entity.ShippingStatusNone}
}

func nullStage(stage string) sql.NullString {
	return sql.NullString{String: stage, Valid: stage != ""}
}

// Create inserts a booking after checking the camera exists, in one transaction
func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cameras WHERE id = $1)`, booking.CameraID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check camera: %w", err)
	}
	if !exists {
		return entity.ErrCameraNotFound
	}

	query := `
		INSERT INTO bookings (
			camera_id, customer_name, customer_email, customer_chat_id,
			start_date, end_date, rental_status, shipping_status, lifecycle_stage,
			total_price, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	now := time.Now()
	err = tx.QueryRowContext(ctx, query,
		booking.CameraID,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerChatID,
		booking.StartDate,
		booking.EndDate,
		booking.RentalStatus,
		nullShipping(booking.ShippingStatus),
		nullStage(booking.LifecycleStage),
		booking.TotalPrice,
		now,
		now,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// GetByID retrieves a booking by its ID
func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// Update rewrites the editable fields. Statuses go through UpdateLifecycle.
func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET customer_name = $1, customer_email = $2, customer_chat_id = $3,
		    start_date = $4, end_date = $5, total_price = $6, updated_at = $7
		WHERE id = $8
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerChatID,
		booking.StartDate,
		booking.EndDate,
		booking.TotalPrice,
		now,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}

	booking.UpdatedAt = now
	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}
	return nil
}

// UpdateLifecycle writes the stage together with its raw status pair
func (r *bookingRepository) UpdateLifecycle(ctx context.Context, id int64, stage string, rs entity.RentalStatus, ss entity.ShippingStatus) error {
	query := `
		UPDATE bookings
		SET lifecycle_stage = $1, rental_status = $2, shipping_status = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query, nullStage(stage), rs, nullShipping(ss), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking lifecycle: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrBookingNotFound
	}
	return nil
}

// BulkUpdateLifecycle moves many bookings to the same stage in a single transaction
func (r *bookingRepository) BulkUpdateLifecycle(ctx context.Context, ids []int64, stage string, rs entity.RentalStatus, ss entity.ShippingStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Build the query with placeholders
	var sb strings.Builder
	sb.WriteString(`UPDATE bookings SET lifecycle_stage = $1, rental_status = $2, shipping_status = $3, updated_at = $4 WHERE id IN (`)
	args := []interface{}{nullStage(stage), rs, nullShipping(ss), time.Now()}
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "$%d", i+5)
		args = append(args, id)
	}
	sb.WriteString(")")

	result, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update booking lifecycle: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return rowsAffected, nil
}

// List returns bookings ordered by start date, optionally for one camera and a date window
func (r *bookingRepository) List(ctx context.Context, q BookingQuery) ([]*entity.Booking, error) {
	var (
		conds []string
		args  []interface{}
	)
	if q.CameraID != 0 {
		args = append(args, q.CameraID)
		conds = append(conds, fmt.Sprintf("camera_id = $%d", len(args)))
	}
	// inclusive overlap: start <= to AND from <= end
	if q.To != nil {
		args = append(args, entity.DateOf(*q.To))
		conds = append(conds, fmt.Sprintf("start_date <= $%d", len(args)))
	}
	if q.From != nil {
		args = append(args, entity.DateOf(*q.From))
		conds = append(conds, fmt.Sprintf("end_date >= $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY start_date ASC, id ASC`

	return r.queryBookings(ctx, query, args...)
}

// GetByCamera returns every booking of a camera; the overlap checker filters statuses itself
func (r *bookingRepository) GetByCamera(ctx context.Context, cameraID int64) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE camera_id = $1 ORDER BY start_date ASC`
	return r.queryBookings(ctx, query, cameraID)
}

// GetStalePending finds pending requests whose start date is already before the cutoff
func (r *bookingRepository) GetStalePending(ctx context.Context, before time.Time, limit int) ([]*entity.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE rental_status = 'pending' AND start_date < $1
		ORDER BY start_date ASC
		LIMIT $2`
	return r.queryBookings(ctx, query, entity.DateOf(before), limit)
}

const reminderQuery = `
	SELECT
		b.id, b.camera_id, c.name, b.customer_name, b.customer_chat_id,
		b.start_date, b.end_date, b.rental_status, COALESCE(b.shipping_status, '')
	FROM bookings b
	JOIN cameras c ON b.camera_id = c.id
`

func (r *bookingRepository) queryReminders(ctx context.Context, query string, args ...interface{}) ([]*entity.BookingReminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*entity.BookingReminder
	for rows.Next() {
		var rm entity.BookingReminder
		err := rows.Scan(
			&rm.BookingID,
			&rm.CameraID,
			&rm.CameraName,
			&rm.CustomerName,
			&rm.CustomerChatID,
			&rm.StartDate,
			&rm.EndDate,
			&rm.RentalStatus,
			&rm.ShippingStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, &rm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}
	return reminders, nil
}

// GetStartingBetween returns confirmed rentals that have not shipped and start in the window
func (r *bookingRepository) GetStartingBetween(ctx context.Context, from, to time.Time) ([]*entity.BookingReminder, error) {
	query := reminderQuery + `
		WHERE b.rental_status = 'confirmed'
		  AND COALESCE(b.shipping_status, '') IN ('', 'ready_to_ship')
		  AND b.start_date BETWEEN $1 AND $2
		ORDER BY b.start_date ASC`
	return r.queryReminders(ctx, query, entity.DateOf(from), entity.DateOf(to))
}

// GetEndingBetween returns active rentals with no return under way that end in the window
func (r *bookingRepository) GetEndingBetween(ctx context.Context, from, to time.Time) ([]*entity.BookingReminder, error) {
	query := reminderQuery + `
		WHERE b.rental_status = 'active'
		  AND COALESCE(b.shipping_status, '') IN ('', 'delivered')
		  AND b.end_date BETWEEN $1 AND $2
		ORDER BY b.end_date ASC`
	return r.queryReminders(ctx, query, entity.DateOf(from), entity.DateOf(to))
}
