package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitehive/backend/internal/models"
)

const bookingColumns = `id, venue_id, user_id, party_size, booked_for, status, COALESCE(note,''), created_at, updated_at`

// Repository handles booking persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a bookings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new pending booking.
func (r *Repository) Create(ctx context.Context, b *models.Booking) error {
	const q = `INSERT INTO bookings (id, venue_id, user_id, party_size, booked_for, status, note)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, 'pending', NULLIF($5,''))
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, b.VenueID, b.UserID, b.PartySize, b.BookedFor, b.Note).
		Scan(&b.ID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID returns a booking by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	var b models.Booking
	err := r.pool.QueryRow(ctx, q, id).Scan(&b.ID, &b.VenueID, &b.UserID, &b.PartySize, &b.BookedFor, &b.Status, &b.Note, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByUser returns a user's bookings, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY booked_for DESC`
	return r.list(ctx, q, userID)
}

// ListByVenue returns a venue's bookings for a day, ordered by time.
func (r *Repository) ListByVenue(ctx context.Context, venueID uuid.UUID, day time.Time) ([]models.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
		WHERE venue_id = $1 AND booked_for >= $2 AND booked_for < $3 ORDER BY booked_for`
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return r.list(ctx, q, venueID, start, start.AddDate(0, 0, 1))
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.Booking, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.VenueID, &b.UserID, &b.PartySize, &b.BookedFor, &b.Status, &b.Note, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// SetStatus updates a booking's status guarded by the current status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error) {
	const q = `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	tag, err := r.pool.Exec(ctx, q, string(to), id, string(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
