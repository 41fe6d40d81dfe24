package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/vehiclerental/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
)

const bookingColumns = `id, customer_id, vehicle_id, rent_start_date, rent_end_date, status, created_at`

const overlapQuery = `SELECT EXISTS (
	SELECT 1 FROM bookings
	WHERE vehicle_id = $1
	  AND status = 'active'
	  AND rent_start_date < $3
	  AND $2 < rent_end_date)`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) HasActiveOverlap(ctx context.Context, vehicleID int64, period domain.Period) (bool, error) {
	return hasActiveOverlap(ctx, r.db, vehicleID, period)
}

// WithVehicleLock runs fn in a transaction holding a transaction-scoped
// advisory lock keyed by the vehicle id, so check-then-insert sequences for
// one vehicle never interleave.
func (r *PGBookingRepository) WithVehicleLock(ctx context.Context, vehicleID int64, fn TxFunc) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, vehicleID); err != nil {
		return fmt.Errorf("lock vehicle %d: %w", vehicleID, err)
	}

	if err := fn(ctx, &pgTxStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	return queryBookings(ctx, r.db, `SELECT `+bookingColumns+` FROM bookings ORDER BY id`)
}

func (r *PGBookingRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error) {
	return queryBookings(ctx, r.db, `SELECT `+bookingColumns+` FROM bookings WHERE customer_id=$1 ORDER BY id`, customerID)
}

// UpdateStatus moves the booking to `to` only if it is still in `from`.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1 WHERE id=$2 AND status=$3 RETURNING `+bookingColumns, to, id, from)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, err
	}
	return b, nil
}

type pgTxStore struct {
	tx pgx.Tx
}

func (s *pgTxStore) HasActiveOverlap(ctx context.Context, vehicleID int64, period domain.Period) (bool, error) {
	return hasActiveOverlap(ctx, s.tx, vehicleID, period)
}

func (s *pgTxStore) Insert(ctx context.Context, booking *domain.Booking) error {
	err := s.tx.QueryRow(ctx, `INSERT INTO bookings (customer_id, vehicle_id, rent_start_date, rent_end_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		booking.CustomerID, booking.VehicleID, booking.RentStartDate, booking.RentEndDate, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func hasActiveOverlap(ctx context.Context, q querier, vehicleID int64, period domain.Period) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, overlapQuery, vehicleID, period.Start, period.End).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func queryBookings(ctx context.Context, q querier, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.CustomerID, &b.VehicleID, &b.RentStartDate, &b.RentEndDate, &b.Status, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.RentStartDate = domain.TruncateDate(b.RentStartDate)
	b.RentEndDate = domain.TruncateDate(b.RentEndDate)
	return &b, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return ErrVehicleBusy
		case pgForeignKeyViolation:
			return ErrReferenceNotFound
		}
	}
	return err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
