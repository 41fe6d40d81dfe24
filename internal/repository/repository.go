package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/vehiclerental/internal/domain"
)

var (
	ErrNotFound = errors.New("booking not found")
	// ErrVehicleBusy is returned when the store itself rejects an overlapping
	// active booking.
	ErrVehicleBusy = errors.New("vehicle already has an active booking for the period")
	// ErrStatusChanged means the row no longer had the expected status when
	// the conditional update ran.
	ErrStatusChanged     = errors.New("booking status changed concurrently")
	ErrReferenceNotFound = errors.New("referenced customer or vehicle does not exist")
)

// OverlapReader answers whether a vehicle has an active booking intersecting
// a period.
type OverlapReader interface {
	HasActiveOverlap(ctx context.Context, vehicleID int64, period domain.Period) (bool, error)
}

// BookingStore is the view of the store available inside a per-vehicle unit
// of work.
type BookingStore interface {
	OverlapReader
	Insert(ctx context.Context, booking *domain.Booking) error
}

// TxFunc runs while the vehicle is locked. Returning an error discards every
// write it made.
type TxFunc func(ctx context.Context, store BookingStore) error

type BookingRepository interface {
	OverlapReader
	WithVehicleLock(ctx context.Context, vehicleID int64, fn TxFunc) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error)
}

// ReferenceRepository checks the customer and vehicle ids a booking points at.
type ReferenceRepository interface {
	CustomerExists(ctx context.Context, id int64) (bool, error)
	VehicleExists(ctx context.Context, id int64) (bool, error)
}
