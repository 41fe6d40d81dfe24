package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/vehiclerental/internal/domain"
)

// MemoryBookingRepository keeps bookings in process memory. Creation for a
// vehicle is serialized by a per-vehicle mutex held across the whole unit of
// work; a vehicle's mutex is dropped once no caller holds or waits on it. It
// also serves as a ReferenceRepository; with no seeded customers or
// vehicles every id is accepted.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	nextID   int64
	bookings map[int64]domain.Booking

	locksMu sync.Mutex
	locks   map[int64]*vehicleLock

	customers map[int64]struct{}
	vehicles  map[int64]struct{}

	now func() time.Time
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[int64]domain.Booking),
		locks:    make(map[int64]*vehicleLock),
		now:      time.Now,
	}
}

func (r *MemoryBookingRepository) SeedCustomer(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.customers == nil {
		r.customers = make(map[int64]struct{})
	}
	r.customers[id] = struct{}{}
}

func (r *MemoryBookingRepository) SeedVehicle(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vehicles == nil {
		r.vehicles = make(map[int64]struct{})
	}
	r.vehicles[id] = struct{}{}
}

func (r *MemoryBookingRepository) CustomerExists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.customers == nil {
		return true, nil
	}
	_, ok := r.customers[id]
	return ok, nil
}

func (r *MemoryBookingRepository) VehicleExists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.vehicles == nil {
		return true, nil
	}
	_, ok := r.vehicles[id]
	return ok, nil
}

func (r *MemoryBookingRepository) HasActiveOverlap(ctx context.Context, vehicleID int64, period domain.Period) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlapLocked(vehicleID, period), nil
}

func (r *MemoryBookingRepository) WithVehicleLock(ctx context.Context, vehicleID int64, fn TxFunc) error {
	r.lockVehicle(vehicleID)
	defer r.unlockVehicle(vehicleID)

	if err := ctx.Err(); err != nil {
		return err
	}

	store := &memoryTxStore{repo: r}
	if err := fn(ctx, store); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range store.staged {
		r.bookings[b.ID] = b
	}
	return nil
}

func (r *MemoryBookingRepository) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *MemoryBookingRepository) List(_ context.Context) ([]domain.Booking, error) {
	return r.filter(func(domain.Booking) bool { return true }), nil
}

func (r *MemoryBookingRepository) ListByCustomer(_ context.Context, customerID int64) ([]domain.Booking, error) {
	return r.filter(func(b domain.Booking) bool { return b.CustomerID == customerID }), nil
}

func (r *MemoryBookingRepository) UpdateStatus(_ context.Context, id int64, from, to domain.BookingStatus) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != from {
		return nil, ErrStatusChanged
	}
	b.Status = to
	r.bookings[id] = b
	return &b, nil
}

// vehicleLock counts holders and waiters so the entry can be removed when
// the last one leaves.
type vehicleLock struct {
	mu   sync.Mutex
	refs int
}

func (r *MemoryBookingRepository) lockVehicle(vehicleID int64) {
	r.locksMu.Lock()
	lock, ok := r.locks[vehicleID]
	if !ok {
		lock = &vehicleLock{}
		r.locks[vehicleID] = lock
	}
	lock.refs++
	r.locksMu.Unlock()

	lock.mu.Lock()
}

func (r *MemoryBookingRepository) unlockVehicle(vehicleID int64) {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	lock := r.locks[vehicleID]
	lock.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(r.locks, vehicleID)
	}
}

func (r *MemoryBookingRepository) overlapLocked(vehicleID int64, period domain.Period) bool {
	for _, b := range r.bookings {
		if b.VehicleID == vehicleID && b.Status == domain.BookingStatusActive && b.Period().Overlaps(period) {
			return true
		}
	}
	return false
}

func (r *MemoryBookingRepository) filter(keep func(domain.Booking) bool) []domain.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryTxStore struct {
	repo   *MemoryBookingRepository
	staged []domain.Booking
}

func (s *memoryTxStore) HasActiveOverlap(ctx context.Context, vehicleID int64, period domain.Period) (bool, error) {
	overlap, err := s.repo.HasActiveOverlap(ctx, vehicleID, period)
	if err != nil || overlap {
		return overlap, err
	}
	for _, b := range s.staged {
		if b.VehicleID == vehicleID && b.Status == domain.BookingStatusActive && b.Period().Overlaps(period) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryTxStore) Insert(_ context.Context, booking *domain.Booking) error {
	s.repo.mu.Lock()
	s.repo.nextID++
	booking.ID = s.repo.nextID
	booking.CreatedAt = s.repo.now().UTC()
	s.repo.mu.Unlock()

	s.staged = append(s.staged, *booking)
	return nil
}

var (
	_ BookingRepository   = (*MemoryBookingRepository)(nil)
	_ ReferenceRepository = (*MemoryBookingRepository)(nil)
)
