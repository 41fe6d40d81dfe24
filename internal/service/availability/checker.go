package availability

import (
	"context"

	"github.com/Domenick1991/vehiclerental/internal/domain"
	"github.com/Domenick1991/vehiclerental/internal/repository"
)

type AvailabilityUseCase interface {
	IsAvailable(ctx context.Context, vehicleID int64, period domain.Period) (bool, error)
	Check(ctx context.Context, vehicleID int64, start, end string) (bool, error)
}

// Checker decides whether a vehicle is free for a period. It never writes;
// the booking service runs it against a transaction-scoped reader so the
// answer holds until the insert commits.
type Checker struct {
	reader repository.OverlapReader
}

func NewChecker(reader repository.OverlapReader) *Checker {
	return &Checker{reader: reader}
}

// IsAvailable returns false iff an active booking on the vehicle overlaps
// [period.Start, period.End).
func (c *Checker) IsAvailable(ctx context.Context, vehicleID int64, period domain.Period) (bool, error) {
	if vehicleID <= 0 {
		return false, domain.InvalidInput("vehicle_id must be positive")
	}
	if err := period.Validate(); err != nil {
		return false, err
	}
	overlap, err := c.reader.HasActiveOverlap(ctx, vehicleID, period)
	if err != nil {
		return false, domain.StorageFailure("failed to check vehicle availability", err)
	}
	return !overlap, nil
}

// Check parses YYYY-MM-DD bounds and delegates to IsAvailable.
func (c *Checker) Check(ctx context.Context, vehicleID int64, start, end string) (bool, error) {
	period, err := domain.NewPeriod(start, end)
	if err != nil {
		return false, err
	}
	return c.IsAvailable(ctx, vehicleID, period)
}

var _ AvailabilityUseCase = (*Checker)(nil)
