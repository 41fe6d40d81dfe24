package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of rental dates.
const DateLayout = "2006-01-02"

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusReturned  BookingStatus = "returned"
)

// IsTerminal reports whether no transition may leave the status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusReturned
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseTargetStatus accepts only statuses a booking can be moved into.
func ParseTargetStatus(s string) (BookingStatus, error) {
	switch status := BookingStatus(s); status {
	case BookingStatusCancelled, BookingStatusReturned:
		return status, nil
	default:
		return "", InvalidInput("Valid 'status' value required (cancelled or returned)")
	}
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Caller is the authenticated identity a request runs as.
type Caller struct {
	Role   Role
	UserID int64
}

type Booking struct {
	ID            int64
	CustomerID    int64
	VehicleID     int64
	RentStartDate time.Time
	RentEndDate   time.Time
	Status        BookingStatus
	CreatedAt     time.Time
}

func (b *Booking) Period() Period {
	return Period{Start: b.RentStartDate, End: b.RentEndDate}
}

// Period is a half-open range of calendar days [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod parses two YYYY-MM-DD dates and requires start < end.
func NewPeriod(start, end string) (Period, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Period{}, InvalidInput(fmt.Sprintf("rent_start_date: %v", err))
	}
	e, err := ParseDate(end)
	if err != nil {
		return Period{}, InvalidInput(fmt.Sprintf("rent_end_date: %v", err))
	}
	p := Period{Start: s, End: e}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if !p.Start.Before(p.End) {
		return InvalidInput("rent_start_date must be before rent_end_date")
	}
	return nil
}

// Overlaps uses half-open semantics: a period ending on day X does not
// overlap one starting on day X.
func (p Period) Overlaps(o Period) bool {
	return p.Start.Before(o.End) && o.Start.Before(p.End)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// TruncateDate drops the clock part so dates read back from storage compare
// equal to parsed ones.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
