package kafka

import (
	"strconv"
	"time"

	"github.com/Domenick1991/vehiclerental/internal/domain"
	"github.com/google/uuid"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingReturned  = "booking.returned"
)

type BookingEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	BookingID     int64     `json:"booking_id"`
	CustomerID    int64     `json:"customer_id"`
	VehicleID     int64     `json:"vehicle_id"`
	RentStartDate string    `json:"rent_start_date"`
	RentEndDate   string    `json:"rent_end_date"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking) BookingEvent {
	return BookingEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		BookingID:     b.ID,
		CustomerID:    b.CustomerID,
		VehicleID:     b.VehicleID,
		RentStartDate: b.RentStartDate.Format(domain.DateLayout),
		RentEndDate:   b.RentEndDate.Format(domain.DateLayout),
		Status:        string(b.Status),
		OccurredAt:    time.Now().UTC(),
	}
}

// Key partitions events by vehicle so a vehicle's history stays ordered.
func (e BookingEvent) Key() string {
	return strconv.FormatInt(e.VehicleID, 10)
}
