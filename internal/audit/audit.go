package audit

import (
	"context"

	"github.com/Domenick1991/vehiclerental/internal/kafka"
	"go.uber.org/zap"
)

// Recorder writes one structured audit record per booking lifecycle event.
type Recorder struct {
	logger *zap.Logger
}

func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger.Named("audit")}
}

// Record ignores event types it does not know and skips events that carry no
// booking id. Malformed events are never retried.
func (r *Recorder) Record(_ context.Context, event kafka.BookingEvent) error {
	switch event.Type {
	case kafka.EventBookingCreated, kafka.EventBookingCancelled, kafka.EventBookingReturned:
	default:
		r.logger.Debug("ignoring unknown booking event type", zap.String("type", event.Type))
		return nil
	}
	if event.BookingID <= 0 {
		r.logger.Warn("skipping booking event without booking id",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
		)
		return nil
	}

	r.logger.Info("booking event",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.Int64("booking_id", event.BookingID),
		zap.Int64("customer_id", event.CustomerID),
		zap.Int64("vehicle_id", event.VehicleID),
		zap.String("rent_start_date", event.RentStartDate),
		zap.String("rent_end_date", event.RentEndDate),
		zap.String("status", event.Status),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}
