package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Domenick1991/vehiclerental/internal/domain"
	"github.com/Domenick1991/vehiclerental/internal/kafka"
	"github.com/Domenick1991/vehiclerental/internal/repository"
	"github.com/Domenick1991/vehiclerental/internal/service/availability"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const msgVehicleUnavailable = "vehicle not available for requested dates"

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBookings(ctx context.Context, caller domain.Caller) ([]domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string, caller domain.Caller) (*domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	CustomerID    int64  `json:"customer_id" validate:"required,gt=0"`
	VehicleID     int64  `json:"vehicle_id" validate:"required,gt=0"`
	RentStartDate string `json:"rent_start_date" validate:"required,datetime=2006-01-02"`
	RentEndDate   string `json:"rent_end_date" validate:"required,datetime=2006-01-02"`
}

// BookingService is the only writer of booking status. Creation runs the
// availability check and the insert inside one per-vehicle unit of work.
type BookingService struct {
	bookings     repository.BookingRepository
	refs         repository.ReferenceRepository
	producer     Producer
	bookingTopic string
	validate     *validator.Validate
	logger       *zap.Logger
}

type BookingServiceOption func(*BookingService)

// WithEvents publishes lifecycle events to topic. Publishing is best effort.
func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = topic
	}
}

// WithReferences rejects bookings for unknown customers or vehicles.
func WithReferences(refs repository.ReferenceRepository) BookingServiceOption {
	return func(s *BookingService) {
		s.refs = refs
	}
}

func NewBookingService(bookings repository.BookingRepository, logger *zap.Logger, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		bookings: bookings,
		validate: newValidator(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, translateValidationErrors(err)
	}
	period, err := domain.NewPeriod(input.RentStartDate, input.RentEndDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, input); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		CustomerID:    input.CustomerID,
		VehicleID:     input.VehicleID,
		RentStartDate: period.Start,
		RentEndDate:   period.End,
		Status:        domain.BookingStatusActive,
	}

	err = s.bookings.WithVehicleLock(ctx, input.VehicleID, func(ctx context.Context, store repository.BookingStore) error {
		free, err := availability.NewChecker(store).IsAvailable(ctx, input.VehicleID, period)
		if err != nil {
			return err
		}
		if !free {
			return domain.Conflict(msgVehicleUnavailable)
		}
		return store.Insert(ctx, booking)
	})
	if err != nil {
		err = translateCreateError(err)
		if domain.KindOf(err) == domain.KindStorageFailure {
			s.logger.Error("failed to create booking",
				zap.Int64("vehicle_id", input.VehicleID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("vehicle_id", booking.VehicleID),
		zap.Int64("customer_id", booking.CustomerID),
	)
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// GetBookings returns every booking to admins and only their own to
// customers. No match yields an empty slice.
func (s *BookingService) GetBookings(ctx context.Context, caller domain.Caller) ([]domain.Booking, error) {
	var (
		bookings []domain.Booking
		err      error
	)
	switch caller.Role {
	case domain.RoleAdmin:
		bookings, err = s.bookings.List(ctx)
	case domain.RoleCustomer:
		bookings, err = s.bookings.ListByCustomer(ctx, caller.UserID)
	default:
		return nil, domain.Forbidden(fmt.Sprintf("unknown role %q", caller.Role))
	}
	if err != nil {
		return nil, domain.StorageFailure("failed to retrieve bookings", err)
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID int64, status string, caller domain.Caller) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("booking not found")
		}
		return nil, domain.StorageFailure("failed to retrieve booking", err)
	}

	target, err := domain.ParseTargetStatus(status)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(current, target, caller); err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, domain.InvalidTransition(fmt.Sprintf("booking is already %s", current.Status))
	}

	updated, err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingStatusActive, target)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, domain.InvalidTransition("booking is no longer active")
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.NotFound("booking not found")
		default:
			return nil, domain.StorageFailure("failed to update booking status", err)
		}
	}

	s.logger.Info("booking status updated",
		zap.Int64("booking_id", updated.ID),
		zap.String("status", updated.Status.String()),
		zap.String("role", string(caller.Role)),
	)
	eventType := kafka.EventBookingCancelled
	if target == domain.BookingStatusReturned {
		eventType = kafka.EventBookingReturned
	}
	s.publish(ctx, eventType, updated)
	return updated, nil
}

// authorizeTransition: only admins return vehicles, and only the owning
// customer cancels.
func authorizeTransition(b *domain.Booking, target domain.BookingStatus, caller domain.Caller) error {
	switch target {
	case domain.BookingStatusReturned:
		if caller.Role != domain.RoleAdmin {
			return domain.Forbidden("Customers cannot mark bookings as returned")
		}
	case domain.BookingStatusCancelled:
		if caller.Role != domain.RoleCustomer {
			return domain.Forbidden("Admins cannot cancel bookings")
		}
		if caller.UserID != b.CustomerID {
			return domain.Forbidden("You can only cancel your own bookings")
		}
	}
	return nil
}

func (s *BookingService) checkReferences(ctx context.Context, input CreateBookingInput) error {
	if s.refs == nil {
		return nil
	}
	ok, err := s.refs.CustomerExists(ctx, input.CustomerID)
	if err != nil {
		return domain.StorageFailure("failed to check customer", err)
	}
	if !ok {
		return domain.NotFound("customer not found")
	}
	ok, err = s.refs.VehicleExists(ctx, input.VehicleID)
	if err != nil {
		return domain.StorageFailure("failed to check vehicle", err)
	}
	if !ok {
		return domain.NotFound("vehicle not found")
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, booking)
	if err := s.producer.Publish(ctx, s.bookingTopic, event.Key(), event); err != nil {
		s.logger.Warn("failed to publish booking event",
			zap.String("type", eventType),
			zap.Int64("booking_id", booking.ID),
			zap.Error(err),
		)
	}
}

func translateCreateError(err error) error {
	switch {
	case domain.KindOf(err) != "":
		return err
	case errors.Is(err, repository.ErrVehicleBusy):
		return domain.Conflict(msgVehicleUnavailable)
	case errors.Is(err, repository.ErrReferenceNotFound):
		return domain.NotFound("customer or vehicle not found")
	default:
		return domain.StorageFailure("failed to create booking", err)
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func translateValidationErrors(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return domain.InvalidInput(err.Error())
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be positive", fe.Field()))
		case "datetime":
			messages = append(messages, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return domain.InvalidInput(strings.Join(messages, "; "))
}

var _ BookingUseCase = (*BookingService)(nil)
