package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/vehiclerental/internal/domain"
	"github.com/Domenick1991/vehiclerental/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	CustomerID    int64  `json:"customer_id"`
	VehicleID     int64  `json:"vehicle_id"`
	RentStartDate string `json:"rent_start_date"`
	RentEndDate   string `json:"rent_end_date"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

type bookingResponse struct {
	ID            int64  `json:"id"`
	CustomerID    int64  `json:"customer_id"`
	VehicleID     int64  `json:"vehicle_id"`
	RentStartDate string `json:"rent_start_date"`
	RentEndDate   string `json:"rent_end_date"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:            b.ID,
		CustomerID:    b.CustomerID,
		VehicleID:     b.VehicleID,
		RentStartDate: b.RentStartDate.Format(domain.DateLayout),
		RentEndDate:   b.RentEndDate.Format(domain.DateLayout),
		Status:        b.Status.String(),
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register mounts the booking routes. createMiddleware runs only in front of
// creation (idempotency).
func (h *BookingHandler) Register(router *gin.RouterGroup, createMiddleware ...gin.HandlerFunc) {
	router.POST("", append(createMiddleware, h.create)...)
	router.GET("", h.list)
	router.PUT("/:bookingId", h.updateStatus)
}

func (h *BookingHandler) create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.InvalidInput("Request body must be a JSON object with customer_id, vehicle_id, rent_start_date and rent_end_date"))
		return
	}

	if caller.Role == domain.RoleCustomer {
		if req.CustomerID == 0 {
			req.CustomerID = caller.UserID
		}
		if req.CustomerID != caller.UserID {
			respondError(c, domain.Forbidden("Customers can only create bookings for themselves"))
			return
		}
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		CustomerID:    req.CustomerID,
		VehicleID:     req.VehicleID,
		RentStartDate: req.RentStartDate,
		RentEndDate:   req.RentEndDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Booking created successfully", toBookingResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}

	bookings, err := h.service.GetBookings(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		data = append(data, toBookingResponse(&bookings[i]))
	}

	admin := caller.Role == domain.RoleAdmin
	var message string
	switch {
	case len(data) == 0 && admin:
		message = "No bookings found in the system"
	case len(data) == 0:
		message = "You have no previous bookings"
	case admin:
		message = "Bookings retrieved successfully"
	default:
		message = "Your bookings retrieved successfully"
	}
	// data is always present, even when empty.
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": data})
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}

	bookingID, err := strconv.ParseInt(c.Param("bookingId"), 10, 64)
	if err != nil || bookingID <= 0 {
		respondError(c, domain.InvalidInput("bookingId must be a positive integer"))
		return
	}

	var req updateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.InvalidInput("Valid 'status' value required (cancelled or returned)"))
		return
	}

	updated, err := h.service.UpdateBookingStatus(c.Request.Context(), bookingID, req.Status, caller)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Booking cancelled successfully"
	if updated.Status == domain.BookingStatusReturned {
		message = "Booking marked as returned. Vehicle is now available"
	}
	respond(c, http.StatusOK, message, toBookingResponse(updated))
}
