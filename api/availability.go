package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/vehiclerental/internal/domain"
	"github.com/Domenick1991/vehiclerental/internal/service/availability"
	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	service availability.AvailabilityUseCase
}

type availabilityResponse struct {
	VehicleID int64  `json:"vehicle_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

func NewAvailabilityHandler(service availability.AvailabilityUseCase) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

func (h *AvailabilityHandler) Register(router *gin.RouterGroup) {
	router.GET("/:vehicleId/availability", h.check)
}

func (h *AvailabilityHandler) check(c *gin.Context) {
	vehicleID, err := strconv.ParseInt(c.Param("vehicleId"), 10, 64)
	if err != nil {
		respondError(c, domain.InvalidInput("vehicleId must be a positive integer"))
		return
	}
	start, end := c.Query("start"), c.Query("end")

	free, err := h.service.Check(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Vehicle is available for the requested dates"
	if !free {
		message = "Vehicle is not available for the requested dates"
	}
	respond(c, http.StatusOK, message, availabilityResponse{
		VehicleID: vehicleID,
		Start:     start,
		End:       end,
		Available: free,
	})
}
