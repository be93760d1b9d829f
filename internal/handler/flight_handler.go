package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/flight-schedule-go/internal/models"
	"github.com/jengzang/flight-schedule-go/pkg/response"
)

// FlightLister lists stored cleaned flights
type FlightLister interface {
	List(filter models.FlightFilter) ([]models.CleanFlight, int64, error)
}

// FlightHandler handles HTTP requests for cleaned flights
type FlightHandler struct {
	flights FlightLister
}

// NewFlightHandler creates a new flight handler
func NewFlightHandler(flights FlightLister) *FlightHandler {
	return &FlightHandler{flights: flights}
}

// ListFlights handles GET /api/v1/flights
func (h *FlightHandler) ListFlights(c *gin.Context) {
	var filter models.FlightFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	flights, total, err := h.flights.List(filter)
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Failed to get flights")
		return
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	response.Success(c, response.Page{
		Items:    flights,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}
