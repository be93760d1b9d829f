package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/flight-schedule-go/internal/models"
	"github.com/jengzang/flight-schedule-go/pkg/response"
)

// DistanceLister lists stored route distances
type DistanceLister interface {
	List(origin, dest int64) ([]models.RouteDistance, error)
}

// DistanceHandler handles HTTP requests for the route distance table
type DistanceHandler struct {
	distances DistanceLister
}

// NewDistanceHandler creates a new distance handler
func NewDistanceHandler(distances DistanceLister) *DistanceHandler {
	return &DistanceHandler{distances: distances}
}

// ListDistances handles GET /api/v1/routes/distances
func (h *DistanceHandler) ListDistances(c *gin.Context) {
	origin, err := optionalID(c.Query("origin"))
	if err != nil {
		response.BadRequest(c, "Invalid origin airport ID")
		return
	}
	dest, err := optionalID(c.Query("dest"))
	if err != nil {
		response.BadRequest(c, "Invalid destination airport ID")
		return
	}

	distances, err := h.distances.List(origin, dest)
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Failed to get route distances")
		return
	}

	response.Success(c, distances)
}

func optionalID(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
