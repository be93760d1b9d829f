package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/flight-schedule-go/internal/models"
	"github.com/jengzang/flight-schedule-go/internal/schedule"
	"github.com/jengzang/flight-schedule-go/pkg/response"
)

// MaxBatchRecords caps the records accepted in one request
const MaxBatchRecords = 200000

// ScheduleHandler exposes the repair engine over HTTP
type ScheduleHandler struct {
	engine *schedule.Engine
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(engine *schedule.Engine) *ScheduleHandler {
	return &ScheduleHandler{engine: engine}
}

// RepairRequest is the body of POST /api/v1/schedule/repair
type RepairRequest struct {
	Records []models.FlightRecord `json:"records"`
}

// NormalizeRequest is the body of POST /api/v1/schedule/normalize
type NormalizeRequest struct {
	Flights []models.CleanFlight `json:"flights"`
}

// Repair handles POST /api/v1/schedule/repair
func (h *ScheduleHandler) Repair(c *gin.Context) {
	var req RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if len(req.Records) > MaxBatchRecords {
		response.BadRequest(c, fmt.Sprintf("At most %d records per request", MaxBatchRecords))
		return
	}

	flights, report, err := h.engine.Repair(c.Request.Context(), req.Records)
	if errors.Is(err, schedule.ErrMalformedBatch) {
		response.Unprocessable(c, err.Error())
		return
	}
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Repair failed")
		return
	}

	response.Success(c, gin.H{
		"flights": flights,
		"report":  report,
	})
}

// Normalize handles POST /api/v1/schedule/normalize
func (h *ScheduleHandler) Normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if len(req.Flights) > MaxBatchRecords {
		response.BadRequest(c, fmt.Sprintf("At most %d flights per request", MaxBatchRecords))
		return
	}
	for i := range req.Flights {
		if req.Flights[i].SchTime <= 0 {
			response.BadRequest(c, fmt.Sprintf("flights[%d]: sch_time must be positive", i))
			return
		}
	}

	flights, report, err := h.engine.Normalize(c.Request.Context(), req.Flights)
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Normalize failed")
		return
	}

	response.Success(c, gin.H{
		"flights": flights,
		"report":  report,
	})
}
