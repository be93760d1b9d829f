package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/flight-schedule-go/internal/middleware"
	"github.com/jengzang/flight-schedule-go/internal/period"
	"github.com/jengzang/flight-schedule-go/internal/service"
	"github.com/jengzang/flight-schedule-go/pkg/response"
)

// CleaningTaskHandler handles HTTP requests for cleaning tasks
type CleaningTaskHandler struct {
	service *service.CleaningService
}

// NewCleaningTaskHandler creates a new cleaning task handler
func NewCleaningTaskHandler(service *service.CleaningService) *CleaningTaskHandler {
	return &CleaningTaskHandler{service: service}
}

// CreateTaskRequest asks for every period from From through To to be cleaned
type CreateTaskRequest struct {
	From string `json:"from" binding:"required"` // YYYY-MM
	To   string `json:"to" binding:"required"`
}

// CreateTask handles POST /api/v1/admin/cleaning/tasks
func (h *CleaningTaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	from, err := period.Parse(req.From)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	to, err := period.Parse(req.To)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tasks, err := h.service.StartCleaning(from, to, c.GetString(middleware.UserKey))
	if errors.Is(err, service.ErrEmptyRange) {
		response.BadRequest(c, err.Error())
		return
	}
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Failed to create cleaning tasks")
		return
	}

	response.Accepted(c, gin.H{"tasks": tasks})
}

// GetTask handles GET /api/v1/admin/cleaning/tasks/:id
func (h *CleaningTaskHandler) GetTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.service.GetTask(id)
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Failed to get task")
		return
	}
	if task == nil {
		response.NotFound(c, "Task not found")
		return
	}

	response.Success(c, task)
}

// ListTasks handles GET /api/v1/admin/cleaning/tasks
func (h *CleaningTaskHandler) ListTasks(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		offset = 0
	}

	tasks, err := h.service.ListTasks(c.Query("period"), c.Query("status"), limit, offset)
	if err != nil {
		c.Error(err)
		response.InternalError(c, "Failed to list tasks")
		return
	}

	response.Success(c, gin.H{
		"tasks":  tasks,
		"limit":  limit,
		"offset": offset,
	})
}
