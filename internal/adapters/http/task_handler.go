package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/calendar"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/entities"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/domain/query"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/infrastructure/logger"
	"github.com/sergeikutygin1-bot/vibecoding-tasktracker/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// TaskResponse is the single-task envelope.
type TaskResponse struct {
	Task *entities.Task `json:"task"`
}

// TaskListResponse is the list envelope.
type TaskListResponse struct {
	Tasks []*entities.Task `json:"tasks"`
}

// CalendarResponse carries one month of day buckets.
type CalendarResponse struct {
	Year  int                        `json:"year"`
	Month int                        `json:"month"`
	Days  map[string]calendar.Bucket `json:"days"`
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusCreated, TaskResponse{Task: task})
}

// GetTask handles GET /tasks/:id
func (h *TaskHandler) GetTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	task, err := h.taskService.GetTask(c.Request().Context(), userIDFromContext(c), taskID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, TaskResponse{Task: task})
}

// ListTasks handles GET /tasks with the date/search/completed filters
// and sortBy/sortOrder options.
func (h *TaskHandler) ListTasks(c echo.Context) error {
	params, verr := parseQueryParams(c)
	if verr != nil {
		return respondError(c, h.logger, verr)
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), userIDFromContext(c), params)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, TaskListResponse{Tasks: tasks})
}

// UpdateTask handles PATCH /tasks/:id
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), userIDFromContext(c), taskID, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, TaskResponse{Task: task})
}

// ToggleComplete handles POST /tasks/:id/toggle
func (h *TaskHandler) ToggleComplete(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	task, err := h.taskService.ToggleComplete(c.Request().Context(), userIDFromContext(c), taskID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, TaskResponse{Task: task})
}

// DeleteTask handles DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), userIDFromContext(c), taskID); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Calendar handles GET /tasks/calendar, defaulting to the current
// month when year/month are absent.
func (h *TaskHandler) Calendar(c echo.Context) error {
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()

	if v := c.QueryParam("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid year parameter")
		}
		year = y
	}
	if v := c.QueryParam("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid month parameter")
		}
		month = time.Month(m)
	}

	days, err := h.taskService.Calendar(c.Request().Context(), userIDFromContext(c), year, month)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, CalendarResponse{
		Year:  year,
		Month: int(month),
		Days:  days,
	})
}

// parseQueryParams translates the HTTP query string into engine
// params, rejecting malformed values the way the original API's query
// schema did.
func parseQueryParams(c echo.Context) (query.Params, *entities.ValidationError) {
	var params query.Params
	verr := &entities.ValidationError{}

	if v := c.QueryParam("date"); v != "" {
		if !entities.ValidDueDate(v) {
			verr.Add("date", "invalid date format")
		}
		params.Date = &v
	}
	if v := c.QueryParam("search"); v != "" {
		params.Search = &v
	}
	if v := c.QueryParam("completed"); v != "" {
		switch v {
		case "true", "false":
			completed := v == "true"
			params.Completed = &completed
		default:
			verr.Add("completed", "must be true or false")
		}
	}
	if v := c.QueryParam("sortBy"); v != "" {
		field := query.SortField(v)
		if !field.IsValid() {
			verr.Add("sortBy", "must be one of priority, duration, createdAt")
		}
		params.SortBy = field
	}
	if v := c.QueryParam("sortOrder"); v != "" {
		order := query.Order(v)
		if !order.IsValid() {
			verr.Add("sortOrder", "must be asc or desc")
		}
		params.SortOrder = order
	}

	if verr.HasErrors() {
		return query.Params{}, verr
	}
	return params, nil
}

// userIDFromContext returns the authenticated user's id placed in the
// request context by the auth middleware.
func userIDFromContext(c echo.Context) uuid.UUID {
	if id, ok := c.Get("user_id").(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
