package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/echoapp/echo/store"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func convertTask(task *store.Task) *taskResponse {
	return &taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func (s *APIV1Service) CreateTask(c echo.Context) error {
	request := &createTaskRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if err := validateTitle(request.Title); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task := &store.Task{
		ID:          uuid.New().String(),
		Title:       request.Title,
		Description: request.Description,
		Status:      store.TaskStatusTodo,
		Priority:    store.TaskPriorityMedium,
		DueDate:     request.DueDate,
	}
	if request.Status != nil {
		status := store.TaskStatus(*request.Status)
		if !status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		task.Status = status
		if status == store.TaskStatusCompleted {
			now := time.Now().UTC()
			task.CompletedAt = &now
		}
	}
	if request.Priority != nil {
		priority := store.TaskPriority(*request.Priority)
		if !priority.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid priority")
		}
		task.Priority = priority
	}

	created, err := s.Store.CreateTask(c.Request().Context(), task)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create task").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertTask(created))
}

func (s *APIV1Service) ListTasks(c echo.Context) error {
	find := &store.FindTask{}

	if status := c.QueryParam("status"); status != "" {
		typed := store.TaskStatus(status)
		if !typed.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		find.Status = &typed
	}
	if priority := c.QueryParam("priority"); priority != "" {
		typed := store.TaskPriority(priority)
		if !typed.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid priority")
		}
		find.Priority = &typed
	}
	limit, offset, err := parsePagination(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	find.Limit, find.Offset = limit, offset

	tasks, err := s.Store.ListTasks(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tasks").SetInternal(err)
	}

	response := make([]*taskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, convertTask(task))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) GetTask(c echo.Context) error {
	task, err := s.Store.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get task").SetInternal(err)
	}
	if task == nil {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

func (s *APIV1Service) UpdateTask(c echo.Context) error {
	request := &updateTaskRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	update := &store.UpdateTask{
		ID:          c.Param("id"),
		Title:       request.Title,
		Description: request.Description,
		DueDate:     request.DueDate,
	}
	if request.Title != nil {
		if err := validateTitle(*request.Title); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if request.Status != nil {
		status := store.TaskStatus(*request.Status)
		if !status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		update.Status = &status
	}
	if request.Priority != nil {
		priority := store.TaskPriority(*request.Priority)
		if !priority.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid priority")
		}
		update.Priority = &priority
	}

	task, err := s.Store.UpdateTask(c.Request().Context(), update)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "task not found").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

func (s *APIV1Service) DeleteTask(c echo.Context) error {
	if err := s.Store.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "task not found").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) GetTaskStatistics(c echo.Context) error {
	stats, err := s.Store.GetTaskStatistics(c.Request().Context(), time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get task statistics").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]int{
		"total":     stats.Total,
		"completed": stats.Completed,
		"pending":   stats.Pending,
		"overdue":   stats.Overdue,
	})
}
