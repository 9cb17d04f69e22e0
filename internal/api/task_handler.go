package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/teamroom/internal/model"
	"github.com/yakoovad/teamroom/internal/service"
	"github.com/yakoovad/teamroom/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) CreateTask(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		TeamID     string     `json:"team_id" validate:"required,uuid"`
		Name       string     `json:"task_name" validate:"required"`
		Text       string     `json:"task_text" validate:"required"`
		ExecutorID *string    `json:"executor" validate:"omitempty,uuid"`
		Priority   string     `json:"priority" validate:"required"`
		Difficulty string     `json:"difficulty" validate:"required"`
		Status     string     `json:"status"`
		Deadline   *time.Time `json:"task_deadline_date"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	authorID := UserIDFromContext(e)

	taskID, err := h.tasks.CreateTask(e.Request().Context(), authorID, &service.CreateTaskInput{
		TeamID:     req.TeamID,
		Name:       req.Name,
		Text:       req.Text,
		ExecutorID: req.ExecutorID,
		Priority:   model.Priority(req.Priority),
		Difficulty: model.Difficulty(req.Difficulty),
		Status:     model.Status(req.Status),
		Deadline:   req.Deadline,
	})
	if err != nil {
		l.Error("failed to create task", zap.String("team_id", req.TeamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, echo.Map{"task_id": taskID})
}

func (h *Handler) UpdateTask(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	taskID := e.Param("task_id")

	var req struct {
		Name       *string    `json:"task_name"`
		Text       *string    `json:"task_text"`
		ExecutorID *string    `json:"executor" validate:"omitempty,uuid"`
		Priority   *string    `json:"priority"`
		Difficulty *string    `json:"difficulty"`
		Status     *string    `json:"status"`
		Deadline   *time.Time `json:"task_deadline_date"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	actorID := UserIDFromContext(e)

	input := &service.UpdateTaskInput{
		Name:       req.Name,
		Text:       req.Text,
		ExecutorID: req.ExecutorID,
		Deadline:   req.Deadline,
	}
	if req.Priority != nil {
		input.Priority = (*model.Priority)(req.Priority)
	}
	if req.Difficulty != nil {
		input.Difficulty = (*model.Difficulty)(req.Difficulty)
	}
	if req.Status != nil {
		input.Status = (*model.Status)(req.Status)
	}

	updatedID, err := h.tasks.UpdateTask(e.Request().Context(), actorID, taskID, input)
	if err != nil {
		l.Error("failed to update task", zap.String("task_id", taskID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"task_id": updatedID})
}

func (h *Handler) DeleteTask(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	taskID := e.Param("task_id")
	actorID := UserIDFromContext(e)

	if err := h.tasks.DeleteTask(e.Request().Context(), actorID, taskID); err != nil {
		l.Error("failed to delete task", zap.String("task_id", taskID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) CompleteTask(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	taskID := e.Param("task_id")
	executorID := UserIDFromContext(e)

	if err := h.tasks.CompleteTask(e.Request().Context(), executorID, taskID); err != nil {
		l.Error("failed to complete task", zap.String("task_id", taskID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"task_id": taskID})
}

func (h *Handler) GetTeamTasks(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("team_id")
	inspectorID := UserIDFromContext(e)

	completed, days, serviceErr := taskQueryParams(e)
	if serviceErr != nil {
		return h.transportError(e, serviceErr)
	}

	tasks, err := h.tasks.TeamTasks(e.Request().Context(), inspectorID, teamID, completed, days)
	if err != nil {
		l.Error("failed to list team tasks", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, tasks)
}

func (h *Handler) GetUserTasks(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("team_id")
	userID := e.Param("user_id")
	inspectorID := UserIDFromContext(e)

	completed, days, serviceErr := taskQueryParams(e)
	if serviceErr != nil {
		return h.transportError(e, serviceErr)
	}

	tasks, err := h.tasks.UserTasks(e.Request().Context(), inspectorID, teamID, userID, completed, days)
	if err != nil {
		l.Error("failed to list user tasks", zap.String("user_id", userID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, tasks)
}

func (h *Handler) GetTeamStats(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("team_id")
	inspectorID := UserIDFromContext(e)

	days, serviceErr := daysQueryParam(e)
	if serviceErr != nil {
		return h.transportError(e, serviceErr)
	}

	stats, err := h.tasks.TeamStats(e.Request().Context(), inspectorID, teamID, days)
	if err != nil {
		l.Error("failed to compute team stats", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, stats)
}

func (h *Handler) GetUserStats(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	userID := e.Param("user_id")
	teamID := e.QueryParam("team_id")
	inspectorID := UserIDFromContext(e)

	if teamID == "" {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "team_id is required"))
	}

	days, serviceErr := daysQueryParam(e)
	if serviceErr != nil {
		return h.transportError(e, serviceErr)
	}

	stats, err := h.tasks.UserStats(e.Request().Context(), inspectorID, teamID, userID, days)
	if err != nil {
		l.Error("failed to compute user stats", zap.String("user_id", userID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, stats)
}

func taskQueryParams(e echo.Context) (bool, int, *service.Error) {
	completed, err := strconv.ParseBool(e.QueryParam("completed"))
	if err != nil {
		return false, 0, service.NewError(service.ErrorCodeInvalidBody, "completed must be true or false")
	}

	days, serviceErr := daysQueryParam(e)
	if serviceErr != nil {
		return false, 0, serviceErr
	}

	return completed, days, nil
}

func daysQueryParam(e echo.Context) (int, *service.Error) {
	raw := e.QueryParam("days")
	if raw == "" {
		return 7, nil
	}

	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, service.NewError(service.ErrorCodeInvalidBody, "days must be an integer")
	}
	return days, nil
}
