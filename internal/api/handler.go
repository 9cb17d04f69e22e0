package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/yakoovad/teamroom/internal/service"
	"go.uber.org/zap"
)

type Handler struct {
	auth       *service.AuthService
	membership *service.MembershipService
	tasks      *service.TaskService

	healthChecker HealthChecker

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithAuthService(auth *service.AuthService) *Handler {
	h.auth = auth
	return h
}

func (h *Handler) WithMembershipService(membership *service.MembershipService) *Handler {
	h.membership = membership
	return h
}

func (h *Handler) WithTaskService(tasks *service.TaskService) *Handler {
	h.tasks = tasks
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}

	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/update_access_token", h.RefreshToken)
	e.POST("/auth/logout", h.Logout)

	secured := e.Group("", AuthMiddleware(h.auth))

	secured.GET("/auth/info", h.UserInfo)
	secured.DELETE("/auth/delete_account", h.DeleteAccount)

	secured.POST("/team/create_room", h.CreateRoom)
	secured.POST("/team/add_people_to_room", h.AddPeopleToRoom)
	secured.POST("/team/delete_people_to_room", h.DeletePeopleFromRoom)
	secured.POST("/team/create_team", h.CreateTeam)
	secured.POST("/team/add_people_to_team", h.AddPeopleToTeam)
	secured.POST("/team/delete_people_to_team", h.DeletePeopleFromTeam)
	secured.GET("/team/get_rooms", h.GetRooms)
	secured.GET("/team/get_list_teams/:room_id", h.GetTeams)
	secured.GET("/team/get_list_users_rooms/:room_id", h.GetRoomMembers)
	secured.GET("/team/get_list_users_teams/:team_id", h.GetTeamMembers)

	secured.POST("/tasks/create", h.CreateTask)
	secured.POST("/tasks/update/:task_id", h.UpdateTask)
	secured.DELETE("/tasks/delete/:task_id", h.DeleteTask)
	secured.POST("/tasks/complete/:task_id", h.CompleteTask)
	secured.GET("/tasks/teams/:team_id/tasks", h.GetTeamTasks)
	secured.GET("/tasks/teams/:team_id/users/:user_id/tasks", h.GetUserTasks)
	secured.GET("/tasks/stats/team/:team_id", h.GetTeamStats)
	secured.GET("/tasks/stats/user/:user_id", h.GetUserStats)
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}

	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "request validation failed").Error())
	}
	return nil
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := struct {
		Error *service.Error `json:"error"`
	}{Error: err}

	switch err.Code {
	case service.ErrorCodeUnauthorized:
		return e.JSON(http.StatusUnauthorized, response)
	case service.ErrorCodeForbidden:
		return e.JSON(http.StatusForbidden, response)
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodeConflict:
		return e.JSON(http.StatusConflict, response)
	case service.ErrorCodeInvalidBody:
		return e.JSON(http.StatusBadRequest, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
