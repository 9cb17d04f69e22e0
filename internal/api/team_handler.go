package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/teamroom/internal/model"
	"github.com/yakoovad/teamroom/internal/service"
	"github.com/yakoovad/teamroom/pkg/logger"
	"go.uber.org/zap"
)

type roomMemberRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	IsChief bool   `json:"is_chief"`
}

type teamMemberRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Tag     string `json:"tag"`
	IsChief bool   `json:"is_chief"`
}

func (h *Handler) CreateRoom(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Name  string   `json:"name" validate:"required"`
		Roles []string `json:"list_role"`
		Tags  []string `json:"list_tag"`
		Users []string `json:"list_users" validate:"dive,uuid"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	userID := UserIDFromContext(e)

	roomID, err := h.membership.CreateRoom(e.Request().Context(), userID, &model.Room{
		Name:  req.Name,
		Roles: req.Roles,
		Tags:  req.Tags,
	})
	if err != nil {
		l.Error("failed to create room", zap.Any("error", err))
		return h.transportError(e, err)
	}

	if len(req.Users) > 0 {
		members := make([]*model.RoomMember, 0, len(req.Users))
		for _, id := range req.Users {
			members = append(members, &model.RoomMember{UserID: id})
		}
		if err = h.membership.AddUsersToRoom(e.Request().Context(), roomID, members); err != nil {
			l.Error("failed to add initial room members", zap.String("room_id", roomID), zap.Any("error", err))
			return h.transportError(e, err)
		}
	}

	return e.JSON(http.StatusCreated, echo.Map{"room_id": roomID})
}

func (h *Handler) AddPeopleToRoom(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		RoomID string               `json:"room_id" validate:"required,uuid"`
		Users  []*roomMemberRequest `json:"list_users" validate:"required,min=1,dive"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	if err := h.requireRoomChief(e, req.RoomID); err != nil {
		return h.transportError(e, err)
	}

	members := make([]*model.RoomMember, 0, len(req.Users))
	for _, u := range req.Users {
		members = append(members, &model.RoomMember{UserID: u.UserID, IsChief: u.IsChief})
	}

	if err := h.membership.AddUsersToRoom(e.Request().Context(), req.RoomID, members); err != nil {
		l.Error("failed to add room members", zap.String("room_id", req.RoomID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"room_id": req.RoomID})
}

func (h *Handler) DeletePeopleFromRoom(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		RoomID string   `json:"room_id" validate:"required,uuid"`
		Users  []string `json:"list_users" validate:"required,min=1,dive,uuid"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	if err := h.requireRoomChief(e, req.RoomID); err != nil {
		return h.transportError(e, err)
	}

	if err := h.membership.RemoveUsersFromRoom(e.Request().Context(), req.RoomID, req.Users); err != nil {
		l.Error("failed to remove room members", zap.String("room_id", req.RoomID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"room_id": req.RoomID})
}

func (h *Handler) CreateTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		RoomID      string               `json:"room_id" validate:"required,uuid"`
		Name        string               `json:"name" validate:"required"`
		DisplayName string               `json:"display_name"`
		Users       []*teamMemberRequest `json:"list_users" validate:"dive"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	userID := UserIDFromContext(e)

	teamID, err := h.membership.CreateTeam(e.Request().Context(), userID, req.RoomID, req.Name, req.DisplayName)
	if err != nil {
		l.Error("failed to create team", zap.String("room_id", req.RoomID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	if len(req.Users) > 0 {
		members := toTeamMembers(req.Users)
		if err = h.membership.AddUsersToTeam(e.Request().Context(), userID, teamID, req.Name, members); err != nil {
			l.Error("failed to add initial team members", zap.String("team_id", teamID), zap.Any("error", err))
			return h.transportError(e, err)
		}
	}

	return e.JSON(http.StatusCreated, echo.Map{"team_id": teamID})
}

func (h *Handler) AddPeopleToTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		TeamID string               `json:"team_id" validate:"required,uuid"`
		Name   string               `json:"name"`
		Users  []*teamMemberRequest `json:"list_users" validate:"required,min=1,dive"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	userID := UserIDFromContext(e)

	if err := h.membership.AddUsersToTeam(e.Request().Context(), userID, req.TeamID, req.Name, toTeamMembers(req.Users)); err != nil {
		l.Error("failed to add team members", zap.String("team_id", req.TeamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"team_id": req.TeamID})
}

func (h *Handler) DeletePeopleFromTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		TeamID string   `json:"team_id" validate:"required,uuid"`
		Users  []string `json:"list_users" validate:"required,min=1,dive,uuid"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	userID := UserIDFromContext(e)

	chief, serviceErr := h.membership.IsTeamChief(e.Request().Context(), userID, req.TeamID)
	if serviceErr != nil {
		return h.transportError(e, serviceErr)
	}
	if !chief {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "only a team chief can remove members"))
	}

	if err := h.membership.RemoveUsersFromTeam(e.Request().Context(), req.TeamID, req.Users); err != nil {
		l.Error("failed to remove team members", zap.String("team_id", req.TeamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"team_id": req.TeamID})
}

func (h *Handler) GetRooms(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	userID := UserIDFromContext(e)

	rooms, err := h.membership.ListRoomsForUser(e.Request().Context(), userID)
	if err != nil {
		l.Error("failed to list rooms", zap.String("user_id", userID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"list_rooms": rooms})
}

func (h *Handler) GetTeams(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	userID := UserIDFromContext(e)
	roomID := e.Param("room_id")

	teams, err := h.membership.ListTeamsForUser(e.Request().Context(), userID, roomID)
	if err != nil {
		l.Error("failed to list teams", zap.String("room_id", roomID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"list_teams": teams})
}

func (h *Handler) GetRoomMembers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	roomID := e.Param("room_id")

	members, err := h.membership.ListRoomMembers(e.Request().Context(), roomID)
	if err != nil {
		l.Error("failed to list room members", zap.String("room_id", roomID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"list_users": members})
}

func (h *Handler) GetTeamMembers(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("team_id")

	members, err := h.membership.ListTeamMembers(e.Request().Context(), teamID)
	if err != nil {
		l.Error("failed to list team members", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, echo.Map{"list_users": members})
}

func (h *Handler) requireRoomChief(e echo.Context, roomID string) *service.Error {
	userID := UserIDFromContext(e)

	chief, err := h.membership.IsRoomChief(e.Request().Context(), userID, roomID)
	if err != nil {
		return err
	}
	if !chief {
		return service.NewError(service.ErrorCodeForbidden, "only a room chief can modify the room")
	}
	return nil
}

func toTeamMembers(reqs []*teamMemberRequest) []*model.TeamMember {
	members := make([]*model.TeamMember, 0, len(reqs))
	for _, r := range reqs {
		members = append(members, &model.TeamMember{
			UserID:  r.UserID,
			Name:    r.Name,
			Role:    r.Role,
			Tag:     r.Tag,
			IsChief: r.IsChief,
		})
	}
	return members
}
