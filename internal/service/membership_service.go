package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yakoovad/teamroom/internal/db"
	"github.com/yakoovad/teamroom/internal/model"
	"github.com/yakoovad/teamroom/internal/repository"
	"github.com/yakoovad/teamroom/pkg/logger"
	"go.uber.org/zap"
)

// MembershipService owns rooms, teams and their memberships. A chief flag
// on a membership gates the mutating operations; every team member must
// also be a member of the team's owning room.
type MembershipService struct {
	tx db.Transactor

	users repository.UserRepository
	rooms repository.RoomRepository
	teams repository.TeamRepository
}

func NewMembershipService(tx db.Transactor) *MembershipService {
	return &MembershipService{tx: tx}
}

// CreateRoom creates a room and makes the creator its first chief. Both
// writes happen in one transaction so a failure cannot leave an orphaned
// room without members.
func (m *MembershipService) CreateRoom(ctx context.Context, userID string, room *model.Room) (string, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating room", zap.String("user_id", userID), zap.String("name", room.Name))

	var roomID string

	err := m.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		id, err := m.rooms.Create(txCtx, &repository.Room{
			Name:  room.Name,
			Roles: room.Roles,
			Tags:  room.Tags,
		})
		if err != nil {
			l.Error("failed to create room", zap.Error(err))
			return NewError(ErrorCodeNotFound, "room was not created")
		}

		if err = m.rooms.AddMembers(txCtx, id, []*repository.RoomMember{
			{UserID: userID, IsChief: true},
		}); err != nil {
			l.Error("failed to add room creator", zap.String("room_id", id), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to add room creator")
		}

		roomID = id
		return nil
	})

	if serviceErr := asServiceError(err); serviceErr != nil {
		return "", serviceErr
	}

	return roomID, nil
}

// AddUsersToRoom inserts memberships, idempotently skipping users that are
// already in the room.
func (m *MembershipService) AddUsersToRoom(ctx context.Context, roomID string, members []*model.RoomMember) *Error {
	l := logger.FromContext(ctx)

	exists, err := m.rooms.Exists(ctx, roomID)
	if err != nil {
		l.Error("failed to check room", zap.String("room_id", roomID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check room")
	}
	if !exists {
		return NewError(ErrorCodeNotFound, "room not found")
	}

	rows := make([]*repository.RoomMember, 0, len(members))
	for _, member := range members {
		rows = append(rows, &repository.RoomMember{UserID: member.UserID, IsChief: member.IsChief})
	}

	if err = m.rooms.AddMembers(ctx, roomID, rows); err != nil {
		l.Error("failed to add room members", zap.String("room_id", roomID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to add room members")
	}

	return nil
}

// RemoveUsersFromRoom removes room memberships and, in the same
// transaction, the users' memberships in every team owned by the room.
func (m *MembershipService) RemoveUsersFromRoom(ctx context.Context, roomID string, userIDs []string) *Error {
	l := logger.FromContext(ctx)

	exists, err := m.rooms.Exists(ctx, roomID)
	if err != nil {
		l.Error("failed to check room", zap.String("room_id", roomID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check room")
	}
	if !exists {
		return NewError(ErrorCodeNotFound, "room not found")
	}

	err = m.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := m.teams.RemoveMembersByRoom(txCtx, roomID, userIDs); err != nil {
			l.Error("failed to remove team memberships", zap.String("room_id", roomID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to remove team memberships")
		}

		if err := m.rooms.RemoveMembers(txCtx, roomID, userIDs); err != nil {
			l.Error("failed to remove room members", zap.String("room_id", roomID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to remove room members")
		}

		return nil
	})

	return asServiceError(err)
}

// IsRoomChief is the authorization gate for room mutation.
func (m *MembershipService) IsRoomChief(ctx context.Context, userID, roomID string) (bool, *Error) {
	chief, err := m.rooms.IsChief(ctx, userID, roomID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to check room chief",
			zap.String("user_id", userID),
			zap.String("room_id", roomID),
			zap.Error(err))
		return false, NewError(ErrorCodeUnspecified, "failed to check room chief")
	}
	return chief, nil
}

// IsTeamChief is the authorization gate for team mutation.
func (m *MembershipService) IsTeamChief(ctx context.Context, userID, teamID string) (bool, *Error) {
	chief, err := m.teams.IsChief(ctx, userID, teamID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to check team chief",
			zap.String("user_id", userID),
			zap.String("team_id", teamID),
			zap.Error(err))
		return false, NewError(ErrorCodeUnspecified, "failed to check team chief")
	}
	return chief, nil
}

// CreateTeam creates a team inside an existing room. The creator must be a
// room member and becomes the team's chief. Team and first membership are
// written in one transaction.
func (m *MembershipService) CreateTeam(ctx context.Context, userID, roomID, name, displayName string) (string, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating team",
		zap.String("user_id", userID),
		zap.String("room_id", roomID),
		zap.String("name", name))

	exists, err := m.rooms.Exists(ctx, roomID)
	if err != nil {
		l.Error("failed to check room", zap.String("room_id", roomID), zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "failed to check room")
	}
	if !exists {
		return "", NewError(ErrorCodeNotFound, "room not found")
	}

	inRoom, err := m.rooms.MemberIDs(ctx, roomID, []string{userID})
	if err != nil {
		l.Error("failed to check room membership", zap.String("room_id", roomID), zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "failed to check room membership")
	}
	if len(inRoom) == 0 {
		return "", NewError(ErrorCodeForbidden, "only room members can create teams")
	}

	var teamID string

	err = m.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		id, err := m.teams.Create(txCtx, roomID, name)
		if err != nil {
			l.Error("failed to create team", zap.String("room_id", roomID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create team")
		}

		if err = m.teams.AddMembers(txCtx, id, []*repository.TeamMember{
			{UserID: userID, Name: displayName, IsChief: true},
		}); err != nil {
			l.Error("failed to add team creator", zap.String("team_id", id), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to add team creator")
		}

		teamID = id
		return nil
	})

	if serviceErr := asServiceError(err); serviceErr != nil {
		return "", serviceErr
	}

	return teamID, nil
}

// AddUsersToTeam reconciles the requested users against room membership.
// Users already in the team's room join the team directly. Users outside
// the room join it first when the requester is a room chief, otherwise
// they are silently dropped. The call fails only when nothing could be
// added.
func (m *MembershipService) AddUsersToTeam(ctx context.Context, requesterID, teamID, name string, members []*model.TeamMember) *Error {
	l := logger.FromContext(ctx)

	roomID, err := m.teams.RoomID(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		l.Error("failed to resolve team room", zap.String("team_id", teamID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to resolve team room")
	}

	userIDs := make([]string, 0, len(members))
	byID := make(map[string]*model.TeamMember, len(members))
	for _, member := range members {
		userIDs = append(userIDs, member.UserID)
		byID[member.UserID] = member
	}

	inRoomIDs, err := m.rooms.MemberIDs(ctx, roomID, userIDs)
	if err != nil {
		l.Error("failed to partition by room membership", zap.String("room_id", roomID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check room membership")
	}

	inRoom := make(map[string]bool, len(inRoomIDs))
	for _, id := range inRoomIDs {
		inRoom[id] = true
	}

	outOfRoom := make([]string, 0)
	for _, id := range userIDs {
		if !inRoom[id] {
			outOfRoom = append(outOfRoom, id)
		}
	}

	addable := inRoomIDs

	if len(outOfRoom) > 0 {
		chief, err := m.rooms.IsChief(ctx, requesterID, roomID)
		if err != nil {
			l.Error("failed to check room chief", zap.String("room_id", roomID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check room chief")
		}
		if chief {
			addable = userIDs
		} else {
			l.Warn("dropping users outside the room",
				zap.String("team_id", teamID),
				zap.Strings("user_ids", outOfRoom))
		}
	}

	if len(addable) == 0 {
		return NewError(ErrorCodeForbidden, "none of the users are members of the team's room")
	}

	err = m.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if len(outOfRoom) > 0 && len(addable) == len(userIDs) {
			newcomers := make([]*repository.RoomMember, 0, len(outOfRoom))
			for _, id := range outOfRoom {
				newcomers = append(newcomers, &repository.RoomMember{UserID: id})
			}
			if err := m.rooms.AddMembers(txCtx, roomID, newcomers); err != nil {
				l.Error("failed to add users to room", zap.String("room_id", roomID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to add users to room")
			}
		}

		rows := make([]*repository.TeamMember, 0, len(addable))
		for _, id := range addable {
			member := byID[id]
			memberName := member.Name
			if memberName == "" {
				memberName = name
			}
			rows = append(rows, &repository.TeamMember{
				UserID:  id,
				Name:    memberName,
				Role:    member.Role,
				Tag:     member.Tag,
				IsChief: member.IsChief,
			})
		}

		if err := m.teams.AddMembers(txCtx, teamID, rows); err != nil {
			l.Error("failed to add team members", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to add team members")
		}

		return nil
	})

	return asServiceError(err)
}

// RemoveUsersFromTeam removes team memberships only; room membership is
// untouched.
func (m *MembershipService) RemoveUsersFromTeam(ctx context.Context, teamID string, userIDs []string) *Error {
	l := logger.FromContext(ctx)

	exists, err := m.teams.Exists(ctx, teamID)
	if err != nil {
		l.Error("failed to check team", zap.String("team_id", teamID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check team")
	}
	if !exists {
		return NewError(ErrorCodeNotFound, "team not found")
	}

	if err = m.teams.RemoveMembers(ctx, teamID, userIDs); err != nil {
		l.Error("failed to remove team members", zap.String("team_id", teamID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to remove team members")
	}

	return nil
}

func (m *MembershipService) ListRoomsForUser(ctx context.Context, userID string) ([]*model.Room, *Error) {
	rows, err := m.rooms.ListForUser(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list rooms", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list rooms")
	}

	rooms := make([]*model.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, &model.Room{
			ID:    row.ID,
			Name:  row.Name,
			Roles: row.Roles,
			Tags:  row.Tags,
		})
	}
	return rooms, nil
}

func (m *MembershipService) ListTeamsForUser(ctx context.Context, userID, roomID string) ([]*model.Team, *Error) {
	l := logger.FromContext(ctx)

	exists, err := m.rooms.Exists(ctx, roomID)
	if err != nil {
		l.Error("failed to check room", zap.String("room_id", roomID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to check room")
	}
	if !exists {
		return nil, NewError(ErrorCodeNotFound, "room not found")
	}

	rows, err := m.teams.ListForUser(ctx, userID, roomID)
	if err != nil {
		l.Error("failed to list teams", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list teams")
	}

	teams := make([]*model.Team, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, &model.Team{
			ID:     row.ID,
			RoomID: row.RoomID,
			Name:   row.Name,
		})
	}
	return teams, nil
}

func (m *MembershipService) ListRoomMembers(ctx context.Context, roomID string) ([]*model.RoomMember, *Error) {
	l := logger.FromContext(ctx)

	exists, err := m.rooms.Exists(ctx, roomID)
	if err != nil {
		l.Error("failed to check room", zap.String("room_id", roomID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to check room")
	}
	if !exists {
		return nil, NewError(ErrorCodeNotFound, "room not found")
	}

	rows, err := m.rooms.ListMembers(ctx, roomID)
	if err != nil {
		l.Error("failed to list room members", zap.String("room_id", roomID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list room members")
	}

	members := make([]*model.RoomMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, &model.RoomMember{UserID: row.UserID, IsChief: row.IsChief})
	}
	return members, nil
}

func (m *MembershipService) ListTeamMembers(ctx context.Context, teamID string) ([]*model.TeamMember, *Error) {
	l := logger.FromContext(ctx)

	exists, err := m.teams.Exists(ctx, teamID)
	if err != nil {
		l.Error("failed to check team", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to check team")
	}
	if !exists {
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}

	rows, err := m.teams.ListMembers(ctx, teamID)
	if err != nil {
		l.Error("failed to list team members", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list team members")
	}

	members := make([]*model.TeamMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, &model.TeamMember{
			UserID:  row.UserID,
			Name:    row.Name,
			Role:    row.Role,
			Tag:     row.Tag,
			IsChief: row.IsChief,
		})
	}
	return members, nil
}

func (m *MembershipService) WithUserRepo(r repository.UserRepository) *MembershipService {
	m.users = r
	return m
}

func (m *MembershipService) WithRoomRepo(r repository.RoomRepository) *MembershipService {
	m.rooms = r
	return m
}

func (m *MembershipService) WithTeamRepo(r repository.TeamRepository) *MembershipService {
	m.teams = r
	return m
}

// asServiceError unwraps the *Error a transaction callback returned, if
// any.
func asServiceError(err error) *Error {
	if err == nil {
		return nil
	}
	var res *Error
	if errors.As(err, &res) {
		return res
	}
	return NewError(ErrorCodeUnspecified, err.Error())
}
