package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yakoovad/teamroom/internal/repository"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *repository.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) Get(ctx context.Context, userID string) (*repository.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SoftDelete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Save(ctx context.Context, refreshToken, userID string, ttl time.Duration) error {
	args := m.Called(ctx, refreshToken, userID, ttl)
	return args.Error(0)
}

func (m *MockSessionRepository) Resolve(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(ctx context.Context, room *repository.Room) (string, error) {
	args := m.Called(ctx, room)
	return args.String(0), args.Error(1)
}

func (m *MockRoomRepository) Exists(ctx context.Context, roomID string) (bool, error) {
	args := m.Called(ctx, roomID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) AddMembers(ctx context.Context, roomID string, members []*repository.RoomMember) error {
	args := m.Called(ctx, roomID, members)
	return args.Error(0)
}

func (m *MockRoomRepository) RemoveMembers(ctx context.Context, roomID string, userIDs []string) error {
	args := m.Called(ctx, roomID, userIDs)
	return args.Error(0)
}

func (m *MockRoomRepository) IsChief(ctx context.Context, userID, roomID string) (bool, error) {
	args := m.Called(ctx, userID, roomID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) MemberIDs(ctx context.Context, roomID string, userIDs []string) ([]string, error) {
	args := m.Called(ctx, roomID, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRoomRepository) ListForUser(ctx context.Context, userID string) ([]*repository.Room, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Room), args.Error(1)
}

func (m *MockRoomRepository) ListMembers(ctx context.Context, roomID string) ([]*repository.RoomMember, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.RoomMember), args.Error(1)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, roomID, name string) (string, error) {
	args := m.Called(ctx, roomID, name)
	return args.String(0), args.Error(1)
}

func (m *MockTeamRepository) Exists(ctx context.Context, teamID string) (bool, error) {
	args := m.Called(ctx, teamID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamRepository) RoomID(ctx context.Context, teamID string) (string, error) {
	args := m.Called(ctx, teamID)
	return args.String(0), args.Error(1)
}

func (m *MockTeamRepository) AddMembers(ctx context.Context, teamID string, members []*repository.TeamMember) error {
	args := m.Called(ctx, teamID, members)
	return args.Error(0)
}

func (m *MockTeamRepository) RemoveMembers(ctx context.Context, teamID string, userIDs []string) error {
	args := m.Called(ctx, teamID, userIDs)
	return args.Error(0)
}

func (m *MockTeamRepository) RemoveMembersByRoom(ctx context.Context, roomID string, userIDs []string) error {
	args := m.Called(ctx, roomID, userIDs)
	return args.Error(0)
}

func (m *MockTeamRepository) IsChief(ctx context.Context, userID, teamID string) (bool, error) {
	args := m.Called(ctx, userID, teamID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamRepository) IsMember(ctx context.Context, userID, teamID string) (bool, error) {
	args := m.Called(ctx, userID, teamID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamRepository) ListForUser(ctx context.Context, userID, roomID string) ([]*repository.Team, error) {
	args := m.Called(ctx, userID, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) ListMembers(ctx context.Context, teamID string) ([]*repository.TeamMember, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.TeamMember), args.Error(1)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *repository.Task) (string, error) {
	args := m.Called(ctx, task)
	return args.String(0), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, taskID string) (*repository.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Task), args.Error(1)
}

func (m *MockTaskRepository) Patch(ctx context.Context, patch *repository.TaskPatch) error {
	args := m.Called(ctx, patch)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, taskID string) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockTaskRepository) Complete(ctx context.Context, taskID, executorID string, finishedAt time.Time) (bool, error) {
	args := m.Called(ctx, taskID, executorID, finishedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) ListForTeam(ctx context.Context, teamID string, completed bool, start, end time.Time) ([]*repository.Task, error) {
	args := m.Called(ctx, teamID, completed, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Task), args.Error(1)
}

func (m *MockTaskRepository) ListForUser(ctx context.Context, teamID, userID string, completed bool, start, end time.Time) ([]*repository.Task, error) {
	args := m.Called(ctx, teamID, userID, completed, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Task), args.Error(1)
}

func (m *MockTaskRepository) CountTeamCompleted(ctx context.Context, teamID string, start, end time.Time) (int, error) {
	args := m.Called(ctx, teamID, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) CountTeamInProgress(ctx context.Context, teamID string) (int, error) {
	args := m.Called(ctx, teamID)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) CountUserCompleted(ctx context.Context, teamID, userID string, start, end time.Time) (int, error) {
	args := m.Called(ctx, teamID, userID, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) CountUserInProgress(ctx context.Context, teamID, userID string) (int, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Int(0), args.Error(1)
}
