package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/teamroom/internal/model"
	"github.com/yakoovad/teamroom/internal/repository"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestTaskService(users *MockUserRepository, teams *MockTeamRepository, tasks *MockTaskRepository) *TaskService {
	return NewTaskService(new(MockTransactor)).
		WithUserRepo(users).
		WithTeamRepo(teams).
		WithTaskRepo(tasks).
		WithClock(func() time.Time { return testNow })
}

func strPtr(s string) *string { return &s }

func TestTaskService_CreateTask(t *testing.T) {
	future := testNow.Add(24 * time.Hour)
	past := testNow.Add(-time.Hour)

	tests := []struct {
		name          string
		authorID      string
		input         *CreateTaskInput
		setupMocks    func(*MockUserRepository, *MockTeamRepository, *MockTaskRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:     "success without executor defaults to no_executor",
			authorID: "author1",
			input: &CreateTaskInput{
				TeamID:     "team1",
				Name:       "write docs",
				Text:       "cover the public API",
				Priority:   model.PriorityMedium,
				Difficulty: model.DifficultyLow,
			},
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, kr *MockTaskRepository) {
				ur.On("Exists", mock.Anything, "author1").Return(true, nil)
				tr.On("Exists", mock.Anything, "team1").Return(true, nil)
				tr.On("IsMember", mock.Anything, "author1", "team1").Return(true, nil)
				kr.On("Create", mock.Anything, mock.MatchedBy(func(task *repository.Task) bool {
					return task.Status == string(model.StatusNoExecutor) &&
						task.AuthorID == "author1" &&
						task.CreatedAt.Equal(testNow)
				})).Return("task1", nil)
			},
			expectedError: false,
		},
		{
			name:     "success with executor defaults to has_executor",
			authorID: "author1",
			input: &CreateTaskInput{
				TeamID:     "team1",
				Name:       "write docs",
				Text:       "cover the public API",
				ExecutorID: strPtr("exec1"),
				Priority:   model.PriorityHigh,
				Difficulty: model.DifficultyMedium,
				Deadline:   &future,
			},
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, kr *MockTaskRepository) {
				ur.On("Exists", mock.Anything, "author1").Return(true, nil)
				tr.On("Exists", mock.Anything, "team1").Return(true, nil)
				tr.On("IsMember", mock.Anything, "author1", "team1").Return(true, nil)
				tr.On("IsMember", mock.Anything, "exec1", "team1").Return(true, nil)
				kr.On("Create", mock.Anything, mock.MatchedBy(func(task *repository.Task) bool {
					return task.Status == string(model.StatusHasExecutor)
				})).Return("task1", nil)
			},
			expectedError: false,
		},
		{
			name:     "unknown priority",
			authorID: "author1",
			input: &CreateTaskInput{
				TeamID:     "team1",
				Name:       "write docs",
				Priority:   "urgent",
				Difficulty: model.DifficultyLow,
			},
			setupMocks:    func(ur *MockUserRepository, tr *MockTeamRepository, kr *MockTaskRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:     "past deadline",
			authorID: "author1",
			input: &CreateTaskInput{
				TeamID:     "team1",
				Name:       "write docs",
				Priority:   model.PriorityLow,
				Difficulty: model.DifficultyLow,
				Deadline:   &past,
			},
			setupMocks:    func(ur *MockUserRepository, tr *MockTeamRepository, kr *MockTaskRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:     "team not found",
			authorID: "author1",
			input: &CreateTaskInput{
				TeamID:     "team404",
				Name:       "write docs",
				Priority:   model.PriorityLow,
				Difficulty: model.DifficultyLow,
			},
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, kr *MockTaskRepository) {
				ur.On("Exists", mock.Anything, "author1").Return(true, nil)
				tr.On("Exists", mock.Anything, "team404").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name:     "author outside the team",
			authorID: "stranger",
			input: &CreateTaskInput{
				TeamID:     "team1",
				Name:       "write docs",
				Priority:   model.PriorityLow,
				Difficulty: model.DifficultyLow,
			},
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, kr *MockTaskRepository) {
				ur.On("Exists", mock.Anything, "stranger").Return(true, nil)
				tr.On("Exists", mock.Anything, "team1").Return(true, nil)
				tr.On("IsMember", mock.Anything, "stranger", "team1").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
		{
			name:     "executor outside the team",
			authorID: "author1",
			input: &CreateTaskInput{
				TeamID:     "team1",
				Name:       "write docs",
				ExecutorID: strPtr("stranger"),
				Priority:   model.PriorityLow,
				Difficulty: model.DifficultyLow,
			},
			setupMocks: func(ur *MockUserRepository, tr *MockTeamRepository, kr *MockTaskRepository) {
				ur.On("Exists", mock.Anything, "author1").Return(true, nil)
				tr.On("Exists", mock.Anything, "team1").Return(true, nil)
				tr.On("IsMember", mock.Anything, "author1", "team1").Return(true, nil)
				tr.On("IsMember", mock.Anything, "stranger", "team1").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := new(MockUserRepository)
			mockTeams := new(MockTeamRepository)
			mockTasks := new(MockTaskRepository)

			tt.setupMocks(mockUsers, mockTeams, mockTasks)

			service := newTestTaskService(mockUsers, mockTeams, mockTasks)

			taskID, err := service.CreateTask(context.Background(), tt.authorID, tt.input)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				assert.Equal(t, "task1", taskID)
			}

			mockUsers.AssertExpectations(t)
			mockTeams.AssertExpectations(t)
			mockTasks.AssertExpectations(t)
		})
	}
}

func TestTaskService_UpdateTask(t *testing.T) {
	storedTask := func() *repository.Task {
		return &repository.Task{
			ID:         "task1",
			TeamID:     "team1",
			AuthorID:   "author1",
			ExecutorID: strPtr("exec1"),
			Status:     string(model.StatusInProgress),
		}
	}

	tests := []struct {
		name          string
		actorID       string
		input         *UpdateTaskInput
		setupMocks    func(*MockTeamRepository, *MockTaskRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:    "author can update",
			actorID: "author1",
			input:   &UpdateTaskInput{Name: strPtr("new name")},
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(storedTask(), nil)
				kr.On("Patch", mock.Anything, mock.MatchedBy(func(patch *repository.TaskPatch) bool {
					return patch.ID == "task1" &&
						*patch.Name == "new name" &&
						*patch.UpdateAuthor == "author1" &&
						patch.UpdatedAt.Equal(testNow)
				})).Return(nil)
			},
			expectedError: false,
		},
		{
			name:    "chief can update",
			actorID: "chief1",
			input:   &UpdateTaskInput{Text: strPtr("new text")},
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(storedTask(), nil)
				tr.On("IsChief", mock.Anything, "chief1", "team1").Return(true, nil)
				kr.On("Patch", mock.Anything, mock.Anything).Return(nil)
			},
			expectedError: false,
		},
		{
			name:    "changing executor records the previous one",
			actorID: "author1",
			input:   &UpdateTaskInput{ExecutorID: strPtr("exec2")},
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(storedTask(), nil)
				kr.On("Patch", mock.Anything, mock.MatchedBy(func(patch *repository.TaskPatch) bool {
					return *patch.ExecutorID == "exec2" &&
						patch.LastExecutor != nil && *patch.LastExecutor == "exec1"
				})).Return(nil)
			},
			expectedError: false,
		},
		{
			name:    "same executor leaves last_executor alone",
			actorID: "author1",
			input:   &UpdateTaskInput{ExecutorID: strPtr("exec1")},
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(storedTask(), nil)
				kr.On("Patch", mock.Anything, mock.MatchedBy(func(patch *repository.TaskPatch) bool {
					return patch.LastExecutor == nil
				})).Return(nil)
			},
			expectedError: false,
		},
		{
			name:    "neither author nor chief",
			actorID: "stranger",
			input:   &UpdateTaskInput{Name: strPtr("new name")},
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(storedTask(), nil)
				tr.On("IsChief", mock.Anything, "stranger", "team1").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
		{
			name:    "task not found",
			actorID: "author1",
			input:   &UpdateTaskInput{Name: strPtr("new name")},
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name:          "unknown status",
			actorID:       "author1",
			input:         &UpdateTaskInput{Status: (*model.Status)(strPtr("paused"))},
			setupMocks:    func(tr *MockTeamRepository, kr *MockTaskRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeams := new(MockTeamRepository)
			mockTasks := new(MockTaskRepository)

			tt.setupMocks(mockTeams, mockTasks)

			service := newTestTaskService(new(MockUserRepository), mockTeams, mockTasks)

			_, err := service.UpdateTask(context.Background(), tt.actorID, "task1", tt.input)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
			}

			mockTeams.AssertExpectations(t)
			mockTasks.AssertExpectations(t)
		})
	}
}

func TestTaskService_DeleteTask(t *testing.T) {
	tests := []struct {
		name          string
		actorID       string
		setupMocks    func(*MockTeamRepository, *MockTaskRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:    "author can delete",
			actorID: "author1",
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(&repository.Task{
					ID: "task1", TeamID: "team1", AuthorID: "author1",
				}, nil)
				kr.On("Delete", mock.Anything, "task1").Return(nil)
			},
			expectedError: false,
		},
		{
			name:    "stranger cannot delete",
			actorID: "stranger",
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(&repository.Task{
					ID: "task1", TeamID: "team1", AuthorID: "author1",
				}, nil)
				tr.On("IsChief", mock.Anything, "stranger", "team1").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeams := new(MockTeamRepository)
			mockTasks := new(MockTaskRepository)

			tt.setupMocks(mockTeams, mockTasks)

			service := newTestTaskService(new(MockUserRepository), mockTeams, mockTasks)

			err := service.DeleteTask(context.Background(), tt.actorID, "task1")

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
			}

			mockTeams.AssertExpectations(t)
			mockTasks.AssertExpectations(t)
		})
	}
}

func TestTaskService_CompleteTask(t *testing.T) {
	tests := []struct {
		name          string
		executorID    string
		setupMocks    func(*MockTaskRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:       "success",
			executorID: "exec1",
			setupMocks: func(kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(&repository.Task{ID: "task1"}, nil)
				kr.On("Complete", mock.Anything, "task1", "exec1", testNow).Return(true, nil)
			},
			expectedError: false,
		},
		{
			name:       "task not found",
			executorID: "exec1",
			setupMocks: func(kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name:       "not the executor or already completed",
			executorID: "stranger",
			setupMocks: func(kr *MockTaskRepository) {
				kr.On("Get", mock.Anything, "task1").Return(&repository.Task{ID: "task1"}, nil)
				kr.On("Complete", mock.Anything, "task1", "stranger", testNow).Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTasks := new(MockTaskRepository)

			tt.setupMocks(mockTasks)

			service := newTestTaskService(new(MockUserRepository), new(MockTeamRepository), mockTasks)

			err := service.CompleteTask(context.Background(), tt.executorID, "task1")

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
			}

			mockTasks.AssertExpectations(t)
		})
	}
}

func TestTaskService_TeamStats(t *testing.T) {
	windowStart := testNow.AddDate(0, 0, -7)

	tests := []struct {
		name          string
		inspectorID   string
		days          int
		setupMocks    func(*MockTeamRepository, *MockTaskRepository)
		expectedError bool
		errorCode     ErrorCode
		expectedStats *model.TaskStats
	}{
		{
			name:        "chief sees counts over the window",
			inspectorID: "chief1",
			days:        7,
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				tr.On("Exists", mock.Anything, "team1").Return(true, nil)
				tr.On("IsChief", mock.Anything, "chief1", "team1").Return(true, nil)
				kr.On("CountTeamCompleted", mock.Anything, "team1", windowStart, testNow).Return(5, nil)
				kr.On("CountTeamInProgress", mock.Anything, "team1").Return(3, nil)
			},
			expectedError: false,
			expectedStats: &model.TaskStats{Completed: 5, InProgress: 3},
		},
		{
			name:        "non-chief forbidden",
			inspectorID: "user1",
			days:        7,
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				tr.On("Exists", mock.Anything, "team1").Return(true, nil)
				tr.On("IsChief", mock.Anything, "user1", "team1").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
		{
			name:          "window too short",
			inspectorID:   "chief1",
			days:          0,
			setupMocks:    func(tr *MockTeamRepository, kr *MockTaskRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:        "team not found",
			inspectorID: "chief1",
			days:        7,
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				tr.On("Exists", mock.Anything, "team1").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeams := new(MockTeamRepository)
			mockTasks := new(MockTaskRepository)

			tt.setupMocks(mockTeams, mockTasks)

			service := newTestTaskService(new(MockUserRepository), mockTeams, mockTasks)

			stats, err := service.TeamStats(context.Background(), tt.inspectorID, "team1", tt.days)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				assert.Equal(t, tt.expectedStats, stats)
			}

			mockTeams.AssertExpectations(t)
			mockTasks.AssertExpectations(t)
		})
	}
}

func TestTaskService_UserTasks(t *testing.T) {
	windowStart := testNow.AddDate(0, 0, -7)

	tests := []struct {
		name          string
		inspectorID   string
		userID        string
		setupMocks    func(*MockTeamRepository, *MockTaskRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:        "members see their own tasks",
			inspectorID: "user1",
			userID:      "user1",
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				tr.On("IsMember", mock.Anything, "user1", "team1").Return(true, nil)
				kr.On("ListForUser", mock.Anything, "team1", "user1", true, windowStart, testNow).
					Return([]*repository.Task{{ID: "task1", TeamID: "team1"}}, nil)
			},
			expectedError: false,
		},
		{
			name:        "chief sees another member's tasks",
			inspectorID: "chief1",
			userID:      "user1",
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				tr.On("IsMember", mock.Anything, "user1", "team1").Return(true, nil)
				tr.On("IsChief", mock.Anything, "chief1", "team1").Return(true, nil)
				kr.On("ListForUser", mock.Anything, "team1", "user1", true, windowStart, testNow).
					Return([]*repository.Task{}, nil)
			},
			expectedError: false,
		},
		{
			name:        "regular member cannot inspect others",
			inspectorID: "user2",
			userID:      "user1",
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				tr.On("IsMember", mock.Anything, "user1", "team1").Return(true, nil)
				tr.On("IsChief", mock.Anything, "user2", "team1").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
		{
			name:        "target outside the team",
			inspectorID: "chief1",
			userID:      "stranger",
			setupMocks: func(tr *MockTeamRepository, kr *MockTaskRepository) {
				tr.On("IsMember", mock.Anything, "stranger", "team1").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeams := new(MockTeamRepository)
			mockTasks := new(MockTaskRepository)

			tt.setupMocks(mockTeams, mockTasks)

			service := newTestTaskService(new(MockUserRepository), mockTeams, mockTasks)

			tasks, err := service.UserTasks(context.Background(), tt.inspectorID, "team1", tt.userID, true, 7)

			if tt.expectedError {
				require.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, tasks)
			} else {
				require.Nil(t, err)
				assert.NotNil(t, tasks)
			}

			mockTeams.AssertExpectations(t)
			mockTasks.AssertExpectations(t)
		})
	}
}
