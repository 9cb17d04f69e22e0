package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/yakoovad/teamroom/internal/db"
	"github.com/yakoovad/teamroom/internal/model"
	"github.com/yakoovad/teamroom/internal/repository"
	"github.com/yakoovad/teamroom/pkg/logger"
	"go.uber.org/zap"
)

type CreateTaskInput struct {
	TeamID     string
	Name       string
	Text       string
	ExecutorID *string
	Priority   model.Priority
	Difficulty model.Difficulty
	Status     model.Status
	Deadline   *time.Time
}

type UpdateTaskInput struct {
	Name       *string
	Text       *string
	ExecutorID *string
	Priority   *model.Priority
	Difficulty *model.Difficulty
	Status     *model.Status
	Deadline   *time.Time
}

// TaskService enforces authorship/chief rights over tasks and computes
// completion statistics over a rolling day window.
type TaskService struct {
	tx db.Transactor

	users repository.UserRepository
	teams repository.TeamRepository
	tasks repository.TaskRepository

	now func() time.Time
}

func NewTaskService(tx db.Transactor) *TaskService {
	return &TaskService{
		tx:  tx,
		now: time.Now,
	}
}

// CreateTask persists a task authored by a team member. A named executor
// must belong to the team; a deadline must be strictly in the future.
func (t *TaskService) CreateTask(ctx context.Context, authorID string, input *CreateTaskInput) (string, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating task",
		zap.String("author_id", authorID),
		zap.String("team_id", input.TeamID),
		zap.String("task_name", input.Name))

	if !input.Priority.Valid() || !input.Difficulty.Valid() {
		return "", NewError(ErrorCodeInvalidBody, "unknown priority or difficulty")
	}
	if input.Status != "" && !input.Status.Valid() {
		return "", NewError(ErrorCodeInvalidBody, "unknown status")
	}
	if input.Deadline != nil && !input.Deadline.After(t.now()) {
		return "", NewError(ErrorCodeInvalidBody, "deadline must be in the future")
	}

	var taskID string

	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		authorExists, err := t.users.Exists(txCtx, authorID)
		if err != nil {
			l.Error("failed to check author", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check author")
		}
		if !authorExists {
			return NewError(ErrorCodeNotFound, "author not found")
		}

		teamExists, err := t.teams.Exists(txCtx, input.TeamID)
		if err != nil {
			l.Error("failed to check team", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check team")
		}
		if !teamExists {
			return NewError(ErrorCodeNotFound, "team not found")
		}

		member, err := t.teams.IsMember(txCtx, authorID, input.TeamID)
		if err != nil {
			l.Error("failed to check team membership", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to check team membership")
		}
		if !member {
			return NewError(ErrorCodeForbidden, "author is not a member of the team")
		}

		if input.ExecutorID != nil {
			executorInTeam, err := t.teams.IsMember(txCtx, *input.ExecutorID, input.TeamID)
			if err != nil {
				l.Error("failed to check executor", zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to check executor")
			}
			if !executorInTeam {
				return NewError(ErrorCodeInvalidBody, "executor is not a member of the team")
			}
		}

		status := input.Status
		if status == "" {
			status = model.StatusNoExecutor
			if input.ExecutorID != nil {
				status = model.StatusHasExecutor
			}
		}

		id, err := t.tasks.Create(txCtx, &repository.Task{
			TeamID:       input.TeamID,
			Name:         input.Name,
			Text:         input.Text,
			AuthorID:     authorID,
			ExecutorID:   input.ExecutorID,
			UpdateAuthor: &authorID,
			Priority:     string(input.Priority),
			Status:       string(status),
			Difficulty:   string(input.Difficulty),
			CreatedAt:    t.now(),
			Deadline:     input.Deadline,
			IsCompleted:  false,
		})
		if err != nil {
			l.Error("failed to create task", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create task")
		}

		taskID = id
		return nil
	})

	if serviceErr := asServiceError(err); serviceErr != nil {
		return "", serviceErr
	}

	return taskID, nil
}

// UpdateTask patches a task. Only the task author or a team chief may
// mutate it; changing the executor records the previous one in
// last_executor.
func (t *TaskService) UpdateTask(ctx context.Context, actorID, taskID string, input *UpdateTaskInput) (string, *Error) {
	l := logger.FromContext(ctx)

	if input.Priority != nil && !input.Priority.Valid() {
		return "", NewError(ErrorCodeInvalidBody, "unknown priority")
	}
	if input.Difficulty != nil && !input.Difficulty.Valid() {
		return "", NewError(ErrorCodeInvalidBody, "unknown difficulty")
	}
	if input.Status != nil && !input.Status.Valid() {
		return "", NewError(ErrorCodeInvalidBody, "unknown status")
	}
	if input.Deadline != nil && !input.Deadline.After(t.now()) {
		return "", NewError(ErrorCodeInvalidBody, "deadline must be in the future")
	}

	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		task, serviceErr := t.authorizeMutation(txCtx, actorID, taskID)
		if serviceErr != nil {
			return serviceErr
		}

		now := t.now()
		patch := &repository.TaskPatch{
			ID:           taskID,
			Name:         input.Name,
			Text:         input.Text,
			Deadline:     input.Deadline,
			UpdatedAt:    &now,
			UpdateAuthor: &actorID,
		}
		if input.Priority != nil {
			patch.Priority = (*string)(input.Priority)
		}
		if input.Difficulty != nil {
			patch.Difficulty = (*string)(input.Difficulty)
		}
		if input.Status != nil {
			patch.Status = (*string)(input.Status)
		}
		if input.ExecutorID != nil {
			patch.ExecutorID = input.ExecutorID
			if task.ExecutorID != nil && *task.ExecutorID != *input.ExecutorID {
				patch.LastExecutor = task.ExecutorID
			}
		}

		if err := t.tasks.Patch(txCtx, patch); err != nil {
			l.Error("failed to patch task", zap.String("task_id", taskID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to update task")
		}

		return nil
	})

	if serviceErr := asServiceError(err); serviceErr != nil {
		return "", serviceErr
	}

	return taskID, nil
}

// DeleteTask removes a task under the same authorization as UpdateTask.
func (t *TaskService) DeleteTask(ctx context.Context, actorID, taskID string) *Error {
	l := logger.FromContext(ctx)

	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if _, serviceErr := t.authorizeMutation(txCtx, actorID, taskID); serviceErr != nil {
			return serviceErr
		}

		if err := t.tasks.Delete(txCtx, taskID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewError(ErrorCodeNotFound, "task not found")
			}
			l.Error("failed to delete task", zap.String("task_id", taskID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to delete task")
		}

		return nil
	})

	return asServiceError(err)
}

// CompleteTask marks a task finished. Only the current executor may do it,
// and only once.
func (t *TaskService) CompleteTask(ctx context.Context, executorID, taskID string) *Error {
	l := logger.FromContext(ctx)

	_, err := t.tasks.Get(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "task not found")
	}
	if err != nil {
		l.Error("failed to get task", zap.String("task_id", taskID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to complete task")
	}

	affected, err := t.tasks.Complete(ctx, taskID, executorID, t.now())
	if err != nil {
		l.Error("failed to complete task", zap.String("task_id", taskID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to complete task")
	}
	if !affected {
		return NewError(ErrorCodeForbidden, "task is already completed or you are not its executor")
	}

	l.Info("task completed", zap.String("task_id", taskID), zap.String("executor_id", executorID))

	return nil
}

// TeamTasks lists a team's tasks for its chief, windowed by finish date
// when completed tasks are requested.
func (t *TaskService) TeamTasks(ctx context.Context, inspectorID, teamID string, completed bool, days int) ([]*model.Task, *Error) {
	if serviceErr := t.authorizeTeamInspection(ctx, inspectorID, teamID, days); serviceErr != nil {
		return nil, serviceErr
	}

	start, end := t.window(days)
	rows, err := t.tasks.ListForTeam(ctx, teamID, completed, start, end)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list team tasks", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list team tasks")
	}

	return toModelTasks(rows), nil
}

// UserTasks lists one member's tasks for the member themselves or the team
// chief.
func (t *TaskService) UserTasks(ctx context.Context, inspectorID, teamID, userID string, completed bool, days int) ([]*model.Task, *Error) {
	if serviceErr := t.authorizeUserInspection(ctx, inspectorID, teamID, userID, days); serviceErr != nil {
		return nil, serviceErr
	}

	start, end := t.window(days)
	rows, err := t.tasks.ListForUser(ctx, teamID, userID, completed, start, end)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list user tasks", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list user tasks")
	}

	return toModelTasks(rows), nil
}

func (t *TaskService) TeamStats(ctx context.Context, inspectorID, teamID string, days int) (*model.TaskStats, *Error) {
	if serviceErr := t.authorizeTeamInspection(ctx, inspectorID, teamID, days); serviceErr != nil {
		return nil, serviceErr
	}

	l := logger.FromContext(ctx)
	start, end := t.window(days)

	completed, err := t.tasks.CountTeamCompleted(ctx, teamID, start, end)
	if err != nil {
		l.Error("failed to count completed tasks", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to compute team statistics")
	}

	inProgress, err := t.tasks.CountTeamInProgress(ctx, teamID)
	if err != nil {
		l.Error("failed to count open tasks", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to compute team statistics")
	}

	return &model.TaskStats{Completed: completed, InProgress: inProgress}, nil
}

func (t *TaskService) UserStats(ctx context.Context, inspectorID, teamID, userID string, days int) (*model.TaskStats, *Error) {
	if serviceErr := t.authorizeUserInspection(ctx, inspectorID, teamID, userID, days); serviceErr != nil {
		return nil, serviceErr
	}

	l := logger.FromContext(ctx)
	start, end := t.window(days)

	completed, err := t.tasks.CountUserCompleted(ctx, teamID, userID, start, end)
	if err != nil {
		l.Error("failed to count completed tasks", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to compute user statistics")
	}

	inProgress, err := t.tasks.CountUserInProgress(ctx, teamID, userID)
	if err != nil {
		l.Error("failed to count open tasks", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to compute user statistics")
	}

	return &model.TaskStats{Completed: completed, InProgress: inProgress}, nil
}

// authorizeMutation loads the task and checks the actor is its author or a
// chief of its team.
func (t *TaskService) authorizeMutation(ctx context.Context, actorID, taskID string) (*repository.Task, *Error) {
	l := logger.FromContext(ctx)

	task, err := t.tasks.Get(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "task not found")
	}
	if err != nil {
		l.Error("failed to get task", zap.String("task_id", taskID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get task")
	}

	if task.AuthorID == actorID {
		return task, nil
	}

	chief, err := t.teams.IsChief(ctx, actorID, task.TeamID)
	if err != nil {
		l.Error("failed to check team chief", zap.String("team_id", task.TeamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to check team chief")
	}
	if !chief {
		return nil, NewError(ErrorCodeForbidden, "only the task author or a team chief can modify the task")
	}

	return task, nil
}

func (t *TaskService) authorizeTeamInspection(ctx context.Context, inspectorID, teamID string, days int) *Error {
	l := logger.FromContext(ctx)

	if days < 1 {
		return NewError(ErrorCodeInvalidBody, "days must be at least 1")
	}

	exists, err := t.teams.Exists(ctx, teamID)
	if err != nil {
		l.Error("failed to check team", zap.String("team_id", teamID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check team")
	}
	if !exists {
		return NewError(ErrorCodeNotFound, "team not found")
	}

	chief, err := t.teams.IsChief(ctx, inspectorID, teamID)
	if err != nil {
		l.Error("failed to check team chief", zap.String("team_id", teamID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check team chief")
	}
	if !chief {
		return NewError(ErrorCodeForbidden, "only the team chief can inspect team tasks")
	}

	return nil
}

func (t *TaskService) authorizeUserInspection(ctx context.Context, inspectorID, teamID, userID string, days int) *Error {
	l := logger.FromContext(ctx)

	if days < 1 {
		return NewError(ErrorCodeInvalidBody, "days must be at least 1")
	}

	member, err := t.teams.IsMember(ctx, userID, teamID)
	if err != nil {
		l.Error("failed to check team membership", zap.String("team_id", teamID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check team membership")
	}
	if !member {
		return NewError(ErrorCodeNotFound, "user is not a member of the team")
	}

	if inspectorID == userID {
		return nil
	}

	chief, err := t.teams.IsChief(ctx, inspectorID, teamID)
	if err != nil {
		l.Error("failed to check team chief", zap.String("team_id", teamID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check team chief")
	}
	if !chief {
		return NewError(ErrorCodeForbidden, "only the user or the team chief can inspect these tasks")
	}

	return nil
}

func (t *TaskService) window(days int) (time.Time, time.Time) {
	end := t.now()
	return end.AddDate(0, 0, -days), end
}

func toModelTasks(rows []*repository.Task) []*model.Task {
	tasks := make([]*model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, &model.Task{
			ID:           row.ID,
			TeamID:       row.TeamID,
			Name:         row.Name,
			Text:         row.Text,
			AuthorID:     row.AuthorID,
			ExecutorID:   row.ExecutorID,
			LastExecutor: row.LastExecutor,
			UpdateAuthor: row.UpdateAuthor,
			Priority:     model.Priority(row.Priority),
			Difficulty:   model.Difficulty(row.Difficulty),
			Status:       model.Status(row.Status),
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
			Deadline:     row.Deadline,
			FinishedAt:   row.FinishedAt,
			IsCompleted:  row.IsCompleted,
		})
	}
	return tasks
}

func (t *TaskService) WithUserRepo(r repository.UserRepository) *TaskService {
	t.users = r
	return t
}

func (t *TaskService) WithTeamRepo(r repository.TeamRepository) *TaskService {
	t.teams = r
	return t
}

func (t *TaskService) WithTaskRepo(r repository.TaskRepository) *TaskService {
	t.tasks = r
	return t
}

// WithClock overrides the time source, used by tests.
func (t *TaskService) WithClock(now func() time.Time) *TaskService {
	t.now = now
	return t
}
