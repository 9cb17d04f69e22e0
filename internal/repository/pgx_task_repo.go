package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/teamroom/internal/db"
)

type Task struct {
	ID           string     `db:"task_id"`
	TeamID       string     `db:"team_id"`
	Name         string     `db:"task_name"`
	Text         string     `db:"task_text"`
	AuthorID     string     `db:"author"`
	ExecutorID   *string    `db:"executor"`
	UpdateAuthor *string    `db:"task_update_author"`
	LastExecutor *string    `db:"last_executor"`
	Priority     string     `db:"priority"`
	Status       string     `db:"status"`
	Difficulty   string     `db:"difficulty"`
	CreatedAt    time.Time  `db:"task_create_date"`
	UpdatedAt    *time.Time `db:"task_update_date"`
	Deadline     *time.Time `db:"task_deadline_date"`
	FinishedAt   *time.Time `db:"task_finish_date"`
	IsCompleted  bool       `db:"is_completed"`
}

// TaskPatch applies only the set fields. LastExecutor, UpdatedAt and
// UpdateAuthor are stamped by the service before the patch reaches the
// repository.
type TaskPatch struct {
	ID           string
	Name         *string
	Text         *string
	ExecutorID   *string
	LastExecutor *string
	Priority     *string
	Status       *string
	Difficulty   *string
	Deadline     *time.Time
	UpdatedAt    *time.Time
	UpdateAuthor *string
}

type TaskRepository interface {
	Create(ctx context.Context, task *Task) (string, error)
	Get(ctx context.Context, taskID string) (*Task, error)
	Patch(ctx context.Context, patch *TaskPatch) error
	Delete(ctx context.Context, taskID string) error
	Complete(ctx context.Context, taskID, executorID string, finishedAt time.Time) (bool, error)
	ListForTeam(ctx context.Context, teamID string, completed bool, start, end time.Time) ([]*Task, error)
	ListForUser(ctx context.Context, teamID, userID string, completed bool, start, end time.Time) ([]*Task, error)
	CountTeamCompleted(ctx context.Context, teamID string, start, end time.Time) (int, error)
	CountTeamInProgress(ctx context.Context, teamID string) (int, error)
	CountUserCompleted(ctx context.Context, teamID, userID string, start, end time.Time) (int, error)
	CountUserInProgress(ctx context.Context, teamID, userID string) (int, error)
}

type pgxTaskRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &pgxTaskRepository{pool: pool}
}

var taskColumns = []string{
	"task_id", "team_id", "task_name", "task_text", "author", "executor",
	"task_update_author", "last_executor", "priority", "status", "difficulty",
	"task_create_date", "task_update_date", "task_deadline_date", "task_finish_date",
	"is_completed",
}

func scanTask(row pgx.Row) (*Task, error) {
	t := &Task{}
	err := row.Scan(
		&t.ID, &t.TeamID, &t.Name, &t.Text, &t.AuthorID, &t.ExecutorID,
		&t.UpdateAuthor, &t.LastExecutor, &t.Priority, &t.Status, &t.Difficulty,
		&t.CreatedAt, &t.UpdatedAt, &t.Deadline, &t.FinishedAt,
		&t.IsCompleted,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *pgxTaskRepository) Create(ctx context.Context, task *Task) (string, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	id := uuid.NewString()

	q := psql.Insert(
		im.Into("tasks", taskColumns...),
		im.Values(
			psql.Arg(id),
			psql.Arg(task.TeamID),
			psql.Arg(task.Name),
			psql.Arg(task.Text),
			psql.Arg(task.AuthorID),
			psql.Arg(task.ExecutorID),
			psql.Arg(task.UpdateAuthor),
			psql.Arg(task.LastExecutor),
			psql.Arg(task.Priority),
			psql.Arg(task.Status),
			psql.Arg(task.Difficulty),
			psql.Arg(task.CreatedAt),
			psql.Arg(task.UpdatedAt),
			psql.Arg(task.Deadline),
			psql.Arg(task.FinishedAt),
			psql.Arg(task.IsCompleted),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return "", err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return "", err
	}

	return id, nil
}

func (p *pgxTaskRepository) Get(ctx context.Context, taskID string) (*Task, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(toAnySlice(taskColumns)...),
		sm.From("tasks"),
		sm.Where(psql.Quote("task_id").EQ(psql.Arg(taskID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	task, err := scanTask(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (p *pgxTaskRepository) Patch(ctx context.Context, patch *TaskPatch) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 8)

	if patch.Name != nil {
		sets = append(sets, um.SetCol("task_name").ToArg(*patch.Name))
	}
	if patch.Text != nil {
		sets = append(sets, um.SetCol("task_text").ToArg(*patch.Text))
	}
	if patch.ExecutorID != nil {
		sets = append(sets, um.SetCol("executor").ToArg(*patch.ExecutorID))
	}
	if patch.LastExecutor != nil {
		sets = append(sets, um.SetCol("last_executor").ToArg(*patch.LastExecutor))
	}
	if patch.Priority != nil {
		sets = append(sets, um.SetCol("priority").ToArg(*patch.Priority))
	}
	if patch.Status != nil {
		sets = append(sets, um.SetCol("status").ToArg(*patch.Status))
	}
	if patch.Difficulty != nil {
		sets = append(sets, um.SetCol("difficulty").ToArg(*patch.Difficulty))
	}
	if patch.Deadline != nil {
		sets = append(sets, um.SetCol("task_deadline_date").ToArg(*patch.Deadline))
	}
	if patch.UpdatedAt != nil {
		sets = append(sets, um.SetCol("task_update_date").ToArg(*patch.UpdatedAt))
	}
	if patch.UpdateAuthor != nil {
		sets = append(sets, um.SetCol("task_update_author").ToArg(*patch.UpdateAuthor))
	}

	q := psql.Update(
		um.Table("tasks"),
		um.Where(psql.Quote("task_id").EQ(psql.Arg(patch.ID))),
	)

	q.Apply(sets...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgxTaskRepository) Delete(ctx context.Context, taskID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("tasks"),
		dm.Where(psql.Quote("task_id").EQ(psql.Arg(taskID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Complete marks the task finished only when executed by its current
// executor and not already completed. Returns whether a row was affected.
func (p *pgxTaskRepository) Complete(ctx context.Context, taskID, executorID string, finishedAt time.Time) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("tasks"),
		um.SetCol("is_completed").ToArg(true),
		um.SetCol("task_finish_date").ToArg(finishedAt),
		um.SetCol("status").ToArg("completed"),
		um.Where(
			psql.Quote("task_id").EQ(psql.Arg(taskID)).
				And(psql.Quote("executor").EQ(psql.Arg(executorID))).
				And(psql.Quote("is_completed").EQ(psql.Arg(false))),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return false, err
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *pgxTaskRepository) ListForTeam(ctx context.Context, teamID string, completed bool, start, end time.Time) ([]*Task, error) {
	cond := psql.Quote("team_id").EQ(psql.Arg(teamID))
	return p.list(ctx, cond, completed, start, end)
}

func (p *pgxTaskRepository) ListForUser(ctx context.Context, teamID, userID string, completed bool, start, end time.Time) ([]*Task, error) {
	cond := psql.Quote("team_id").EQ(psql.Arg(teamID)).
		And(psql.Quote("executor").EQ(psql.Arg(userID)))
	return p.list(ctx, cond, completed, start, end)
}

func (p *pgxTaskRepository) list(ctx context.Context, cond dialect.Expression, completed bool, start, end time.Time) ([]*Task, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	// Completed listings are windowed by finish date; open tasks are
	// returned regardless of age.
	if completed {
		cond = cond.
			And(psql.Quote("is_completed").EQ(psql.Arg(true))).
			And(psql.Quote("task_finish_date").GTE(psql.Arg(start))).
			And(psql.Quote("task_finish_date").LTE(psql.Arg(end)))
	} else {
		cond = cond.And(psql.Quote("is_completed").EQ(psql.Arg(false)))
	}

	q := psql.Select(
		sm.Columns(toAnySlice(taskColumns)...),
		sm.From("tasks"),
		sm.Where(cond),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Task, error) {
		return scanTask(row)
	})
}

func (p *pgxTaskRepository) CountTeamCompleted(ctx context.Context, teamID string, start, end time.Time) (int, error) {
	cond := psql.Quote("team_id").EQ(psql.Arg(teamID)).
		And(psql.Quote("is_completed").EQ(psql.Arg(true))).
		And(psql.Quote("task_finish_date").GTE(psql.Arg(start))).
		And(psql.Quote("task_finish_date").LTE(psql.Arg(end)))
	return p.count(ctx, cond)
}

func (p *pgxTaskRepository) CountTeamInProgress(ctx context.Context, teamID string) (int, error) {
	cond := psql.Quote("team_id").EQ(psql.Arg(teamID)).
		And(psql.Quote("is_completed").EQ(psql.Arg(false)))
	return p.count(ctx, cond)
}

func (p *pgxTaskRepository) CountUserCompleted(ctx context.Context, teamID, userID string, start, end time.Time) (int, error) {
	cond := psql.Quote("team_id").EQ(psql.Arg(teamID)).
		And(psql.Quote("executor").EQ(psql.Arg(userID))).
		And(psql.Quote("is_completed").EQ(psql.Arg(true))).
		And(psql.Quote("task_finish_date").GTE(psql.Arg(start))).
		And(psql.Quote("task_finish_date").LTE(psql.Arg(end)))
	return p.count(ctx, cond)
}

func (p *pgxTaskRepository) CountUserInProgress(ctx context.Context, teamID, userID string) (int, error) {
	cond := psql.Quote("team_id").EQ(psql.Arg(teamID)).
		And(psql.Quote("executor").EQ(psql.Arg(userID))).
		And(psql.Quote("is_completed").EQ(psql.Arg(false)))
	return p.count(ctx, cond)
}

func (p *pgxTaskRepository) count(ctx context.Context, cond dialect.Expression) (int, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(psql.Raw("count(*)")),
		sm.From("tasks"),
		sm.Where(cond),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err = e.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
