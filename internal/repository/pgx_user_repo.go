package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/yakoovad/teamroom/internal/db"
)

type User struct {
	ID             string `db:"user_id"`
	Email          string `db:"email"`
	PasswordHash   string `db:"password"`
	FirstName      string `db:"first_name"`
	LastName       string `db:"last_name"`
	PatronymicName string `db:"patronymic_name"`
	IsActive       bool   `db:"is_active"`
	IsDeleted      bool   `db:"is_deleted"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) (string, error)
	Get(ctx context.Context, userID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Exists(ctx context.Context, userID string) (bool, error)
	SoftDelete(ctx context.Context, userID string) error
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgxUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgxUserRepository{pool: pool}
}

func (p *pgxUserRepository) Create(ctx context.Context, user *User) (string, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	id := uuid.NewString()

	q := psql.Insert(
		im.Into("users", "user_id", "email", "password", "first_name", "last_name", "patronymic_name", "is_active", "is_deleted"),
		im.Values(
			psql.Arg(id),
			psql.Arg(user.Email),
			psql.Arg(user.PasswordHash),
			psql.Arg(user.FirstName),
			psql.Arg(user.LastName),
			psql.Arg(user.PatronymicName),
			psql.Arg(true),
			psql.Arg(false),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return "", err
	}

	_, err = e.Exec(ctx, sql, args...)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", ErrAlreadyExists
	}
	if err != nil {
		return "", err
	}

	return id, nil
}

func (p *pgxUserRepository) Get(ctx context.Context, userID string) (*User, error) {
	return p.getBy(ctx, "user_id", userID)
}

func (p *pgxUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return p.getBy(ctx, "email", email)
}

func (p *pgxUserRepository) getBy(ctx context.Context, column, value string) (*User, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("user_id", "email", "password", "first_name", "last_name", "patronymic_name", "is_active", "is_deleted"),
		sm.From("users"),
		sm.Where(psql.Quote(column).EQ(psql.Arg(value))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	u := &User{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.PatronymicName,
		&u.IsActive,
		&u.IsDeleted,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (p *pgxUserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(psql.Raw("1")),
		sm.From("users"),
		sm.Where(psql.Quote("user_id").EQ(psql.Arg(userID)).
			And(psql.Quote("is_deleted").EQ(psql.Arg(false)))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return false, err
	}

	var one int
	if err = e.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *pgxUserRepository) SoftDelete(ctx context.Context, userID string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("users"),
		um.SetCol("is_deleted").ToArg(true),
		um.SetCol("is_active").ToArg(false),
		um.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
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
