package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/yakoovad/teamroom/internal/db"
)

type Team struct {
	ID     string `db:"team_id"`
	RoomID string `db:"room_id"`
	Name   string `db:"name"`
}

type TeamMember struct {
	UserID  string `db:"user_id"`
	Name    string `db:"name"`
	Role    string `db:"role"`
	Tag     string `db:"tag"`
	IsChief bool   `db:"is_chief"`
}

type TeamRepository interface {
	Create(ctx context.Context, roomID, name string) (string, error)
	Exists(ctx context.Context, teamID string) (bool, error)
	RoomID(ctx context.Context, teamID string) (string, error)
	AddMembers(ctx context.Context, teamID string, members []*TeamMember) error
	RemoveMembers(ctx context.Context, teamID string, userIDs []string) error
	RemoveMembersByRoom(ctx context.Context, roomID string, userIDs []string) error
	IsChief(ctx context.Context, userID, teamID string) (bool, error)
	IsMember(ctx context.Context, userID, teamID string) (bool, error)
	ListForUser(ctx context.Context, userID, roomID string) ([]*Team, error)
	ListMembers(ctx context.Context, teamID string) ([]*TeamMember, error)
}

type pgxTeamRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgxTeamRepository{pool: pool}
}

func (p *pgxTeamRepository) Create(ctx context.Context, roomID, name string) (string, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	id := uuid.NewString()

	q := psql.Insert(
		im.Into("teams_to_rooms", "team_id", "room_id", "name"),
		im.Values(psql.Arg(id), psql.Arg(roomID), psql.Arg(name)),
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

func (p *pgxTeamRepository) Exists(ctx context.Context, teamID string) (bool, error) {
	_, err := p.RoomID(ctx, teamID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RoomID resolves the room owning the team.
func (p *pgxTeamRepository) RoomID(ctx context.Context, teamID string) (string, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("room_id"),
		sm.From("teams_to_rooms"),
		sm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return "", err
	}

	var roomID string
	if err = e.QueryRow(ctx, sql, args...).Scan(&roomID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return roomID, nil
}

func (p *pgxTeamRepository) AddMembers(ctx context.Context, teamID string, members []*TeamMember) error {
	if len(members) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("teams", "team_id", "user_id", "name", "role", "tag", "is_chief"),
		im.OnConflict(psql.Quote("team_id"), psql.Quote("user_id")).DoNothing(),
	)

	for _, m := range members {
		q.Apply(im.Values(
			psql.Arg(teamID),
			psql.Arg(m.UserID),
			psql.Arg(m.Name),
			psql.Arg(m.Role),
			psql.Arg(m.Tag),
			psql.Arg(m.IsChief),
		))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return err
	}

	return nil
}

func (p *pgxTeamRepository) RemoveMembers(ctx context.Context, teamID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("teams"),
		dm.Where(
			psql.Quote("team_id").EQ(psql.Arg(teamID)).
				And(psql.Quote("user_id").In(psql.Arg(toAnySlice(userIDs)...))),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return err
	}

	return nil
}

// RemoveMembersByRoom drops the users' memberships in every team owned by
// the room. Used when users leave the room itself.
func (p *pgxTeamRepository) RemoveMembersByRoom(ctx context.Context, roomID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	teamsOfRoom := psql.Select(
		sm.Columns("team_id"),
		sm.From("teams_to_rooms"),
		sm.Where(psql.Quote("room_id").EQ(psql.Arg(roomID))),
	)

	q := psql.Delete(
		dm.From("teams"),
		dm.Where(
			psql.Quote("user_id").In(psql.Arg(toAnySlice(userIDs)...)).
				And(psql.Quote("team_id").In(teamsOfRoom)),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return err
	}

	return nil
}

func (p *pgxTeamRepository) IsChief(ctx context.Context, userID, teamID string) (bool, error) {
	return p.memberExists(ctx, userID, teamID, true)
}

func (p *pgxTeamRepository) IsMember(ctx context.Context, userID, teamID string) (bool, error) {
	return p.memberExists(ctx, userID, teamID, false)
}

func (p *pgxTeamRepository) memberExists(ctx context.Context, userID, teamID string, chiefOnly bool) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	cond := psql.Quote("team_id").EQ(psql.Arg(teamID)).
		And(psql.Quote("user_id").EQ(psql.Arg(userID)))
	if chiefOnly {
		cond = cond.And(psql.Quote("is_chief").EQ(psql.Arg(true)))
	}

	q := psql.Select(
		sm.Columns(psql.Raw("1")),
		sm.From("teams"),
		sm.Where(cond),
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

func (p *pgxTeamRepository) ListForUser(ctx context.Context, userID, roomID string) ([]*Team, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(psql.Quote("tr", "team_id"), psql.Quote("tr", "room_id"), psql.Quote("tr", "name")),
		sm.From("teams_to_rooms").As("tr"),
		sm.InnerJoin("teams").As("t").On(psql.Quote("t", "team_id").EQ(psql.Quote("tr", "team_id"))),
		sm.Where(
			psql.Quote("t", "user_id").EQ(psql.Arg(userID)).
				And(psql.Quote("tr", "room_id").EQ(psql.Arg(roomID))),
		),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Team, error) {
		team := &Team{}
		if err = row.Scan(&team.ID, &team.RoomID, &team.Name); err != nil {
			return nil, err
		}
		return team, nil
	})
}

func (p *pgxTeamRepository) ListMembers(ctx context.Context, teamID string) ([]*TeamMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("user_id", "name", "role", "tag", "is_chief"),
		sm.From("teams"),
		sm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*TeamMember, error) {
		m := &TeamMember{}
		if err = row.Scan(&m.UserID, &m.Name, &m.Role, &m.Tag, &m.IsChief); err != nil {
			return nil, err
		}
		return m, nil
	})
}
