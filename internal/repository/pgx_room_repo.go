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

type Room struct {
	ID    string   `db:"room_id"`
	Name  string   `db:"name"`
	Roles []string `db:"list_role"`
	Tags  []string `db:"list_tag"`
}

type RoomMember struct {
	UserID  string `db:"user_id"`
	IsChief bool   `db:"is_chief"`
}

type RoomRepository interface {
	Create(ctx context.Context, room *Room) (string, error)
	Exists(ctx context.Context, roomID string) (bool, error)
	AddMembers(ctx context.Context, roomID string, members []*RoomMember) error
	RemoveMembers(ctx context.Context, roomID string, userIDs []string) error
	IsChief(ctx context.Context, userID, roomID string) (bool, error)
	MemberIDs(ctx context.Context, roomID string, userIDs []string) ([]string, error)
	ListForUser(ctx context.Context, userID string) ([]*Room, error)
	ListMembers(ctx context.Context, roomID string) ([]*RoomMember, error)
}

type pgxRoomRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRoomRepository(pool *pgxpool.Pool) RoomRepository {
	return &pgxRoomRepository{pool: pool}
}

func (p *pgxRoomRepository) Create(ctx context.Context, room *Room) (string, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	id := uuid.NewString()

	q := psql.Insert(
		im.Into("rooms", "room_id", "name", "list_role", "list_tag"),
		im.Values(psql.Arg(id), psql.Arg(room.Name), psql.Arg(room.Roles), psql.Arg(room.Tags)),
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

func (p *pgxRoomRepository) Exists(ctx context.Context, roomID string) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(psql.Raw("1")),
		sm.From("rooms"),
		sm.Where(psql.Quote("room_id").EQ(psql.Arg(roomID))),
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

// AddMembers inserts membership rows, silently skipping users that are
// already members of the room.
func (p *pgxRoomRepository) AddMembers(ctx context.Context, roomID string, members []*RoomMember) error {
	if len(members) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("users_to_rooms", "user_id", "room_id", "is_chief"),
		im.OnConflict(psql.Quote("user_id"), psql.Quote("room_id")).DoNothing(),
	)

	for _, m := range members {
		q.Apply(im.Values(psql.Arg(m.UserID), psql.Arg(roomID), psql.Arg(m.IsChief)))
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

func (p *pgxRoomRepository) RemoveMembers(ctx context.Context, roomID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("users_to_rooms"),
		dm.Where(
			psql.Quote("room_id").EQ(psql.Arg(roomID)).
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

func (p *pgxRoomRepository) IsChief(ctx context.Context, userID, roomID string) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(psql.Raw("1")),
		sm.From("users_to_rooms"),
		sm.Where(
			psql.Quote("user_id").EQ(psql.Arg(userID)).
				And(psql.Quote("room_id").EQ(psql.Arg(roomID))).
				And(psql.Quote("is_chief").EQ(psql.Arg(true))),
		),
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

// MemberIDs returns the subset of userIDs that are members of the room.
func (p *pgxRoomRepository) MemberIDs(ctx context.Context, roomID string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("user_id"),
		sm.From("users_to_rooms"),
		sm.Where(
			psql.Quote("room_id").EQ(psql.Arg(roomID)).
				And(psql.Quote("user_id").In(psql.Arg(toAnySlice(userIDs)...))),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var id string
		if err = row.Scan(&id); err != nil {
			return "", err
		}
		return id, nil
	})
}

func (p *pgxRoomRepository) ListForUser(ctx context.Context, userID string) ([]*Room, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(psql.Quote("r", "room_id"), psql.Quote("r", "name"), psql.Quote("r", "list_role"), psql.Quote("r", "list_tag")),
		sm.From("rooms").As("r"),
		sm.InnerJoin("users_to_rooms").As("ur").On(psql.Quote("ur", "room_id").EQ(psql.Quote("r", "room_id"))),
		sm.Where(psql.Quote("ur", "user_id").EQ(psql.Arg(userID))),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Room, error) {
		room := &Room{}
		if err = row.Scan(&room.ID, &room.Name, &room.Roles, &room.Tags); err != nil {
			return nil, err
		}
		return room, nil
	})
}

func (p *pgxRoomRepository) ListMembers(ctx context.Context, roomID string) ([]*RoomMember, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("user_id", "is_chief"),
		sm.From("users_to_rooms"),
		sm.Where(psql.Quote("room_id").EQ(psql.Arg(roomID))),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*RoomMember, error) {
		m := &RoomMember{}
		if err = row.Scan(&m.UserID, &m.IsChief); err != nil {
			return nil, err
		}
		return m, nil
	})
}

func toAnySlice(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}
