package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/room"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/transaction"
)

type seatRow struct {
	ID     int64  `db:"id"`
	RoomID int64  `db:"room_id"`
	Row    string `db:"seat_row"`
	Number int    `db:"number"`
	Label  string `db:"label"`
}

func (r *seatRow) toEntity() *room.Seat {
	return &room.Seat{ID: r.ID, RoomID: r.RoomID, Row: r.Row, Number: r.Number, Label: r.Label}
}

// RoomRepository はスクリーン・座席カタログのPostgreSQL実装
type RoomRepository struct{ db *sqlx.DB }

func NewRoomRepository(db *sqlx.DB) *RoomRepository { return &RoomRepository{db: db} }

func (r *RoomRepository) GetRoom(ctx context.Context, id int64) (*room.Room, error) {
	var row struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.GetContext(ctx, &row, `SELECT id, name FROM rooms WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, room.ErrRoomNotFound
		}
		return nil, fmt.Errorf("スクリーン取得に失敗: %w", err)
	}
	return &room.Room{ID: row.ID, Name: row.Name}, nil
}

func (r *RoomRepository) ListSeatsByRoom(ctx context.Context, roomID int64) ([]*room.Seat, error) {
	var rows []seatRow
	query := `SELECT id, room_id, seat_row, number, label FROM seats WHERE room_id = $1 ORDER BY seat_row ASC, number ASC`
	if err := r.db.SelectContext(ctx, &rows, query, roomID); err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", err)
	}
	seats := make([]*room.Seat, len(rows))
	for i := range rows {
		seats[i] = rows[i].toEntity()
	}
	return seats, nil
}

// GetSeatsByIDs は指定IDの座席カタログ行をトランザクション内で取得する
// 存在しないIDは結果から抜け落ちる
func (r *RoomRepository) GetSeatsByIDs(ctx context.Context, tx transaction.Tx, ids []int64) ([]*room.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sqlxTx := UnwrapTx(tx)
	var rows []seatRow
	query := `SELECT id, room_id, seat_row, number, label FROM seats WHERE id = ANY($1) ORDER BY seat_row ASC, number ASC`
	if err := sqlxTx.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	seats := make([]*room.Seat, len(rows))
	for i := range rows {
		seats[i] = rows[i].toEntity()
	}
	return seats, nil
}

var _ room.Repository = (*RoomRepository)(nil)
