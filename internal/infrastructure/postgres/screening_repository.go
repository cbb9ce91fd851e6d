package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/screening"
)

type screeningRow struct {
	ID       int64     `db:"id"`
	MovieID  int64     `db:"movie_id"`
	RoomID   int64     `db:"room_id"`
	StartsAt time.Time `db:"starts_at"`
	Language string    `db:"language"`
	Format   string    `db:"format"`
	Price    int       `db:"price"`
}

func (r *screeningRow) toEntity() *screening.Screening {
	return &screening.Screening{
		ID: r.ID, MovieID: r.MovieID, RoomID: r.RoomID,
		StartsAt: r.StartsAt, Language: r.Language, Format: r.Format, Price: r.Price,
	}
}

// ScreeningRepository は上映カタログのPostgreSQL実装
type ScreeningRepository struct{ db *sqlx.DB }

func NewScreeningRepository(db *sqlx.DB) *ScreeningRepository {
	return &ScreeningRepository{db: db}
}

func (r *ScreeningRepository) GetByID(ctx context.Context, id int64) (*screening.Screening, error) {
	var row screeningRow
	query := `SELECT id, movie_id, room_id, starts_at, language, format, price FROM screenings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, screening.ErrScreeningNotFound
		}
		return nil, fmt.Errorf("上映取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ScreeningRepository) List(ctx context.Context, filter screening.ListFilter) ([]*screening.Screening, error) {
	query := `SELECT id, movie_id, room_id, starts_at, language, format, price FROM screenings WHERE 1=1`
	args := make([]interface{}, 0, 4)
	if filter.MovieID != nil {
		args = append(args, *filter.MovieID)
		query += " AND movie_id = $" + strconv.Itoa(len(args))
	}
	if filter.RoomID != nil {
		args = append(args, *filter.RoomID)
		query += " AND room_id = $" + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += " AND starts_at >= $" + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += " AND starts_at <= $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY starts_at ASC LIMIT 500"

	var rows []screeningRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("上映一覧取得に失敗: %w", err)
	}
	screenings := make([]*screening.Screening, len(rows))
	for i := range rows {
		screenings[i] = rows[i].toEntity()
	}
	return screenings, nil
}

// CountAvailableSeats はアクティブな予約に割当てられていない座席数を返す
func (r *ScreeningRepository) CountAvailableSeats(ctx context.Context, screeningID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*)
		FROM seats b
		INNER JOIN screenings s ON s.room_id = b.room_id
		WHERE s.id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM reservation_seats rs
			INNER JOIN reservations r ON r.id = rs.reservation_id
			WHERE rs.screening_id = s.id AND rs.seat_id = b.id AND r.status <> 'cancelled'
		  )`
	if err := r.db.GetContext(ctx, &count, query, screeningID); err != nil {
		return 0, fmt.Errorf("空席数の取得に失敗: %w", err)
	}
	return count, nil
}

// ListTakenSeatIDs はアクティブな予約に割当済みの座席IDを返す
func (r *ScreeningRepository) ListTakenSeatIDs(ctx context.Context, screeningID int64) ([]int64, error) {
	var ids []int64
	query := `SELECT rs.seat_id
		FROM reservation_seats rs
		INNER JOIN reservations r ON r.id = rs.reservation_id
		WHERE rs.screening_id = $1 AND r.status <> 'cancelled'
		ORDER BY rs.seat_id`
	if err := r.db.SelectContext(ctx, &ids, query, screeningID); err != nil {
		return nil, fmt.Errorf("割当済み座席の取得に失敗: %w", err)
	}
	return ids, nil
}

var _ screening.Repository = (*ScreeningRepository)(nil)
