package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-cinema-reservation/internal/domain/transaction"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード
const uniqueViolation = "23505"

type reservationRow struct {
	ID          int64      `db:"id"`
	UserID      int64      `db:"user_id"`
	ScreeningID int64      `db:"screening_id"`
	Status      string     `db:"status"`
	Total       int        `db:"total"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID: r.ID, UserID: r.UserID, ScreeningID: r.ScreeningID,
		Status: reservation.Status(r.Status), Total: r.Total,
		ExpiresAt: r.ExpiresAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type reservationWithScreeningRow struct {
	reservationRow
	RoomID   int64     `db:"room_id"`
	StartsAt time.Time `db:"starts_at"`
	Price    int       `db:"price"`
}

type assignmentRow struct {
	ReservationID int64  `db:"reservation_id"`
	ScreeningID   int64  `db:"screening_id"`
	SeatID        int64  `db:"seat_id"`
	Price         int    `db:"price"`
	RoomID        int64  `db:"room_id"`
	Row           string `db:"seat_row"`
	Number        int    `db:"number"`
	Label         string `db:"label"`
}

func (a *assignmentRow) toEntity() reservation.Assignment {
	return reservation.Assignment{
		ReservationID: a.ReservationID, ScreeningID: a.ScreeningID,
		SeatID: a.SeatID, Price: a.Price,
		RoomID: a.RoomID, Row: a.Row, Number: a.Number, Label: a.Label,
	}
}

// ReservationRepository は予約ストアのPostgreSQL実装
type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	query := `INSERT INTO reservations (user_id, screening_id, status, total, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		res.UserID, res.ScreeningID, string(res.Status), res.Total, res.ExpiresAt, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT id, user_id, screening_id, status, total, expires_at, created_at, updated_at
		FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate は予約行をFOR UPDATEでロックし、上映情報と合わせて返す
// 同一予約への遷移・座席確保はこの行ロックで直列化される
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*reservation.WithScreening, error) {
	sqlxTx := UnwrapTx(tx)
	var row reservationWithScreeningRow
	query := `SELECT r.id, r.user_id, r.screening_id, r.status, r.total, r.expires_at, r.created_at, r.updated_at,
			s.room_id, s.starts_at, s.price
		FROM reservations r
		INNER JOIN screenings s ON s.id = r.screening_id
		WHERE r.id = $1
		FOR UPDATE OF r`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return &reservation.WithScreening{
		Reservation: *row.reservationRow.toEntity(),
		Screening: reservation.ScreeningInfo{
			RoomID: row.RoomID, StartsAt: row.StartsAt, Price: row.Price,
		},
	}, nil
}

func (r *ReservationRepository) List(ctx context.Context, filter reservation.ListFilter) ([]*reservation.Reservation, error) {
	query := `SELECT id, user_id, screening_id, status, total, expires_at, created_at, updated_at
		FROM reservations WHERE 1=1`
	args := make([]interface{}, 0, 5)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += " AND user_id = $" + strconv.Itoa(len(args))
	}
	if filter.ScreeningID != nil {
		args = append(args, *filter.ScreeningID)
		query += " AND screening_id = $" + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	args = append(args, limit)
	query += " ORDER BY id DESC LIMIT $" + strconv.Itoa(len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

// GetTakenSeatIDs はキャンセルされていない予約に割当済みの座席IDを返す
// キャンセル時に割当行は物理削除されるため結合は保険だが、仕様通り
// 「アクティブな予約の割当のみ」を数える形にしておく
func (r *ReservationRepository) GetTakenSeatIDs(ctx context.Context, tx transaction.Tx, screeningID int64, seatIDs []int64) ([]int64, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	sqlxTx := UnwrapTx(tx)
	var taken []int64
	query := `SELECT rs.seat_id
		FROM reservation_seats rs
		INNER JOIN reservations r ON r.id = rs.reservation_id
		WHERE rs.screening_id = $1 AND rs.seat_id = ANY($2) AND r.status <> 'cancelled'
		ORDER BY rs.seat_id`
	if err := sqlxTx.SelectContext(ctx, &taken, query, screeningID, pq.Array(seatIDs)); err != nil {
		return nil, fmt.Errorf("占有座席の確認に失敗: %w", err)
	}
	return taken, nil
}

// InsertAssignments は座席割当をマルチバリューINSERTで追加する
// (screening_id, seat_id) の一意インデックスが競合時の最終的な守りで、
// 違反はSeatsTakenErrorに変換する
func (r *ReservationRepository) InsertAssignments(ctx context.Context, tx transaction.Tx, reservationID, screeningID int64, seatIDs []int64, price int) error {
	if len(seatIDs) == 0 {
		return nil
	}
	sqlxTx := UnwrapTx(tx)

	query := `INSERT INTO reservation_seats (reservation_id, screening_id, seat_id, price) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*4)
	placeholders := make([]string, 0, len(seatIDs))
	for i, seatID := range seatIDs {
		base := i * 4
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4))
		args = append(args, reservationID, screeningID, seatID, price)
	}
	query += strings.Join(placeholders, ", ")

	if _, err := sqlxTx.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &reservation.SeatsTakenError{}
		}
		return fmt.Errorf("座席割当の追加に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) RecomputeTotal(ctx context.Context, tx transaction.Tx, reservationID int64) (int, error) {
	sqlxTx := UnwrapTx(tx)
	var total int
	query := `UPDATE reservations
		SET total = COALESCE((SELECT SUM(price) FROM reservation_seats WHERE reservation_id = $1), 0),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING total`
	if err := sqlxTx.QueryRowContext(ctx, query, reservationID).Scan(&total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, reservation.ErrReservationNotFound
		}
		return 0, fmt.Errorf("合計金額の再計算に失敗: %w", err)
	}
	return total, nil
}

func (r *ReservationRepository) SetStatus(ctx context.Context, tx transaction.Tx, id int64, status reservation.Status, expiresAt *time.Time) error {
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE reservations SET status = $1, expires_at = $2, updated_at = NOW() WHERE id = $3`
	result, err := sqlxTx.ExecContext(ctx, query, string(status), expiresAt, id)
	if err != nil {
		return fmt.Errorf("予約状態の更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) DeleteAssignments(ctx context.Context, tx transaction.Tx, reservationID int64) error {
	sqlxTx := UnwrapTx(tx)
	if _, err := sqlxTx.ExecContext(ctx, `DELETE FROM reservation_seats WHERE reservation_id = $1`, reservationID); err != nil {
		return fmt.Errorf("座席割当の削除に失敗: %w", err)
	}
	return nil
}

const assignmentSelect = `SELECT rs.reservation_id, rs.screening_id, rs.seat_id, rs.price,
		b.room_id, b.seat_row, b.number, b.label
	FROM reservation_seats rs
	INNER JOIN seats b ON b.id = rs.seat_id
	WHERE rs.reservation_id = $1
	ORDER BY b.seat_row, b.number`

func (r *ReservationRepository) GetAssignmentsTx(ctx context.Context, tx transaction.Tx, reservationID int64) ([]reservation.Assignment, error) {
	sqlxTx := UnwrapTx(tx)
	var rows []assignmentRow
	if err := sqlxTx.SelectContext(ctx, &rows, assignmentSelect, reservationID); err != nil {
		return nil, fmt.Errorf("座席割当の取得に失敗: %w", err)
	}
	return toAssignments(rows), nil
}

func (r *ReservationRepository) GetAssignments(ctx context.Context, reservationID int64) ([]reservation.Assignment, error) {
	var rows []assignmentRow
	if err := r.db.SelectContext(ctx, &rows, assignmentSelect, reservationID); err != nil {
		return nil, fmt.Errorf("座席割当の取得に失敗: %w", err)
	}
	return toAssignments(rows), nil
}

func toAssignments(rows []assignmentRow) []reservation.Assignment {
	assignments := make([]reservation.Assignment, len(rows))
	for i := range rows {
		assignments[i] = rows[i].toEntity()
	}
	return assignments
}

func (r *ReservationRepository) CountAssignments(ctx context.Context, tx transaction.Tx, reservationID int64) (int, error) {
	sqlxTx := UnwrapTx(tx)
	var count int
	if err := sqlxTx.GetContext(ctx, &count, `SELECT COUNT(*) FROM reservation_seats WHERE reservation_id = $1`, reservationID); err != nil {
		return 0, fmt.Errorf("座席割当件数の取得に失敗: %w", err)
	}
	return count, nil
}

func (r *ReservationRepository) GetExpiredPendingIDs(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []int64
	query := `SELECT id FROM reservations
		WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at LIMIT $2`
	if err := r.db.SelectContext(ctx, &ids, query, now, limit); err != nil {
		return nil, fmt.Errorf("期限切れ予約の取得に失敗: %w", err)
	}
	return ids, nil
}

func (r *ReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM reservations GROUP BY status`); err != nil {
		return nil, fmt.Errorf("予約件数の集計に失敗: %w", err)
	}
	counts := make(map[reservation.Status]int, len(rows))
	for _, row := range rows {
		counts[reservation.Status(row.Status)] = row.Count
	}
	return counts, nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
