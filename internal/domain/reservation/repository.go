package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/transaction"
)

// ListFilter は予約一覧取得の絞り込み条件
type ListFilter struct {
	UserID      *int64
	ScreeningID *int64
	Status      *Status
	Limit       int
	Offset      int
}

// Repository は予約ストアのインターフェース
// 予約行と座席割当行を排他的に所有する。ライフサイクルと座席確保の
// 複数ステップの読み書きは、ここを通して1つのトランザクション内で行う
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id int64) (*Reservation, error)

	// GetByIDForUpdate は予約行と解決済みの上映情報を行ロック付きで取得する
	// 同一予約への並行する遷移・確保はこのロックで直列化される
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*WithScreening, error)

	// List は条件に合う予約一覧を取得する
	List(ctx context.Context, filter ListFilter) ([]*Reservation, error)

	// GetTakenSeatIDs は指定上映・指定座席集合のうち、キャンセルされていない
	// 予約に割当済みの座席IDを返す（競合の事前チェック用）
	GetTakenSeatIDs(ctx context.Context, tx transaction.Tx, screeningID int64, seatIDs []int64) ([]int64, error)

	// InsertAssignments は座席割当を一括追加する
	// (screening_id, seat_id) の一意制約に違反した場合は SeatsTakenError を返す
	InsertAssignments(ctx context.Context, tx transaction.Tx, reservationID, screeningID int64, seatIDs []int64, price int) error

	// RecomputeTotal は予約の合計金額を現在の割当の単価合計に更新し、新しい合計を返す
	RecomputeTotal(ctx context.Context, tx transaction.Tx, reservationID int64) (int, error)

	// SetStatus は状態と有効期限をアトミックに更新する
	SetStatus(ctx context.Context, tx transaction.Tx, id int64, status Status, expiresAt *time.Time) error

	// DeleteAssignments は予約の座席割当を全て削除する（キャンセル時）
	DeleteAssignments(ctx context.Context, tx transaction.Tx, reservationID int64) error

	// GetAssignmentsTx はトランザクション内で予約の割当一覧を取得する
	GetAssignmentsTx(ctx context.Context, tx transaction.Tx, reservationID int64) ([]Assignment, error)

	// GetAssignments は予約の割当一覧を取得する（参照系）
	GetAssignments(ctx context.Context, reservationID int64) ([]Assignment, error)

	// CountAssignments はトランザクション内で予約の割当件数を取得する
	CountAssignments(ctx context.Context, tx transaction.Tx, reservationID int64) (int, error)

	// GetExpiredPendingIDs は期限切れのpending予約のIDを取得する（外部スイープ用）
	GetExpiredPendingIDs(ctx context.Context, now time.Time, limit int) ([]int64, error)

	// CountByStatus は状態ごとの予約件数を取得する（メトリクス用）
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
