package screening

import (
	"context"
	"time"
)

// ListFilter は上映一覧取得の絞り込み条件
type ListFilter struct {
	MovieID *int64
	RoomID  *int64
	From    *time.Time
	To      *time.Time
}

// Repository は上映カタログのインターフェース（読み取り専用）
type Repository interface {
	// GetByID はIDから上映を取得する
	GetByID(ctx context.Context, id int64) (*Screening, error)

	// List は条件に合う上映一覧を開始時刻順で取得する
	List(ctx context.Context, filter ListFilter) ([]*Screening, error)

	// CountAvailableSeats は上映のスクリーンの座席のうち、アクティブな
	// 予約に割当てられていない座席数を返す
	CountAvailableSeats(ctx context.Context, screeningID int64) (int, error)

	// ListTakenSeatIDs はアクティブな予約に割当済みの座席IDを返す
	ListTakenSeatIDs(ctx context.Context, screeningID int64) ([]int64, error)
}
