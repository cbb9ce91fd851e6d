package room

import (
	"context"

	"github.com/sanosuguru/go-cinema-reservation/internal/domain/transaction"
)

// Repository はスクリーン・座席カタログのインターフェース（読み取り専用）
type Repository interface {
	// GetRoom はIDからスクリーンを取得する
	GetRoom(ctx context.Context, id int64) (*Room, error)

	// ListSeatsByRoom はスクリーンの座席一覧を列・番号順で取得する
	ListSeatsByRoom(ctx context.Context, roomID int64) ([]*Seat, error)

	// GetSeatsByIDs は指定IDの座席カタログ行を取得する
	// 存在しないIDは結果に含まれない（件数の照合は呼び出し側の責務）
	GetSeatsByIDs(ctx context.Context, tx transaction.Tx, ids []int64) ([]*Seat, error)
}
