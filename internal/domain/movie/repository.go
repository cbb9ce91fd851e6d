package movie

import "context"

// Repository は映画カタログのインターフェース（読み取り専用）
type Repository interface {
	// GetByID はIDから映画を取得する
	GetByID(ctx context.Context, id int64) (*Movie, error)

	// List は映画一覧をタイトル順で取得する
	List(ctx context.Context) ([]*Movie, error)
}
