package screening

import "time"

// Screening は上映エンティティを表す
// カタログ側が所有する読み取り専用のデータで、コアからは変更しない
type Screening struct {
	ID       int64
	MovieID  int64
	RoomID   int64
	StartsAt time.Time
	Language string
	Format   string
	Price    int // 座席単価（セント）
}

// HasStarted は指定時刻の時点で上映が開始済みかを返す
// 開始時刻ちょうども開始済みとして扱う（予約操作は開始前のみ有効）
func (s *Screening) HasStarted(now time.Time) bool {
	return !s.StartsAt.After(now)
}
