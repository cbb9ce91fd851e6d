package clock

import "time"

// Clock は現在時刻の供給源
// 有効期限や上映開始の判定をテスト可能にするため注入で渡す
type Clock interface {
	Now() time.Time
}

// Real はシステム時計を使うClock実装
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}
