package reservation

import (
	"errors"
	"fmt"
)

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound = errors.New("予約が見つかりません")
	ErrNotPending          = errors.New("予約は保留中ではありません")
	ErrReservationExpired  = errors.New("予約の有効期限が切れています")
	ErrScreeningStarted    = errors.New("上映は既に開始しています")
	ErrInvalidTransition   = errors.New("この状態遷移は許可されていません")
	ErrNoSeats             = errors.New("座席が選択されていません")
	ErrInvalidStatus       = errors.New("不正な予約状態です")
	ErrInvalidSeatSet      = errors.New("座席IDの指定が不正です（重複除去後1〜20件の正の整数）")
	ErrUnknownSeat         = errors.New("存在しない座席が含まれています")
	ErrSeatWrongRoom       = errors.New("上映のスクリーンに属さない座席が含まれています")
	ErrInvalidSeatCount    = errors.New("座席数の指定が不正です（1〜10）")
)

// SeatsTakenError は他のアクティブな予約に確保済みの座席を要求したことを表す
// SeatIDs には衝突した座席IDが入る（コミット時の一意制約違反で検出した場合は空）
type SeatsTakenError struct {
	SeatIDs []int64
}

func (e *SeatsTakenError) Error() string {
	if len(e.SeatIDs) == 0 {
		return "座席は既に確保されています"
	}
	return fmt.Sprintf("座席は既に確保されています: %v", e.SeatIDs)
}
