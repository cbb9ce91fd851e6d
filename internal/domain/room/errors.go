package room

import "errors"

var (
	ErrRoomNotFound = errors.New("スクリーンが見つかりません")
	ErrSeatNotFound = errors.New("座席が見つかりません")
)
