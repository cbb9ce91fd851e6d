package reservation

import "time"

// Status は予約の状態を表す閉じた列挙型
// pending / paid / cancelled 以外の状態は存在しない
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// ParseStatus は文字列をStatusに変換する
// 未知の文字列は黙って無視せず ErrInvalidStatus を返す
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// HoldDuration は仮押さえの有効期間（15分）
const HoldDuration = 15 * time.Minute

// MaxSeatsPerAllocation は1回の座席確保操作で指定できる座席数の上限
const MaxSeatsPerAllocation = 20

// Reservation は予約エンティティを表す
// ExpiresAt は pending の間のみ意味を持ち、pending を離れると nil になる
type Reservation struct {
	ID          int64
	UserID      int64
	ScreeningID int64
	Status      Status
	Total       int
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewReservation は新しい予約を作成する（pending、座席なし、合計0）
func NewReservation(userID, screeningID int64, now time.Time) *Reservation {
	expires := now.Add(HoldDuration)
	return &Reservation{
		UserID:      userID,
		ScreeningID: screeningID,
		Status:      StatusPending,
		Total:       0,
		ExpiresAt:   &expires,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsPending は予約が保留中かを返す
func (r *Reservation) IsPending() bool {
	return r.Status == StatusPending
}

// IsExpired は指定時刻の時点で仮押さえが失効しているかを返す
// 期限が設定されていない場合は失効扱いにしない
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// ScreeningInfo は予約に解決済みの上映情報
// 予約ドメインが必要とする範囲のみを持つ（カタログの所有はしない）
type ScreeningInfo struct {
	RoomID   int64
	StartsAt time.Time
	Price    int
}

// WithScreening は予約と上映情報をまとめて読み出した結果
type WithScreening struct {
	Reservation
	Screening ScreeningInfo
}

// Assignment は1つの予約・1つの上映・1つの座席の結び付きを表す
// Price は確保時点の単価で固定される（後から上映価格が変わっても再計算しない）
type Assignment struct {
	ReservationID int64
	ScreeningID   int64
	SeatID        int64
	Price         int

	// 表示用に引き当てた座席情報
	RoomID int64
	Row    string
	Number int
	Label  string
}
