package user

// User は利用者エンティティを表す
// コアの予約ロジックは UserID を不透明な識別子として扱うだけで、
// 認証情報の検証には関与しない
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
}
