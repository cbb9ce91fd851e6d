package room

// Room はスクリーン（上映室）エンティティを表す
type Room struct {
	ID   int64
	Name string
}

// Seat はスクリーン内の固定座席を表す（カタログ所有、読み取り専用）
type Seat struct {
	ID     int64
	RoomID int64
	Row    string
	Number int
	Label  string
}
