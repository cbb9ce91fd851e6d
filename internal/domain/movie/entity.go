package movie

// Movie は映画エンティティを表す（カタログ所有、読み取り専用）
type Movie struct {
	ID          int64
	Title       string
	DurationMin int
	PosterURL   string
	Synopsis    string
}
