package movie

import "errors"

var (
	ErrMovieNotFound = errors.New("映画が見つかりません")
)
