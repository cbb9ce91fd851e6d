package screening

import "errors"

// Screening ドメインのエラー定義
var (
	ErrScreeningNotFound = errors.New("上映が見つかりません")
)
