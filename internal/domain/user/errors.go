package user

import "errors"

var (
	ErrUserNotFound       = errors.New("ユーザーが見つかりません")
	ErrInvalidCredentials = errors.New("メールアドレスまたはパスワードが正しくありません")
	ErrInvalidToken       = errors.New("トークンが不正です")
)
