package transaction

import "context"

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin は新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)

	// WithinTx はfnを1つのトランザクションの中で実行する
	// fnがエラーを返した場合は全ての書き込みを破棄してエラーをそのまま伝播し、
	// 成功した場合はアトミックにコミットする
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
