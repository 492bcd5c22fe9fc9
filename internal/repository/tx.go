package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLTxRunner は*sql.DBベースのTxRunner実装。
type SQLTxRunner struct {
	db *sql.DB
}

// コンパイル時の型チェック
var _ TxRunner = (*SQLTxRunner)(nil)

// NewSQLTxRunner はSQLTxRunnerの新しいインスタンスを生成する。
func NewSQLTxRunner(db *sql.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

// InTx はfnをトランザクション内で実行する。
// fnのエラーをそのまま返すため、ドメインエラーは呼び出し元で判別できる。
func (r *SQLTxRunner) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}
