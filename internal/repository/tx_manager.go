package repository

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	History() OrderHistoryRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返したらロールバック。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
