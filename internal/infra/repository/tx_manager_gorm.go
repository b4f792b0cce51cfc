package repository

import (
	"context"

	repo "crm/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders  repo.OrderRepository
	history repo.OrderHistoryRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository          { return r.orders }
func (r *txReposGorm) History() repo.OrderHistoryRepository { return r.history }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:  NewOrderGormRepository(tx),
			history: NewOrderHistoryGormRepository(tx),
		}
		return fn(r)
	})
}
