package repository

import (
	"context"
	"errors"

	"crm/internal/domain/model"
)

// 一意制約違反や条件付き更新の空振り
var ErrConflict = errors.New("conflict")

type OrderListFilter struct {
	Page  int
	Limit int
	//空なら全ステータス
	Statuses []model.OrderStatus
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//行ロック付き（SELECT ... FOR UPDATE）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//statusがexpectedのままのときだけ書き込む。0件ならErrConflict。
	UpdateIfStatus(ctx context.Context, order model.Order, expected model.OrderStatus) error

	//採番ロックを取ってから現在の最大order_numberを返す（無ければ0）
	MaxOrderNumber(ctx context.Context) (int, error)
}
