package usecase

import (
	"context"

	"crm/internal/domain/model"
	repo "crm/internal/repository"
)

// confirm時のorder_number採番。
// 必ずWithinTxの中で呼ぶ（MaxOrderNumberがTx単位のロックを取る）。
type OrderNumberAllocator struct {
	failClosed bool
}

// failClosed=falseのときは上限に達しても9999を返し、一意制約に任せる
func NewOrderNumberAllocator(failClosed bool) *OrderNumberAllocator {
	return &OrderNumberAllocator{failClosed: failClosed}
}

func (a *OrderNumberAllocator) Next(ctx context.Context, orders repo.OrderRepository) (int, error) {
	max, err := orders.MaxOrderNumber(ctx)
	if err != nil {
		return 0, mapRepoError(err, "order not found")
	}
	if max >= model.MaxOrderNumber {
		if a.failClosed {
			return 0, ErrConflict("order numbers exhausted")
		}
		return model.MaxOrderNumber, nil
	}
	return max + 1, nil
}
