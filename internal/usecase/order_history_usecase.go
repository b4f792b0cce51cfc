package usecase

import (
	"context"
	"time"

	"crm/internal/domain/model"
	repo "crm/internal/repository"
)

// 履歴1件の返却形
type HistoryEntryView struct {
	Timestamp    time.Time          `json:"timestamp"`
	User         string             `json:"user"`
	Action       string             `json:"action"`
	FieldChanges model.FieldChanges `json:"field_changes"`
}

type OrderHistoryUsecase struct {
	orders  repo.OrderRepository
	history repo.OrderHistoryRepository
}

func NewOrderHistoryUsecase(orders repo.OrderRepository, history repo.OrderHistoryRepository) *OrderHistoryUsecase {
	return &OrderHistoryUsecase{orders: orders, history: history}
}

// 注文の履歴を新しい順で返す。見えるかどうかは1件取得と同じ。
func (u *OrderHistoryUsecase) History(ctx context.Context, id model.Identity, orderID int64) ([]HistoryEntryView, error) {
	if !id.Valid() {
		return nil, ErrUnauthenticated()
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err, "order not found")
	}
	if !CanView(id.Role, o.Status) {
		return nil, ErrPermissionDenied("order is not visible for role " + string(id.Role))
	}

	rows, err := u.history.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err, "order not found")
	}

	out := make([]HistoryEntryView, 0, len(rows))
	for _, r := range rows {
		changes := r.FieldChanges
		if !seesContact(id.Role) {
			changes = changes.Without(contactFields...)
		}
		out = append(out, HistoryEntryView{
			Timestamp:    r.Timestamp,
			User:         r.Username,
			Action:       string(r.Action),
			FieldChanges: changes,
		})
	}
	return out, nil
}

// Tx内で履歴を1行追記する
func recordHistory(ctx context.Context, r repo.TxRepos, orderID, userID int64, action model.HistoryAction, changes model.FieldChanges, at time.Time) error {
	err := r.History().Create(ctx, model.OrderEditHistory{
		OrderID:      orderID,
		UserID:       userID,
		Action:       action,
		FieldChanges: changes,
		Timestamp:    at,
	})
	if err != nil {
		return ErrInternal("failed to write history")
	}
	return nil
}
