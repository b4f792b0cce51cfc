package repository

import (
	"context"

	"crm/internal/domain/model"
)

// 履歴1件＋操作したユーザー名（JOINで解決）
type OrderHistoryRecord struct {
	model.OrderEditHistory
	Username string
}

// 注文履歴の追記・取得の約束。更新と削除は持たない。
type OrderHistoryRepository interface {
	Create(ctx context.Context, entry model.OrderEditHistory) error

	//新しい順
	ListByOrderID(ctx context.Context, orderID int64) ([]OrderHistoryRecord, error)
}
