package repository

import (
	"context"

	"crm/internal/domain/model"
	repo "crm/internal/repository"

	"gorm.io/gorm"
)

type orderHistoryGormRepository struct {
	db *gorm.DB
}

func NewOrderHistoryGormRepository(db *gorm.DB) repo.OrderHistoryRepository {
	return &orderHistoryGormRepository{db: db}
}

func (r *orderHistoryGormRepository) Create(ctx context.Context, entry model.OrderEditHistory) error {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *orderHistoryGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]repo.OrderHistoryRecord, error) {
	// ユーザーが消えていても履歴は返す（LEFT JOIN）
	var rows []repo.OrderHistoryRecord
	err := r.db.WithContext(ctx).
		Table("order_edit_history AS h").
		Select("h.*, COALESCE(u.username, '') AS username").
		Joins("LEFT JOIN users u ON u.id = h.user_id").
		Where("h.order_id = ?", orderID).
		//新しい順。同時刻はidで決める
		Order("h.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
