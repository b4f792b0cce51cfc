package repository

import (
	"context"

	"crm/internal/domain/model"
	repo "crm/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 採番を直列化するadvisory lockのキー（トランザクション終了で解放）
const orderNumberLockKey int64 = 7_400_001

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if err != nil {
		return model.Order{}, translateError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&o).Error
	if err != nil {
		return model.Order{}, translateError(err)
	}
	return o, nil
}

func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, translateError(err)
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateIfStatus(ctx context.Context, o model.Order, expected model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", o.ID, expected).
		Updates(map[string]any{
			"order_number":          o.OrderNumber,
			"customer_name":         o.CustomerName,
			"customer_phone":        o.CustomerPhone,
			"customer_address":      o.CustomerAddress,
			"phone_agreement_notes": o.PhoneAgreementNotes,
			"customer_requirements": o.CustomerRequirements,
			"deadline":              o.Deadline,
			"price":                 o.Price,
			"material_photo":        o.MaterialPhoto,
			"furniture_photo":       o.FurniturePhoto,
			"status":                o.Status,
			"updated_by":            o.UpdatedBy,
			"updated_at":            o.UpdatedAt,
		})

	if res.Error != nil {
		return translateError(res.Error)
	}
	// 0件更新は「他で状態が変わった」
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

func (r *OrderGormRepository) MaxOrderNumber(ctx context.Context) (int, error) {
	// 同時confirmが同じ番号を読まないように先にロック
	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", orderNumberLockKey).Error; err != nil {
		return 0, err
	}

	var max int
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}
