package usecase

import (
	"time"

	"crm/internal/domain/model"
)

// 全ロール共通で見える項目
type OrderView struct {
	ID                   int64      `json:"id"`
	OrderNumber          *int       `json:"order_number"`
	CustomerName         string     `json:"customer_name"`
	CustomerRequirements *string    `json:"customer_requirements"`
	Deadline             *time.Time `json:"deadline"`
	FurniturePhoto       *string    `json:"furniture_photo"`
	MaterialPhoto        *string    `json:"material_photo"`
	Status               string     `json:"status"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	//admin/logistだけ。workではnilでJSONに出ない
	*OrderContactView
}

// 連絡先と価格
type OrderContactView struct {
	CustomerPhone       string  `json:"customer_phone"`
	CustomerAddress     string  `json:"customer_address"`
	PhoneAgreementNotes *string `json:"phone_agreement_notes"`
	Price               *int64  `json:"price"`
}

// workに見せない項目（履歴の差分からも除く）
var contactFields = []string{
	"customer_phone",
	"customer_address",
	"phone_agreement_notes",
	"price",
}

func seesContact(role model.Role) bool {
	return role == model.RoleAdmin || role == model.RoleLogist
}

// ロールに応じた注文の見え方。元のorderは変更しない。
func Project(o model.Order, role model.Role) OrderView {
	v := OrderView{
		ID:                   o.ID,
		OrderNumber:          clonePtr(o.OrderNumber),
		CustomerName:         o.CustomerName,
		CustomerRequirements: clonePtr(o.CustomerRequirements),
		Deadline:             cloneTime(o.Deadline),
		FurniturePhoto:       clonePtr(o.FurniturePhoto),
		MaterialPhoto:        clonePtr(o.MaterialPhoto),
		Status:               string(o.Status),
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}

	if seesContact(role) {
		v.OrderContactView = &OrderContactView{
			CustomerPhone:       o.CustomerPhone,
			CustomerAddress:     o.CustomerAddress,
			PhoneAgreementNotes: clonePtr(o.PhoneAgreementNotes),
			Price:               clonePtr(o.Price),
		}
	}
	return v
}

// 一覧の候補ステータス。nilは全件。
func ListableStatuses(role model.Role) []model.OrderStatus {
	switch role {
	case model.RoleLogist:
		return []model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusReady}
	case model.RoleWork:
		return []model.OrderStatus{model.OrderStatusInProgress, model.OrderStatusReady}
	default:
		return nil
	}
}

// 1件取得で見てよい状態か
func CanView(role model.Role, status model.OrderStatus) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleLogist:
		return status != model.OrderStatusDraft
	case model.RoleWork:
		return status == model.OrderStatusInProgress || status == model.OrderStatusReady
	default:
		return false
	}
}

// ロールの候補とフィルタの積。okがfalseなら該当なし。
func listStatuses(role model.Role, filter *model.OrderStatus) ([]model.OrderStatus, bool) {
	allowed := ListableStatuses(role)
	if filter == nil {
		return allowed, true
	}
	if allowed == nil {
		return []model.OrderStatus{*filter}, true
	}
	for _, s := range allowed {
		if s == *filter {
			return []model.OrderStatus{s}, true
		}
	}
	return nil, false
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
