package model

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusDraft               OrderStatus = "draft"
	OrderStatusPendingConfirmation OrderStatus = "pending_confirmation"
	OrderStatusConfirmed           OrderStatus = "confirmed"
	OrderStatusInProgress          OrderStatus = "in_progress"
	OrderStatusReady               OrderStatus = "ready"
	OrderStatusDelivered           OrderStatus = "delivered"
)

// 採番の上限
const MaxOrderNumber = 9999

// ワークフロー上の順番
var orderStatusRank = map[OrderStatus]int{
	OrderStatusDraft:               0,
	OrderStatusPendingConfirmation: 1,
	OrderStatusConfirmed:           2,
	OrderStatusInProgress:          3,
	OrderStatusReady:               4,
	OrderStatusDelivered:           5,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := orderStatusRank[st]
	return st, ok
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// sがother以降の段階にあるか
func (s OrderStatus) AtOrPast(other OrderStatus) bool {
	a, ok1 := orderStatusRank[s]
	b, ok2 := orderStatusRank[other]
	return ok1 && ok2 && a >= b
}

type Order struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	OrderNumber *int  `gorm:"uniqueIndex"`

	//顧客情報（adminのみ編集）
	CustomerName        string  `gorm:"type:varchar(255);not null"`
	CustomerPhone       string  `gorm:"type:varchar(50);not null"`
	CustomerAddress     string  `gorm:"type:text;not null"`
	PhoneAgreementNotes *string `gorm:"type:text"`

	//制作情報（confirmed段階でlogistが一括登録）
	CustomerRequirements *string `gorm:"type:text"`
	Deadline             *time.Time
	Price                *int64
	MaterialPhoto        *string `gorm:"type:varchar(512)"`
	FurniturePhoto       *string `gorm:"type:varchar(512)"`

	Status    OrderStatus `gorm:"type:varchar(32);not null;index"`
	CreatedBy int64       `gorm:"not null"`
	UpdatedBy *int64
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// order_numberはconfirmed以降でだけ入っている
func (o Order) CheckNumberInvariant() error {
	numbered := o.Status.AtOrPast(OrderStatusConfirmed)
	if numbered && o.OrderNumber == nil {
		return fmt.Errorf("order %d is %s but has no order_number", o.ID, o.Status)
	}
	if !numbered && o.OrderNumber != nil {
		return fmt.Errorf("order %d is %s but already has order_number %d", o.ID, o.Status, *o.OrderNumber)
	}
	if o.OrderNumber != nil && (*o.OrderNumber < 1 || *o.OrderNumber > MaxOrderNumber) {
		return fmt.Errorf("order %d has order_number %d out of range", o.ID, *o.OrderNumber)
	}
	return nil
}

// 更新者と更新時刻をセット。updated_atは巻き戻さない。
func (o *Order) Touch(userID int64, now time.Time) {
	o.UpdatedBy = &userID
	if now.After(o.UpdatedAt) {
		o.UpdatedAt = now
	}
}
