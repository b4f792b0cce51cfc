package model

import (
	"reflect"
	"time"
)

// 履歴に残す操作の種類
type HistoryAction string

const (
	HistoryActionCreated      HistoryAction = "created"
	HistoryActionUpdated      HistoryAction = "updated"
	HistoryActionSubmitted    HistoryAction = "submitted_for_confirmation"
	HistoryActionConfirmed    HistoryAction = "confirmed"
	HistoryActionDetailsAdded HistoryAction = "details_added"
	HistoryActionCompleted    HistoryAction = "completed"
	HistoryActionDelivered    HistoryAction = "delivered"
)

// 1フィールドの変更前後
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// フィールド名 -> 変更前後。変更なしはnil。
type FieldChanges map[string]FieldChange

// 注文の編集履歴（追記のみ、更新・削除しない）。
// user_idはIDだけ持つ。ユーザーが消えても行は残す。
type OrderEditHistory struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64         `gorm:"not null;index" json:"order_id"`
	UserID       int64         `gorm:"not null;index" json:"user_id"`
	Action       HistoryAction `gorm:"type:varchar(50);not null" json:"action"`
	FieldChanges FieldChanges  `gorm:"type:jsonb;serializer:json" json:"field_changes"`
	Timestamp    time.Time     `gorm:"not null;index" json:"timestamp"`
}

func (OrderEditHistory) TableName() string {
	return "order_edit_history"
}

// beforeとafterを比べて、値が変わったキーだけ返す。
// 値はSnapshotValueで正規化してから比較する。
func DiffFields(before, after map[string]any) FieldChanges {
	var changes FieldChanges
	for key, newRaw := range after {
		oldVal := SnapshotValue(before[key])
		newVal := SnapshotValue(newRaw)
		if reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		if changes == nil {
			changes = FieldChanges{}
		}
		changes[key] = FieldChange{Old: oldVal, New: newVal}
	}
	return changes
}

// ポインタは中身（nilならnil）、時刻はUTCのRFC3339文字列にする
func SnapshotValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *int:
		if t == nil {
			return nil
		}
		return *t
	case *int64:
		if t == nil {
			return nil
		}
		return *t
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// 指定フィールドを除いた差分。空になったらnil。
func (c FieldChanges) Without(fields ...string) FieldChanges {
	if c == nil {
		return nil
	}
	drop := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		drop[f] = struct{}{}
	}
	var out FieldChanges
	for k, v := range c {
		if _, ok := drop[k]; ok {
			continue
		}
		if out == nil {
			out = FieldChanges{}
		}
		out[k] = v
	}
	return out
}
