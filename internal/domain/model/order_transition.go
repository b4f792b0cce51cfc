package model

type OrderAction string

const (
	OrderActionSubmit        OrderAction = "submit"
	OrderActionConfirm       OrderAction = "confirm"
	OrderActionAddDetails    OrderAction = "add_details"
	OrderActionComplete      OrderAction = "complete"
	OrderActionMarkDelivered OrderAction = "mark_delivered"
)

// 状態遷移1件分。From状態でActorだけが実行でき、Toへ進む。
type Transition struct {
	From    OrderStatus
	Actor   Role
	To      OrderStatus
	History HistoryAction
}

// 遷移表。ここに無い組み合わせは全て拒否。
var Transitions = map[OrderAction]Transition{
	OrderActionSubmit: {
		From:    OrderStatusDraft,
		Actor:   RoleAdmin,
		To:      OrderStatusPendingConfirmation,
		History: HistoryActionSubmitted,
	},
	OrderActionConfirm: {
		From:    OrderStatusPendingConfirmation,
		Actor:   RoleAdmin,
		To:      OrderStatusConfirmed,
		History: HistoryActionConfirmed,
	},
	OrderActionAddDetails: {
		From:    OrderStatusConfirmed,
		Actor:   RoleLogist,
		To:      OrderStatusInProgress,
		History: HistoryActionDetailsAdded,
	},
	OrderActionComplete: {
		From:    OrderStatusInProgress,
		Actor:   RoleWork,
		To:      OrderStatusReady,
		History: HistoryActionCompleted,
	},
	OrderActionMarkDelivered: {
		From:    OrderStatusReady,
		Actor:   RoleLogist,
		To:      OrderStatusDelivered,
		History: HistoryActionDelivered,
	},
}

func LookupTransition(a OrderAction) (Transition, bool) {
	t, ok := Transitions[a]
	return t, ok
}

func (t Transition) AllowedFor(role Role) bool {
	return t.Actor == role
}

func (t Transition) AppliesTo(current OrderStatus) bool {
	return t.From == current
}
