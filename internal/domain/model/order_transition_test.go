package model_test

import (
	"testing"

	"crm/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitions_Table(t *testing.T) {
	want := map[model.OrderAction]model.Transition{
		model.OrderActionSubmit:        {From: model.OrderStatusDraft, Actor: model.RoleAdmin, To: model.OrderStatusPendingConfirmation, History: model.HistoryActionSubmitted},
		model.OrderActionConfirm:       {From: model.OrderStatusPendingConfirmation, Actor: model.RoleAdmin, To: model.OrderStatusConfirmed, History: model.HistoryActionConfirmed},
		model.OrderActionAddDetails:    {From: model.OrderStatusConfirmed, Actor: model.RoleLogist, To: model.OrderStatusInProgress, History: model.HistoryActionDetailsAdded},
		model.OrderActionComplete:      {From: model.OrderStatusInProgress, Actor: model.RoleWork, To: model.OrderStatusReady, History: model.HistoryActionCompleted},
		model.OrderActionMarkDelivered: {From: model.OrderStatusReady, Actor: model.RoleLogist, To: model.OrderStatusDelivered, History: model.HistoryActionDelivered},
	}
	assert.Equal(t, want, model.Transitions)
}

// 各状態から出ていく遷移はちょうど1つ（deliveredは0）
func TestTransitions_LinearChain(t *testing.T) {
	out := map[model.OrderStatus]int{}
	for _, tr := range model.Transitions {
		out[tr.From]++
	}
	for _, st := range []model.OrderStatus{
		model.OrderStatusDraft,
		model.OrderStatusPendingConfirmation,
		model.OrderStatusConfirmed,
		model.OrderStatusInProgress,
		model.OrderStatusReady,
	} {
		assert.Equal(t, 1, out[st], st)
	}
	assert.Zero(t, out[model.OrderStatusDelivered])
}

func TestTransition_AllowedForExactRoleOnly(t *testing.T) {
	tr, ok := model.LookupTransition(model.OrderActionComplete)
	require.True(t, ok)
	assert.True(t, tr.AllowedFor(model.RoleWork))
	assert.False(t, tr.AllowedFor(model.RoleAdmin))
	assert.True(t, tr.AppliesTo(model.OrderStatusInProgress))
	assert.False(t, tr.AppliesTo(model.OrderStatusReady))

	_, ok = model.LookupTransition("cancel")
	assert.False(t, ok)
}
