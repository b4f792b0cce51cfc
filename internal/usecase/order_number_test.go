package usecase_test

import (
	"context"
	"testing"

	"crm/internal/domain/model"
	"crm/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNumber(s *memStore, id int64, n int) {
	s.orders[id] = model.Order{ID: id, OrderNumber: &n, Status: model.OrderStatusConfirmed}
}

func TestOrderNumberAllocator_Next(t *testing.T) {
	s := newMemStore()
	a := usecase.NewOrderNumberAllocator(true)

	n, err := a.Next(context.Background(), s.Orders())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	seedNumber(s, 1, 41)
	n, err = a.Next(context.Background(), s.Orders())
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	seedNumber(s, 2, model.MaxOrderNumber-1)
	n, err = a.Next(context.Background(), s.Orders())
	require.NoError(t, err)
	assert.Equal(t, model.MaxOrderNumber, n)
}

func TestOrderNumberAllocator_Saturation(t *testing.T) {
	s := newMemStore()
	seedNumber(s, 1, model.MaxOrderNumber)

	_, err := usecase.NewOrderNumberAllocator(true).Next(context.Background(), s.Orders())
	assert.True(t, usecase.HasCode(err, usecase.CodeConflict))

	n, err := usecase.NewOrderNumberAllocator(false).Next(context.Background(), s.Orders())
	require.NoError(t, err)
	assert.Equal(t, model.MaxOrderNumber, n)
}
