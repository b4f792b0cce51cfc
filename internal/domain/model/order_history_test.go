package model_test

import (
	"testing"
	"time"

	"crm/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestDiffFields(t *testing.T) {
	s := func(v string) *string { return &v }
	p := func(v int64) *int64 { return &v }
	d := time.Date(2025, 6, 1, 13, 0, 0, 0, time.FixedZone("MSK", 3*3600))

	before := map[string]any{
		"customer_name":  "Ivan",
		"customer_phone": "1",
		"notes":          (*string)(nil),
		"price":          (*int64)(nil),
		"deadline":       (*time.Time)(nil),
	}
	after := map[string]any{
		"customer_name":  "Ivan",
		"customer_phone": "2",
		"notes":          s("hi"),
		"price":          p(1500),
		"deadline":       &d,
	}

	got := model.DiffFields(before, after)
	assert.Equal(t, model.FieldChanges{
		"customer_phone": {Old: "1", New: "2"},
		"notes":          {Old: nil, New: "hi"},
		"price":          {Old: nil, New: int64(1500)},
		"deadline":       {Old: nil, New: "2025-06-01T10:00:00Z"},
	}, got)
}

func TestDiffFields_NoChangeIsNil(t *testing.T) {
	a := "x"
	b := "x"
	assert.Nil(t, model.DiffFields(map[string]any{"k": &a}, map[string]any{"k": &b}))
}

func TestFieldChanges_Without(t *testing.T) {
	c := model.FieldChanges{
		"price":    {Old: nil, New: int64(1)},
		"deadline": {Old: nil, New: "2025-06-01T10:00:00Z"},
	}

	got := c.Without("price")
	assert.Equal(t, model.FieldChanges{"deadline": c["deadline"]}, got)
	assert.Len(t, c, 2)

	assert.Nil(t, model.FieldChanges{"price": {}}.Without("price"))
	assert.Nil(t, model.FieldChanges(nil).Without("price"))
}
