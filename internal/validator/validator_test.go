package validator_test

import (
	"testing"

	"crm/internal/validator"

	"github.com/stretchr/testify/assert"
)

type createInput struct {
	Name  string  `json:"customer_name" validate:"notblank,max=5"`
	Notes *string `json:"notes" validate:"omitnil,notblank"`
}

func TestValidator_NotBlank(t *testing.T) {
	v := validator.New()

	assert.NoError(t, v.Validate(createInput{Name: "Ivan"}))

	err := v.Validate(createInput{Name: "   "})
	if assert.Error(t, err) {
		assert.Equal(t, "customer_name is required", err.Error())
	}
}

func TestValidator_Max(t *testing.T) {
	err := validator.New().Validate(createInput{Name: "Ivanov"})
	if assert.Error(t, err) {
		assert.Equal(t, "customer_name must be at most 5 characters", err.Error())
	}
}

// nilは未指定として通り、空白だけの値は拒否
func TestValidator_OptionalPointer(t *testing.T) {
	v := validator.New()
	blank := " "
	ok := "x"

	assert.NoError(t, v.Validate(createInput{Name: "a", Notes: nil}))
	assert.NoError(t, v.Validate(createInput{Name: "a", Notes: &ok}))

	err := v.Validate(createInput{Name: "a", Notes: &blank})
	if assert.Error(t, err) {
		assert.Equal(t, "notes is required", err.Error())
	}
}
