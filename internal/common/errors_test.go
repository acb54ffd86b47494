package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, fiber.StatusOK},
		{fmt.Errorf("decode: %w", ErrUnsupportedFormat), fiber.StatusUnsupportedMediaType},
		{NewAppError("UPLOAD", "too big", ErrTooLarge), fiber.StatusRequestEntityTooLarge},
		{ErrNoData, fiber.StatusBadRequest},
		{BadRequestError("bad"), fiber.StatusBadRequest},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFromError(tt.err), "%v", tt.err)
	}
}

func TestValidatorWrapsValidation(t *testing.T) {
	v := NewValidator().
		Field("filename", "", Required).
		Field("mode", "erp", OneOf("winthor", "planilha"))
	err := v.Error()
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Len(t, v.Errors(), 2)
	assert.NoError(t, NewValidator().Field("content", []byte("x"), Required, MaxBytes(2)).Error())
}
