package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medistock/internal/core/apperror"
)

func TestFactoryStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperror.AppError
		wantCode   string
		wantStatus int
	}{
		{"validation", apperror.NewValidation("bad input"), apperror.CodeValidation, http.StatusBadRequest},
		{"not found", apperror.NewNotFound("product", "x"), apperror.CodeNotFound, http.StatusNotFound},
		{"insufficient stock", apperror.NewInsufficientStock("p1", 5, 2), apperror.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{"invalid return quantity", apperror.NewInvalidReturnQuantity("p1", 3, 1), apperror.CodeInvalidReturnQuantity, http.StatusUnprocessableEntity},
		{"missing batch info", apperror.NewMissingBatchInfo(2), apperror.CodeMissingBatchInfo, http.StatusUnprocessableEntity},
		{"already cancelled", apperror.NewAlreadyCancelled("INV1"), apperror.CodeAlreadyCancelled, http.StatusUnprocessableEntity},
		{"product inactive", apperror.NewProductInactive("p1"), apperror.CodeProductInactive, http.StatusUnprocessableEntity},
		{"concurrency conflict", apperror.NewConcurrencyConflict("sale", "s1"), apperror.CodeConcurrencyConflict, http.StatusConflict},
		{"duplicate", apperror.NewDuplicate("product", "sku", "A-1"), apperror.CodeDuplicate, http.StatusConflict},
		{"unauthorized", apperror.NewUnauthorized("invalid credentials"), apperror.CodeUnauthorized, http.StatusUnauthorized},
		{"persistence", apperror.NewPersistence(errors.New("boom")), apperror.CodePersistence, http.StatusInternalServerError},
		{"internal", apperror.NewInternal(errors.New("boom")), apperror.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	inner := apperror.NewNotFound("sale", "s1")
	wrapped := fmt.Errorf("load sale: %w", inner)

	appErr, ok := apperror.AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.True(t, apperror.IsNotFound(wrapped))
}

func TestAsAppErrorPlainError(t *testing.T) {
	_, ok := apperror.AsAppError(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apperror.GetHTTPStatus(errors.New("plain")))
}

func TestWithDetailAndCause(t *testing.T) {
	cause := errors.New("row locked")
	err := apperror.NewValidation("bad quantity").
		WithDetail("field", "quantity").
		WithCause(cause)

	assert.Equal(t, "quantity", err.Details["field"])
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "caused by")
}

func TestInsufficientStockDetails(t *testing.T) {
	err := apperror.NewInsufficientStock("p1", 7, 4)
	assert.Equal(t, 7, err.Details["requested"])
	assert.Equal(t, 4, err.Details["available"])
}
