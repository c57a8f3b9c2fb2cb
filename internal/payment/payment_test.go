package payment_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solo-drops-backend/internal/payment"
)

func TestTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount string
		quantity int
		want     string
	}{
		{"discounted multiple units", "100", "10", 3, "270.00"},
		{"no discount", "19.99", "0", 1, "19.99"},
		{"rounds to cents", "10.005", "0", 1, "10.01"},
		{"discount above price", "5", "7.5", 2, "-5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := payment.Total(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.discount), tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, payment.FormatAmount(total))
		})
	}
}

func TestTotal_RejectsZeroQuantity(t *testing.T) {
	_, err := payment.Total(decimal.NewFromInt(100), decimal.Zero, 0)
	assert.ErrorIs(t, err, payment.ErrInvalidAmount)
}

func TestCapture_Completed(t *testing.T) {
	assert.True(t, payment.Capture{Status: "COMPLETED"}.Completed())
	assert.False(t, payment.Capture{Status: "completed"}.Completed())
	assert.False(t, payment.Capture{Status: "PENDING"}.Completed())
}

func TestState_Next(t *testing.T) {
	s, err := payment.StateIdle.Next(payment.StateAwaitingAuthorization)
	require.NoError(t, err)
	s, err = s.Next(payment.StateCapturing)
	require.NoError(t, err)
	s, err = s.Next(payment.StateSettled)
	require.NoError(t, err)
	assert.True(t, s.Terminal())

	_, err = payment.StateSettled.Next(payment.StateCapturing)
	assert.ErrorIs(t, err, payment.ErrInvalidState)

	_, err = payment.StateIdle.Next(payment.StateSettled)
	assert.ErrorIs(t, err, payment.ErrInvalidState)

	s, err = payment.State("").Next(payment.StateAwaitingAuthorization)
	require.NoError(t, err)
	assert.Equal(t, payment.StateAwaitingAuthorization, s)
}
