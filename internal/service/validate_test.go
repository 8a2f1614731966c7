package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/ids"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
	"github.com/Skotchmaster/storefront/internal/transport"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()

	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)
	out := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		out = append(out, fe.Field)
	}
	return out
}

func TestValidateOrder_NormalizesPayment(t *testing.T) {
	t.Parallel()

	d, err := ValidateOrder(checkout(line{product: ids.New(), price: 100, quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCOD, d.PaymentMethod)
	assert.Equal(t, 200.0, d.Subtotal)
	assert.Equal(t, 2, d.Items[0].Quantity)
	assert.Equal(t, "dana@example.com", d.CustomerInfo.Email)
}

func TestValidateOrder_Errors(t *testing.T) {
	t.Parallel()

	pid := ids.New()
	tests := []struct {
		name   string
		mutate func(r *transport.CheckoutRequest)
		fields []string
	}{
		{
			name:   "non hex product id",
			mutate: func(r *transport.CheckoutRequest) { r.Items[0].Product = "jeans" },
			fields: []string{"items[0].product"},
		},
		{
			name:   "missing product id",
			mutate: func(r *transport.CheckoutRequest) { r.Items[0].Product = "" },
			fields: []string{"items[0].product"},
		},
		{
			name:   "empty items",
			mutate: func(r *transport.CheckoutRequest) { r.Items = nil },
			fields: []string{"items"},
		},
		{
			name:   "bad payment method",
			mutate: func(r *transport.CheckoutRequest) { r.PaymentMethod = "bitcoin" },
			fields: []string{"paymentMethod"},
		},
		{
			name: "fractional quantity",
			mutate: func(r *transport.CheckoutRequest) {
				r.Items[0].Quantity = transport.Num(1.5)
			},
			fields: []string{"items[0].quantity"},
		},
		{
			name:   "total mismatch",
			mutate: func(r *transport.CheckoutRequest) { r.Total = transport.Num(150) },
			fields: []string{"total"},
		},
		{
			name:   "subtotal mismatch",
			mutate: func(r *transport.CheckoutRequest) { r.Subtotal = transport.Num(10); r.Total = transport.Num(10) },
			fields: []string{"subtotal"},
		},
		{
			name:   "negative discount",
			mutate: func(r *transport.CheckoutRequest) { r.Discount = transport.Num(-1) },
			fields: []string{"discount"},
		},
		{
			name: "several at once",
			mutate: func(r *transport.CheckoutRequest) {
				r.CustomerInfo.Email = "not-an-email"
				r.ShippingAddress.City = ""
				r.Items[0].Size = ""
			},
			fields: []string{"customerInfo.email", "items[0].size", "shippingAddress.city"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := checkout(line{product: pid, price: 100, quantity: 2})
			tc.mutate(&req)

			_, err := ValidateOrder(req)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tc.fields, fieldsOf(t, err))
		})
	}
}

func TestValidateOrder_EmptyItemsMessage(t *testing.T) {
	t.Parallel()

	req := checkout()
	_, err := ValidateOrder(req)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "items array required, at least 1 item", ve.Errors[0].Message)
}

func TestValidateOrder_SameInputSameResult(t *testing.T) {
	t.Parallel()

	req := checkout(line{product: "jeans", price: 100, quantity: 0})
	_, first := ValidateOrder(req)
	_, second := ValidateOrder(req)
	require.Error(t, first)
	assert.Equal(t, first.Error(), second.Error())
}

func TestValidateOrder_TotalInvariant(t *testing.T) {
	t.Parallel()

	cases := []struct{ subtotal, shipping, tax, discount float64 }{
		{200, 0, 0, 0},
		{59.97, 4.99, 4.8, 0},
		{19.99, 0, 1.6, 5},
		{0.1, 0.2, 0, 0},
	}
	for _, c := range cases {
		req := checkout(line{product: ids.New(), price: c.subtotal, quantity: 1})
		req.Shipping = transport.Num(c.shipping)
		req.Tax = transport.Num(c.tax)
		req.Discount = transport.Num(c.discount)
		req.Total = transport.Num(c.subtotal + c.shipping + c.tax - c.discount)

		d, err := ValidateOrder(req)
		require.NoError(t, err)
		assert.True(t, money.Equal(d.Total, d.Subtotal+d.Shipping+d.Tax-d.Discount))
	}
}

func TestValidateOrder_ReportsTypeErrors(t *testing.T) {
	t.Parallel()

	req := checkout(line{product: ids.New(), price: 100, quantity: 1})
	req.CustomerInfo.Email = ""
	req.PaymentMethod = ""
	req.TypeErrors = []transport.TypeError{
		{Field: "customerInfo.email", Expected: "a string", Value: 42.0},
		{Field: "paymentMethod", Expected: "a string", Value: true},
	}

	_, err := ValidateOrder(req)
	require.Error(t, err)
	assert.Equal(t, []string{"customerInfo.email", "paymentMethod"}, fieldsOf(t, err))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "customerInfo.email must be a string", ve.Errors[0].Message)
	assert.Equal(t, 42.0, ve.Errors[0].Value)
}
