package money_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solventhq/walletcore/pkg/money"
)

func TestNew(t *testing.T) {
	t.Run("converts major units to smallest unit", func(t *testing.T) {
		m, err := money.New(12.50, money.USD)
		require.NoError(t, err)
		assert.Equal(t, int64(1250), m.Amount())
		assert.Equal(t, money.USD, m.Currency())
	})

	t.Run("zero-decimal currency keeps major units", func(t *testing.T) {
		m, err := money.New(500, money.JPY)
		require.NoError(t, err)
		assert.Equal(t, int64(500), m.Amount())
	})

	t.Run("empty currency defaults to USD", func(t *testing.T) {
		m, err := money.New(1, "")
		require.NoError(t, err)
		assert.Equal(t, money.USD, m.Currency())
	})

	t.Run("rejects invalid currency", func(t *testing.T) {
		_, err := money.New(1, "usd")
		assert.ErrorIs(t, err, money.ErrInvalidCurrency)
	})

	t.Run("rejects NaN and Inf", func(t *testing.T) {
		_, err := money.New(math.NaN(), money.USD)
		assert.ErrorIs(t, err, money.ErrInvalidAmount)
		_, err = money.New(math.Inf(1), money.USD)
		assert.ErrorIs(t, err, money.ErrInvalidAmount)
	})

	t.Run("rejects overflow", func(t *testing.T) {
		_, err := money.New(math.MaxFloat64, money.USD)
		assert.ErrorIs(t, err, money.ErrAmountExceedsMaxSafeInt)
	})
}

func TestCodeIsValid(t *testing.T) {
	cases := []struct {
		code  money.Code
		valid bool
	}{
		{"USD", true},
		{"EUR", true},
		{"JPY", true},
		{"usd", false},
		{"US", false},
		{"USDT", false},
		{"U5D", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, tc.code.IsValid(), "code %q", tc.code)
	}
}

func TestArithmetic(t *testing.T) {
	a := money.Must(10, money.USD)
	b := money.Must(2.50, money.USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Amount())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, int64(750), diff.Amount())

	assert.Equal(t, int64(-1000), a.Negate().Amount())

	gt, err := a.GreaterThan(b)
	require.NoError(t, err)
	assert.True(t, gt)

	eur := money.Must(1, money.EUR)
	_, err = a.Add(eur)
	assert.ErrorIs(t, err, money.ErrMismatchedCurrencies)
	_, err = a.GreaterThan(eur)
	assert.ErrorIs(t, err, money.ErrMismatchedCurrencies)
}

func TestPredicates(t *testing.T) {
	assert.True(t, money.Must(1, money.USD).IsPositive())
	assert.True(t, money.Must(-1, money.USD).IsNegative())
	assert.True(t, money.Zero(money.USD).IsZero())
}

func TestString(t *testing.T) {
	assert.Equal(t, "12.50 USD", money.Must(12.5, money.USD).String())
	assert.Equal(t, "500 JPY", money.Must(500, money.JPY).String())
}

func TestJSONRoundTrip(t *testing.T) {
	m := money.Must(99.99, money.EUR)
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var out money.Money
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, m.Amount(), out.Amount())
	assert.Equal(t, m.Currency(), out.Currency())

	var bad money.Money
	err = json.Unmarshal([]byte(`{"amount":1,"currency":"nope"}`), &bad)
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}
