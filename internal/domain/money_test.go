package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sibylcommerce/sibyl/internal/domain"
)

func TestMoney_Construction(t *testing.T) {
	m := domain.NewMoney(1299, "usd")
	require.Equal(t, int64(1299), m.Amount())
	require.Equal(t, "USD", m.Currency())
}

func TestMoneyFromFloat_Rounding(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected int64
	}{
		{name: "exact cents", value: 12.99, expected: 1299},
		{name: "rounds up", value: 0.005, expected: 1},
		{name: "rounds repeating binary fraction", value: 19.999, expected: 2000},
		{name: "negative", value: -4.50, expected: -450},
		{name: "zero", value: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := domain.MoneyFromFloat(tt.value, "USD")
			require.Equal(t, tt.expected, m.Amount())
		})
	}
}

func TestMoney_Float64(t *testing.T) {
	require.InDelta(t, 12.99, domain.NewMoney(1299, "USD").Float64(), 0.0001)
}

func TestMoney_Add(t *testing.T) {
	a := domain.NewMoney(1000, "USD")
	b := domain.NewMoney(250, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, int64(1250), sum.Amount())

	_, err = a.Add(domain.NewMoney(100, "EUR"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "currency mismatch")
}

func TestMoney_Cmp(t *testing.T) {
	a := domain.NewMoney(1000, "USD")
	b := domain.NewMoney(2000, "USD")

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = b.Cmp(a)
	require.NoError(t, err)
	require.Equal(t, 1, cmp)

	cmp, err = a.Cmp(domain.NewMoney(1000, "USD"))
	require.NoError(t, err)
	require.Equal(t, 0, cmp)

	_, err = a.Cmp(domain.NewMoney(1000, "GBP"))
	require.Error(t, err)
}

func TestMoney_String(t *testing.T) {
	tests := []struct {
		name     string
		money    domain.Money
		expected string
	}{
		{name: "usd symbol", money: domain.NewMoney(1299, "USD"), expected: "$12.99"},
		{name: "eur symbol", money: domain.NewMoney(50, "EUR"), expected: "€0.50"},
		{name: "unknown code suffix", money: domain.NewMoney(9900, "SEK"), expected: "99.00 SEK"},
		{name: "negative", money: domain.NewMoney(-1299, "USD"), expected: "-$12.99"},
		{name: "whole amount", money: domain.NewMoney(10000, "USD"), expected: "$100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.money.String())
		})
	}
}

func TestMoney_IsZero(t *testing.T) {
	require.True(t, domain.Money{}.IsZero())
	require.False(t, domain.NewMoney(1, "USD").IsZero())
}
