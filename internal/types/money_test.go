package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyRoundsHalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"81.4875", "81.49"},
		{"75.525", "75.53"},
		{"1311.4875", "1311.49"},
		{"80.49375", "80.49"},
		{"1000", "1000.00"},
		{"0.005", "0.01"},
		{"0.0049", "0.00"},
	}
	for _, tc := range cases {
		m, err := MoneyFromString(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, m.String(), "input %s", tc.in)
	}
}

func TestMoneyKeepsUnroundedValue(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("81.4875"))
	assert.True(t, m.Decimal().Equal(decimal.RequireFromString("81.4875")))
	assert.True(t, m.Rounded().Equal(decimal.RequireFromString("81.49")))
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Money   `json:"total"`
		Pct   Percent `json:"pct"`
	}{
		Total: NewMoney(decimal.RequireFromString("1215.525")),
		Pct:   NewPercent(decimal.NewFromInt(10)),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"1215.53","pct":"10.00"}`, string(b))

	var out struct {
		A Money   `json:"a"`
		B Money   `json:"b"`
		C Percent `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.30","b":7.5,"c":null}`), &out))
	assert.Equal(t, "12.30", out.A.String())
	assert.Equal(t, "7.50", out.B.String())
	assert.True(t, out.C.Decimal().IsZero())
}

func TestMoneyFromStringRejectsGarbage(t *testing.T) {
	_, err := MoneyFromString("twelve")
	assert.Error(t, err)
}
