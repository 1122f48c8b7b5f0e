package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountPercentages_FirstWins(t *testing.T) {
	acct := Account{
		ID: "4000348",
		LineItems: []LineItemDef{
			{ConceptID: "80", Name: "Descuentos", Percentage: decimal.NewFromInt(5)},
			{ConceptID: "500", Name: "Mercadeo", Percentage: decimal.RequireFromString("2.5")},
			{ConceptID: "80", Name: "Descuentos dup", Percentage: decimal.NewFromInt(9)},
		},
	}

	pcts := acct.Percentages()
	require.Len(t, pcts, 2)
	assert.True(t, pcts["80"].Equal(decimal.NewFromInt(5)))
	assert.True(t, pcts["500"].Equal(decimal.RequireFromString("2.5")))
}

func TestAccountItem(t *testing.T) {
	acct := Account{Items: []Item{{Code: "617573", Name: "Crema"}}}

	it, ok := acct.Item("617573")
	assert.True(t, ok)
	assert.Equal(t, "Crema", it.Name)

	_, ok = acct.Item("000")
	assert.False(t, ok)
}

func TestPercentageConfigClone(t *testing.T) {
	orig := PercentageConfig{"80": decimal.NewFromInt(5)}
	cp := orig.Clone()
	cp["80"] = decimal.NewFromInt(7)

	v, ok := orig.Get("80")
	assert.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(5)))
}

func TestIndexByID(t *testing.T) {
	idx := IndexByID([]Account{{ID: "a"}, {ID: "b"}, {ID: "a"}})
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, idx)
}
