package textkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gastos de Operación", "gastosdeoperacion"},
		{"  ÑANDÚ  Belle ", "nandubelle"},
		{"617 573", "617573"},
		{"Promoción\tY\nPublicidad", "promocionypublicidad"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Utilidad o pérdida Operación", "PERDIDA"))
	assert.True(t, Contains("617573", "75 73"))
	assert.True(t, Contains("anything", ""))
	assert.True(t, Contains("anything", "   "))
	assert.False(t, Contains("617573", "999"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"617573", "614763", "abc"}, SplitList("617573, 614763;  ÁBC"))
	assert.Nil(t, SplitList(" , ; "))
}
