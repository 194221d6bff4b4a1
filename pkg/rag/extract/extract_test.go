package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"S00256", "S256"},
		{"a12b", "A12B"},
		{"S256", "S256"},
		{"s.0", "S0"},
		{"A-000", "A0"},
		{"k 7", "K7"},
		{"S00100A", "S100A"},
		{"hello", "HELLO"},
		{"S256-x", "S256-X"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"S00256", "a12b", "j.0001", "B-9c", "E 00", "A1", "not-a-bill", "s256x"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "What is happening with housing?", nil},
		{"single", "Tell me about S256", []string{"S256"}},
		{"dotted and suffixed", "compare s.00256 and A12b", []string{"S256", "A12B"}},
		{"deduplicated", "S256, s00256 and S256 again", []string{"S256"}},
		{"embedded in word is ignored", "the S256is token", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifiers(tt.text))
		})
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"stopwords removed", "Tell me about housing bills for veterans", []string{"housing", "veterans"}},
		{"capped at three", "rent stabilization tenant protections eviction moratorium", []string{"rent", "stabilization", "tenant"}},
		{"short words dropped", "is it a tax", nil},
		{"distinct", "Water water WATER quality", []string{"water", "quality"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Keywords(tt.text))
		})
	}
}

func TestGates(t *testing.T) {
	assert.True(t, BudgetGate.Match("How much funding did the DOT get?"))
	assert.True(t, BudgetGate.Match("unrelated", "what was the budget"))
	assert.False(t, BudgetGate.Match("Who sponsored S256?"))
	assert.False(t, BudgetGate.Match("fundamental rights"))

	assert.True(t, ContractGate.Match("Which vendors won awards?"))
	assert.False(t, ContractGate.Match("Tell me about S256"))

	assert.True(t, LobbyingGate.Match("who is lobbying on this"))
	assert.False(t, LobbyingGate.Match("clean water"))
}

func TestGateStrip(t *testing.T) {
	got := Keywords(BudgetGate.Strip("How much funding does transportation get in the budget?"))
	assert.Equal(t, []string{"transportation"}, got)
}
