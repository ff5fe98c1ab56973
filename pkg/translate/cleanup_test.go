package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSummary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "pure turkish untouched",
			input:    "Bitcoin yükseldi.",
			expected: "Bitcoin yükseldi.",
		},
		{
			name:     "turkish with crypto terms untouched",
			input:    "Ethereum ağındaki DeFi protokolleri rekor hacme ulaştı.",
			expected: "Ethereum ağındaki DeFi protokolleri rekor hacme ulaştı.",
		},
		{
			name:     "trailing english sentence removed",
			input:    "Bitcoin rekor kırdı. The price surged past all expectations.",
			expected: "Bitcoin rekor kırdı.",
		},
		{
			name:     "english verb sentence removed",
			input:    "Piyasa toparlandı. Analysts are expecting further gains.",
			expected: "Piyasa toparlandı.",
		},
		{
			name:     "however clause removed",
			input:    "Fiyatlar düştü. However the market remains optimistic.",
			expected: "Fiyatlar düştü.",
		},
		{
			name:     "dangling english clause stripped",
			input:    "Solana ağı kesintiye uğradı the network is recovering slowly",
			expected: "Solana ağı kesintiye uğradı",
		},
		{
			name:     "duplicate periods collapsed",
			input:    "Bitcoin yükseldi.. Piyasa olumlu.",
			expected: "Bitcoin yükseldi. Piyasa olumlu.",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  Kripto piyasası hareketli.  ",
			expected: "Kripto piyasası hareketli.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanSummary(tt.input))
		})
	}
}
