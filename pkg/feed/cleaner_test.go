package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips markup",
			in:   "<p>Bitcoin surged <b>today</b> on heavy volume</p>",
			want: "Bitcoin surged today on heavy volume",
		},
		{
			name: "cuts at pipe separator",
			in:   "Bitcoin surged today | source=twitter",
			want: "Bitcoin surged today",
		},
		{
			name: "cuts wordpress trailer",
			in:   "Regulators approved the new ETF filing. The post Regulators approved appeared first on Example.",
			want: "Regulators approved the new ETF filing.",
		},
		{
			name: "cuts continue reading",
			in:   "Miners relocated to new facilities this quarter Continue reading on the site",
			want: "Miners relocated to new facilities this quarter",
		},
		{
			name: "removes urls and tracking params",
			in:   "Whale moved 10k BTC https://example.com/tx?id=1 utm_source=feed more details followed",
			want: "Whale moved 10k BTC more details followed",
		},
		{
			name: "collapses whitespace",
			in:   "Funding   rates\n\nflipped    negative across major venues",
			want: "Funding rates flipped negative across major venues",
		},
		{
			name: "too short after cleaning",
			in:   "<p>ok</p>",
			want: "",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}
