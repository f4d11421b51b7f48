package viewmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paideia-dao/paideia-site/internal/resource"
)

func TestBuildPriceView(t *testing.T) {
	p := func(v float64) *resource.PricePayload { return &resource.PricePayload{Price: &v} }

	tests := []struct {
		name string
		in   *resource.PricePayload
		want string
	}{
		{"absent", nil, "$-"},
		{"missing price", &resource.PricePayload{}, "$-"},
		{"rounds to four decimals", p(0.016931), "$0.0169"},
		{"pads to four decimals", p(0.05), "$0.0500"},
		{"zero", p(0), "$0.0000"},
		{"rounds half up", p(1.23456), "$1.2346"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPriceView(tt.in))
		})
	}
}
