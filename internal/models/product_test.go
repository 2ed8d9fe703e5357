package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name     string
		product  *Product
		expected bool
	}{
		{
			name: "title and price present",
			product: &Product{
				Title:        "Fone Bluetooth XYZ",
				CurrentPrice: floatPtr(99.90),
			},
			expected: true,
		},
		{
			name: "missing price",
			product: &Product{
				Title: "Fone Bluetooth XYZ",
			},
			expected: false,
		},
		{
			name: "missing title",
			product: &Product{
				CurrentPrice: floatPtr(99.90),
			},
			expected: false,
		},
		{
			name: "title below minimum length",
			product: &Product{
				Title:        "Fone",
				CurrentPrice: floatPtr(99.90),
			},
			expected: false,
		},
		{
			name:     "nil product",
			product:  nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.product.IsComplete(6))
		})
	}
}

func TestRecomputeDiscount(t *testing.T) {
	p := NewProduct("https://produto.mercadolivre.com.br/MLB-123")
	p.OriginalPrice = floatPtr(149.90)
	p.CurrentPrice = floatPtr(99.90)
	p.RecomputeDiscount()
	assert.InDelta(t, 33.36, p.DiscountPercentage, 0.0001)

	p.OriginalPrice = nil
	p.RecomputeDiscount()
	assert.Zero(t, p.DiscountPercentage)

	p.OriginalPrice = floatPtr(99.90)
	p.CurrentPrice = floatPtr(99.90)
	p.RecomputeDiscount()
	assert.Zero(t, p.DiscountPercentage)
}

func TestDisplayLink(t *testing.T) {
	p := NewProduct("https://produto.mercadolivre.com.br/MLB-123")
	assert.Equal(t, p.URL, p.DisplayLink())

	p.AffiliateLink = "https://www.mercadolivre.com.br/social/loja?mlm=123"
	assert.Equal(t, p.AffiliateLink, p.DisplayLink())
}
