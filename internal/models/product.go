package models

import (
	"time"

	"github.com/dlemos/promopost/internal/money"
)

// Product is the record assembled by the extraction strategies. Optional
// numeric fields are pointers so "absent" is distinguishable from zero.
// ID and ImagePath are filled by the pipeline once an image was produced.
type Product struct {
	ID                 int       `json:"id,omitempty"`
	URL                string    `json:"url"`
	Title              string    `json:"title"`
	ImageURL           string    `json:"image_url,omitempty"`
	ImagePath          string    `json:"image_path,omitempty"`
	OriginalPrice      *float64  `json:"original_price,omitempty"`
	CurrentPrice       *float64  `json:"current_price,omitempty"`
	DiscountPercentage float64   `json:"discount_percentage"`
	Currency           string    `json:"currency"`
	AffiliateLink      string    `json:"affiliate_link,omitempty"`
	ScrapedAt          time.Time `json:"scraped_at"`
}

func NewProduct(url string) *Product {
	return &Product{
		URL:       url,
		Currency:  "R$",
		ScrapedAt: time.Now(),
	}
}

// IsComplete reports whether the record can proceed to image generation:
// a title of at least minTitleLen characters and a current price.
func (p *Product) IsComplete(minTitleLen int) bool {
	if p == nil {
		return false
	}
	return len([]rune(p.Title)) >= minTitleLen && p.CurrentPrice != nil
}

// RecomputeDiscount derives the discount percentage from the price pair.
// Absent prices yield zero.
func (p *Product) RecomputeDiscount() {
	if p.OriginalPrice == nil || p.CurrentPrice == nil {
		p.DiscountPercentage = 0
		return
	}
	p.DiscountPercentage = money.Discount(*p.OriginalPrice, *p.CurrentPrice)
}

// DisplayLink is the link shown alongside the generated post: the affiliate
// link when one was attached, else the product URL.
func (p *Product) DisplayLink() string {
	if p.AffiliateLink != "" {
		return p.AffiliateLink
	}
	return p.URL
}

// RenderJob carries one compositing request. It only lives for the duration
// of a single Compositor call.
type RenderJob struct {
	Product    *Product
	OutputPath string
	TempDir    string
}
