package models

import (
	"github.com/maltedev/sourcing-triads/internal/opt"
)

// Listing is one product card from a search results page after all
// extraction sources have been merged.
type Listing struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	URL       string `json:"url"`

	Price    opt.Value[float64] `json:"price"`
	PriceMin opt.Value[float64] `json:"price_min"`
	PriceMax opt.Value[float64] `json:"price_max"`
	Currency string             `json:"currency"`

	MOQ          opt.Value[float64] `json:"moq"`
	MOQUnit      string             `json:"moq_unit"`
	SoldQuantity opt.Value[int]     `json:"sold_quantity"`

	ProductReview ProductReview `json:"product_review"`
	Supplier      Supplier      `json:"supplier"`

	Certifications   []string `json:"certifications"`
	CertIcons        []string `json:"cert_icons"`
	ImageURL         string   `json:"image_url"`
	DeliveryEstimate string   `json:"delivery_estimate"`

	Features Features `json:"features"`
}

// ProductReview holds reviews of the listing itself.
type ProductReview struct {
	Avg   opt.Value[float64] `json:"avg"`
	Count opt.Value[int]     `json:"count"`
}

// SupplierReview holds reviews of the store selling the listing. It is a
// distinct type from ProductReview so the two cannot be assigned to each
// other.
type SupplierReview struct {
	Avg   opt.Value[float64] `json:"avg"`
	Count opt.Value[int]     `json:"count"`
}

type Supplier struct {
	Name        string          `json:"name"`
	ProfileURL  string          `json:"profile_url"`
	Verified    opt.Value[bool] `json:"verified"`
	GoldLevel   opt.Value[int]  `json:"gold_level"`
	Years       opt.Value[int]  `json:"years"`
	CountryCode string          `json:"country_code"`
	Review      SupplierReview  `json:"review"`
}

type Features struct {
	EasyReturn     opt.Value[bool] `json:"easy_return"`
	AddToCart      opt.Value[bool] `json:"add_to_cart"`
	ChatNow        opt.Value[bool] `json:"chat_now"`
	AddToCompare   opt.Value[bool] `json:"add_to_compare"`
	AddToFavorites opt.Value[bool] `json:"add_to_favorites"`
}

func (r ProductReview) IsSet() bool {
	return r.Avg.IsSet() || r.Count.IsSet()
}

func (r SupplierReview) IsSet() bool {
	return r.Avg.IsSet() || r.Count.IsSet()
}

// HasPrice reports whether the listing carries a usable positive price.
func (l *Listing) HasPrice() bool {
	p, ok := l.Price.Get()
	return ok && p > 0
}

func (l *Listing) IsVerified() bool {
	return l.Supplier.Verified.OrElse(false)
}

func (l *Listing) Validate() []string {
	var errors []string

	if l.Title == "" {
		errors = append(errors, "Title is required")
	}

	if p, ok := l.Price.Get(); ok && p < 0 {
		errors = append(errors, "Price must not be negative")
	}

	if avg, ok := l.ProductReview.Avg.Get(); ok && (avg < 0 || avg > 5) {
		errors = append(errors, "Product review average out of range")
	}

	if avg, ok := l.Supplier.Review.Avg.Get(); ok && (avg < 0 || avg > 5) {
		errors = append(errors, "Supplier review average out of range")
	}

	return errors
}
