// Package reconcile merges the partial views extraction passes produce of a
// listing into one Listing.
package reconcile

import (
	"slices"

	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/opt"
)

// Reconcile merges candidates for one listing. Candidates are taken in
// source priority order (stable within a source); for each field the first
// non-empty, non-zero value wins. A present zero is kept only when no
// candidate offers anything else. The second result is false when no
// candidate supplied a title.
func Reconcile(candidates []models.Partial) (models.Listing, bool) {
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b models.Partial) int {
		return int(a.Source) - int(b.Source)
	})

	var out models.Listing
	for i := range ordered {
		merge(&out, &ordered[i].Listing)
	}

	if out.Title == "" {
		return models.Listing{}, false
	}
	return out, true
}

func merge(dst, src *models.Listing) {
	fillString(&dst.ProductID, src.ProductID)
	fillString(&dst.Title, src.Title)
	fillString(&dst.URL, src.URL)

	fillNumber(&dst.Price, src.Price)
	fillNumber(&dst.PriceMin, src.PriceMin)
	fillNumber(&dst.PriceMax, src.PriceMax)
	fillString(&dst.Currency, src.Currency)

	// The unit travels with the quantity it describes.
	if fillNumber(&dst.MOQ, src.MOQ) {
		dst.MOQUnit = src.MOQUnit
	}
	fillNumber(&dst.SoldQuantity, src.SoldQuantity)

	mergeProductReview(&dst.ProductReview, src.ProductReview)
	mergeSupplier(&dst.Supplier, &src.Supplier)

	fillSlice(&dst.Certifications, src.Certifications)
	fillSlice(&dst.CertIcons, src.CertIcons)
	fillString(&dst.ImageURL, src.ImageURL)
	fillString(&dst.DeliveryEstimate, src.DeliveryEstimate)

	fillFlag(&dst.Features.EasyReturn, src.Features.EasyReturn)
	fillFlag(&dst.Features.AddToCart, src.Features.AddToCart)
	fillFlag(&dst.Features.ChatNow, src.Features.ChatNow)
	fillFlag(&dst.Features.AddToCompare, src.Features.AddToCompare)
	fillFlag(&dst.Features.AddToFavorites, src.Features.AddToFavorites)
}

// mergeProductReview only ever sees product review data.
func mergeProductReview(dst *models.ProductReview, src models.ProductReview) {
	fillNumber(&dst.Avg, src.Avg)
	fillNumber(&dst.Count, src.Count)
}

// mergeSupplierReview only ever sees supplier review data.
func mergeSupplierReview(dst *models.SupplierReview, src models.SupplierReview) {
	fillNumber(&dst.Avg, src.Avg)
	fillNumber(&dst.Count, src.Count)
}

func mergeSupplier(dst, src *models.Supplier) {
	fillString(&dst.Name, src.Name)
	fillString(&dst.ProfileURL, src.ProfileURL)
	fillFlag(&dst.Verified, src.Verified)
	fillNumber(&dst.GoldLevel, src.GoldLevel)
	fillNumber(&dst.Years, src.Years)
	fillString(&dst.CountryCode, src.CountryCode)
	mergeSupplierReview(&dst.Review, src.Review)
}

func fillString(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

func fillSlice(dst *[]string, src []string) {
	if len(*dst) == 0 && len(src) > 0 {
		*dst = slices.Clone(src)
	}
}

// fillNumber reports whether src was adopted.
func fillNumber[T int | float64](dst *opt.Value[T], src opt.Value[T]) bool {
	v, ok := src.Get()
	if !ok {
		return false
	}
	cur, set := dst.Get()
	if set && cur != 0 {
		return false
	}
	if set && v == 0 {
		return false
	}
	*dst = src
	return true
}

func fillFlag(dst *opt.Value[bool], src opt.Value[bool]) {
	v, ok := src.Get()
	if !ok {
		return
	}
	cur, set := dst.Get()
	if set && (cur || !v) {
		return
	}
	*dst = src
}
