package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/numparse"
	"github.com/maltedev/sourcing-triads/internal/opt"
	"github.com/maltedev/sourcing-triads/internal/urlutil"
)

var (
	moqTextPattern  = regexp.MustCompile(`(?i)min\.?\s*order:?\s*([\d,.]+)\s*(\w+)`)
	soldTextPattern = regexp.MustCompile(`(?i)([\d.,]+\s*[km]?)\s*sold`)
	yearsPattern    = regexp.MustCompile(`(?i)(\d+)\s*yrs?`)
)

// extractCards reads the rendered text of each listing card.
func (p *AlibabaParser) extractCards(doc *goquery.Document) []models.Partial {
	cards, selector := findCards(doc)
	if cards.Length() == 0 {
		p.logger.Warn("no product cards found")
		return nil
	}
	p.logger.Debug("found product cards", "count", cards.Length(), "selector", selector)

	partials := make([]models.Partial, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		partials = append(partials, p.extractCard(card))
	})
	return partials
}

func (p *AlibabaParser) extractCard(card *goquery.Selection) models.Partial {
	part := models.NewPartial(models.SourceVisible)

	part.URL = p.detailURL(card)
	part.ProductID = urlutil.GuessID(part.URL)
	part.Title = cleanText(card.Find(`[data-spm="d_title"] a, h2 a, .search-card-e-title a`).First())

	if price := card.Find(".search-card-e-price-main").First(); price.Length() > 0 {
		text := cleanText(price)
		applyPriceRange(&part.Listing, numparse.ExtractRange(text))
		part.Currency = numparse.DetectCurrency(text)
	}

	if moq := card.Find(`[data-aplus-auto-card-mod*="area=moq"]`).First(); moq.Length() > 0 {
		if m := moqTextPattern.FindStringSubmatch(cleanText(moq)); m != nil {
			if v, ok := numparse.ParseMagnitude(m[1]).Get(); ok && v > 0 {
				part.MOQ = opt.Some(float64(v))
				part.MOQUnit = numparse.NormalizeUnit(m[2])
			}
		}
	}

	if sold := card.Find(`[data-aplus-auto-card-mod*="soldQuantity"]`).First(); sold.Length() > 0 {
		if m := soldTextPattern.FindStringSubmatch(cleanText(sold)); m != nil {
			part.SoldQuantity = numparse.ParseMagnitude(m[1])
		}
	}

	card.Find("img.search-card-e-icon__certification").Each(func(_ int, icon *goquery.Selection) {
		if alt := strings.TrimSpace(icon.AttrOr("alt", "")); alt != "" {
			part.Certifications = append(part.Certifications, alt)
		}
		if src := strings.TrimSpace(icon.AttrOr("src", "")); src != "" {
			part.CertIcons = append(part.CertIcons, src)
		}
	})

	part.DeliveryEstimate = cleanText(card.Find(`[data-aplus-auto-card-mod*="area=deliveryBy"]`).First())
	part.ImageURL = p.imageURL(card)

	text := card.Text()
	part.Features = models.Features{
		EasyReturn:     opt.Some(card.Find(`[data-aplus-auto-card-mod*="easy_return"]`).Length() > 0),
		AddToCart:      opt.Some(strings.Contains(text, "Add to cart")),
		ChatNow:        opt.Some(strings.Contains(text, "Chat now")),
		AddToCompare:   opt.Some(strings.Contains(text, "Add to compare")),
		AddToFavorites: opt.Some(strings.Contains(text, "Add to Favorites")),
	}

	part.Supplier = p.cardSupplier(card)
	return part
}

func (p *AlibabaParser) cardSupplier(card *goquery.Selection) models.Supplier {
	var s models.Supplier

	if company := card.Find("a.search-card-e-company").First(); company.Length() > 0 {
		s.Name = cleanText(company)
		s.ProfileURL = p.resolve(company.AttrOr("href", ""))
	}

	verified := card.Find(".verified-supplier-icon__wrapper img.verified-supplier-icon, a.verified-supplier-icon__wrapper").Length() > 0
	s.Verified = opt.Some(verified)

	if years := card.Find("a.search-card-e-supplier__year").First(); years.Length() > 0 {
		if m := yearsPattern.FindStringSubmatch(cleanText(years)); m != nil {
			s.Years = numparse.ParseDigits(m[1])
		}
		if flag := years.Find("img[alt]").First(); flag.Length() > 0 {
			s.CountryCode = strings.ToUpper(strings.TrimSpace(flag.AttrOr("alt", "")))
		}
	}

	diamonds := 0
	card.Find(`[data-aplus-auto-card-mod*="area=ggs"] use`).Each(func(_ int, use *goquery.Selection) {
		href := use.AttrOr("xlink:href", "")
		if href == "" {
			href = use.AttrOr("href", "")
		}
		if strings.Contains(href, "#icon-diamond-large") {
			diamonds++
		}
	})
	s.GoldLevel = opt.Some(diamonds)

	return s
}

// applyPriceRange sets the headline price to the top of the range.
func applyPriceRange(l *models.Listing, prices []float64) {
	if len(prices) == 0 {
		return
	}
	l.Price = numparse.MaxOf(prices)
	l.PriceMin = numparse.MinOf(prices)
	l.PriceMax = numparse.MaxOf(prices)
}
