package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/sourcing-triads/internal/urlutil"
)

// cardSelectors are tried in order; the first that matches anything wins.
var cardSelectors = []string{
	".m-gallery-product-item-v2",
	".J-search-card-wrapper",
	".search-card-wrapper",
	".searchx-offer-item",
	".fy23-search-card",
}

var anyCard = strings.Join(cardSelectors, ", ")

const detailLinkSelector = "a.search-card-e-detail-wrapper[href]"

func findCards(doc *goquery.Document) (*goquery.Selection, string) {
	for _, sel := range cardSelectors {
		if cards := doc.Find(sel); cards.Length() > 0 {
			return cards, sel
		}
	}
	return doc.Find(anyCard), ""
}

// cleanText returns the selection's text with runs of whitespace collapsed.
func cleanText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func (p *AlibabaParser) resolve(href string) string {
	return urlutil.CanonicalWith(p.baseURL, href)
}

func (p *AlibabaParser) detailURL(card *goquery.Selection) string {
	href, _ := card.Find(detailLinkSelector).First().Attr("href")
	return p.resolve(href)
}

var imageSelectors = []string{
	`img[src*="product"]`,
	".search-card-e-pic img",
	".search-card-e-gallery img",
	".m-gallery-product-item-img img",
	".m-gallery-product-image img",
	".gallery-offer-item__img img",
	`a[href*="product"] img`,
	".search-offer-pic img",
	".search-result-item-pic img",
	`img[alt*="product"]`,
	"img[data-src]",
	`img[src*="alicdn.com"]`,
	"img",
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

func (p *AlibabaParser) imageURL(card *goquery.Selection) string {
	for _, sel := range imageSelectors {
		img := card.Find(sel).First()
		if img.Length() == 0 {
			continue
		}
		src := img.AttrOr("src", "")
		if src == "" || src == "null" {
			src = img.AttrOr("data-src", "")
		}
		if src == "" || src == "null" {
			continue
		}
		src = p.resolve(src)
		if isImageURL(src) {
			return src
		}
	}
	return ""
}

func isImageURL(src string) bool {
	lower := strings.ToLower(src)
	if strings.Contains(lower, "alicdn.com") || strings.Contains(lower, "alibaba.com") {
		for _, ext := range imageExtensions {
			if strings.Contains(lower, ext) {
				return true
			}
		}
	}
	return strings.Contains(src, "http") && !strings.Contains(src, "data:")
}
