package parser

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/numparse"
	"github.com/maltedev/sourcing-triads/internal/opt"
)

var offerIDPattern = regexp.MustCompile(`productId=(\d+)`)

// extractContainers reads MOQ and sold text from offer containers that
// carry their product id in attributes. The results have no URL and join
// other partials by id.
func (p *AlibabaParser) extractContainers(doc *goquery.Document) []models.Partial {
	var partials []models.Partial

	doc.Find("div.searchx-offer-item").Each(func(_ int, card *goquery.Selection) {
		id := card.AttrOr("data-ctrdot", "")
		if id == "" {
			if m := offerIDPattern.FindStringSubmatch(card.AttrOr("data-aplus-auto-offer", "")); m != nil {
				id = m[1]
			}
		}
		if id == "" {
			return
		}

		part := models.NewPartial(models.SourceVisible)
		part.ProductID = id

		if moq := card.Find(".searchx-moq").First(); moq.Length() > 0 {
			if n, ok := numparse.ParseMagnitude(cleanText(moq)).Get(); ok && n > 0 {
				part.MOQ = opt.Some(float64(n))
			}
		}
		if sold := card.Find(".searchx-sold-order").First(); sold.Length() > 0 {
			part.SoldQuantity = numparse.ParseMagnitude(cleanText(sold))
		}

		if part.MOQ.IsSet() || part.SoldQuantity.IsSet() {
			partials = append(partials, part)
		}
	})

	return partials
}
