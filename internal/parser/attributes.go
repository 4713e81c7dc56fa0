package parser

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/numparse"
	"github.com/maltedev/sourcing-triads/internal/opt"
	"github.com/maltedev/sourcing-triads/internal/urlutil"
)

var moqValuePattern = regexp.MustCompile(`([\d,.]+)\s*(\w+)?`)

// extractAttributes reads packed descriptors such as
// data-aplus-auto-card-mod="area=price&areaContent=$6.80-9.90". Each
// descriptor belongs to the card around it, keyed by the card's detail link.
func (p *AlibabaParser) extractAttributes(doc *goquery.Document) []models.Partial {
	byURL := make(map[string]int)
	var partials []models.Partial

	doc.Find("[" + descriptorAttr + "]").Each(func(_ int, el *goquery.Selection) {
		desc := ParseDescriptor(el.AttrOr(descriptorAttr, ""))
		content, ok := desc["areaContent"]
		if !ok || content == "" {
			return
		}

		card := el.Closest(anyCard)
		if card.Length() == 0 {
			return
		}
		url := p.detailURL(card)
		if url == "" {
			return
		}

		idx, seen := byURL[url]
		if !seen {
			part := models.NewPartial(models.SourceAttribute)
			part.URL = url
			part.ProductID = urlutil.GuessID(url)
			partials = append(partials, part)
			idx = len(partials) - 1
			byURL[url] = idx
		}
		applyDescriptor(&partials[idx].Listing, desc["area"], content)
	})

	return partials
}

// applyDescriptor fills at most the fields named by one area. Fields that
// are already set stay as they are.
func applyDescriptor(l *models.Listing, area, content string) {
	switch area {
	case "price":
		if l.Price.IsSet() {
			return
		}
		applyPriceRange(l, numparse.ExtractRange(content))
		if c := numparse.CurrencyMarker(content); c != "" {
			l.Currency = c
		}
	case "review":
		if l.ProductReview.IsSet() {
			return
		}
		l.ProductReview = ParseReviewPair(content)
	case "soldQuantity":
		if !l.SoldQuantity.IsSet() {
			l.SoldQuantity = numparse.ParseMagnitude(content)
		}
	case "moq":
		if l.MOQ.IsSet() {
			return
		}
		if m := moqValuePattern.FindStringSubmatch(content); m != nil {
			if v, ok := numparse.ParseMagnitude(m[1]).Get(); ok && v > 0 {
				l.MOQ = opt.Some(float64(v))
				l.MOQUnit = numparse.NormalizeUnit(m[2])
			}
		}
	}
}
