package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/numparse"
	"github.com/maltedev/sourcing-triads/internal/opt"
	"github.com/maltedev/sourcing-triads/internal/urlutil"
)

var (
	offerListPattern = regexp.MustCompile(`(?s)window\.__page__data[^=]*\._offer_list\s*=\s*({.*?});?\s*(?:window\.|$)`)
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
	firstIntPattern  = regexp.MustCompile(`\d+`)
	moqV2Pattern     = regexp.MustCompile(`([\d,.]+)\s*(\w+)`)
	undefinedPattern = regexp.MustCompile(`:\s*undefined\b`)
)

var errNoOfferList = errors.New("no offer list in script")

// offerList mirrors the part of the embedded page data we read.
type offerList struct {
	OfferResultData struct {
		Offers []map[string]any `json:"offers"`
	} `json:"offerResultData"`
}

// extractStructured reads the offer list embedded in page scripts.
func (p *AlibabaParser) extractStructured(doc *goquery.Document) []models.Partial {
	var partials []models.Partial

	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		content := script.Text()
		if !strings.Contains(content, "_offer_list") {
			return true
		}

		offers, err := decodeOfferList(content)
		if err != nil {
			p.logger.Warn("failed to decode embedded offers", "error", err)
			return true
		}

		for _, offer := range offers {
			if part, ok := p.parseOffer(offer); ok {
				partials = append(partials, part)
			}
		}
		return len(partials) == 0
	})

	return partials
}

// decodeOfferList pulls the offer array out of a script body. Page data is
// JavaScript, not JSON, so a strict decode that fails is retried on a
// repaired copy.
func decodeOfferList(script string) ([]map[string]any, error) {
	m := offerListPattern.FindStringSubmatch(script)
	if m == nil {
		return nil, errNoOfferList
	}

	var data offerList
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(undefinedPattern.ReplaceAllString(m[1], ":null"))
		if repairErr != nil {
			return nil, fmt.Errorf("failed to repair offer list: %w", repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &data); err != nil {
			return nil, fmt.Errorf("failed to decode repaired offer list: %w", err)
		}
	}
	return data.OfferResultData.Offers, nil
}

func (p *AlibabaParser) parseOffer(offer map[string]any) (models.Partial, bool) {
	part := models.NewPartial(models.SourceStructured)

	part.ProductID = firstString(offer, "productId", "offerId", "id", "dataId", "offerid")

	title := firstString(offer, "enPureTitle", "title")
	part.Title = strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(title, "")))
	if part.Title == "" {
		return part, false
	}

	if price := firstString(offer, "price", "priceV2"); price != "" {
		prices := numparse.ExtractRange(price)
		applyPriceRange(&part.Listing, prices)
		if len(prices) > 0 {
			part.Currency = numparse.DetectCurrency(price)
		}
	}

	if href := stringOf(offer["productUrl"]); href != "" {
		part.URL = p.resolve(href)
		if part.ProductID == "" {
			part.ProductID = urlutil.GuessID(part.URL)
		}
	}
	if img := stringOf(offer["mainImage"]); img != "" {
		part.ImageURL = p.resolve(img)
	}

	part.MOQ, part.MOQUnit = offerMOQ(offer)

	if n, ok := positiveInt(offer["soldCount"]); ok {
		part.SoldQuantity = opt.Some(n)
	} else if offer["soldCount"] == nil {
		if n, ok := positiveInt(offer["orderCount"]); ok {
			part.SoldQuantity = opt.Some(n)
		}
	}

	if n, ok := positiveInt(offer["reviewCount"]); ok {
		part.ProductReview.Count = opt.Some(n)
	}
	if avg, ok := numparse.ParseRating(stringOf(offer["reviewScore"])).Get(); ok && avg > 0 && avg <= 5 {
		part.ProductReview.Avg = opt.Some(avg)
	}

	part.Supplier = p.offerSupplier(offer)
	return part, true
}

func (p *AlibabaParser) offerSupplier(offer map[string]any) models.Supplier {
	s := models.Supplier{
		Name: strings.TrimSpace(stringOf(offer["companyName"])),
	}
	if href := stringOf(offer["supplierHref"]); href != "" {
		s.ProfileURL = p.resolve(href)
	}

	company := nested(offer, "iuiInfo", "dataSource", "companyInfo")

	s.Verified = opt.Some(hasVerification(offer) || hasVerification(company))

	years := firstIntPattern.FindString(stringOf(offer["goldSupplierYears"]))
	if years == "" {
		years = firstIntPattern.FindString(stringOf(company["goldSupplierYears"]))
	}
	if years != "" {
		s.Years = numparse.ParseDigits(years)
	}

	if company != nil {
		if n, ok := positiveInt(company["reviewCount"]); ok {
			s.Review.Count = opt.Some(n)
		}
		if avg, ok := numparse.ParseRating(stringOf(company["reviewScore"])).Get(); ok && avg > 0 && avg <= 5 {
			s.Review.Avg = opt.Some(avg)
		}
	}
	return s
}

func offerMOQ(offer map[string]any) (opt.Value[float64], string) {
	if v, ok := offer["halfTrustMoq"]; ok && v != nil {
		if f, err := strconv.ParseFloat(stringOf(v), 64); err == nil && f > 0 {
			return opt.Some(f), "piece"
		}
	}

	for _, key := range []string{"moqV2", "moq"} {
		text := stringOf(offer[key])
		if text == "" {
			continue
		}
		unit := ""
		if m := moqV2Pattern.FindStringSubmatch(text); m != nil {
			text, unit = m[1], numparse.NormalizeUnit(m[2])
		}
		if n, ok := numparse.ParseMagnitude(text).Get(); ok && n > 0 {
			if unit == "" {
				unit = "piece"
			}
			return opt.Some(float64(n)), unit
		}
	}
	return opt.None[float64](), ""
}

func hasVerification(m map[string]any) bool {
	for _, key := range []string{"goldSupplierIcon", "goldSupplierYears", "companyAuthProvider", "companyAuthTagList"} {
		if truthy(m[key]) {
			return true
		}
	}
	return false
}

func nested(m map[string]any, path ...string) map[string]any {
	cur := m
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringOf(m[key]); s != "" {
			return s
		}
	}
	return ""
}

// stringOf renders scalar JSON values as text. Containers render as "".
func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func positiveInt(v any) (int, bool) {
	f, err := strconv.ParseFloat(stringOf(v), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int(f), true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
