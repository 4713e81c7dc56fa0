package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/opt"
	"github.com/maltedev/sourcing-triads/internal/urlutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *AlibabaParser {
	return NewAlibabaParser(urlutil.DefaultBase, nil)
}

func TestExtract_SourceCounts(t *testing.T) {
	ext, err := newTestParser().Extract(searchPage)
	require.NoError(t, err)

	assert.Len(t, ext.Structured, 2, "offer without title is skipped")
	assert.Len(t, ext.Attribute, 1)
	assert.Len(t, ext.Visible, 3, "two cards plus one id container")
	assert.Len(t, ext.Partials(), 6)

	for _, p := range ext.Structured {
		assert.Equal(t, models.SourceStructured, p.Source)
	}
	for _, p := range ext.Attribute {
		assert.Equal(t, models.SourceAttribute, p.Source)
	}
	for _, p := range ext.Visible {
		assert.Equal(t, models.SourceVisible, p.Source)
	}
}

func TestExtract_Structured(t *testing.T) {
	ext, err := newTestParser().Extract(searchPage)
	require.NoError(t, err)
	require.Len(t, ext.Structured, 2)

	bottle := ext.Structured[0]
	assert.Equal(t, "1600111111111", bottle.ProductID)
	assert.Equal(t, "Steel Water Bottle & Lid", bottle.Title)
	assert.Equal(t, "https://www.alibaba.com/product-detail/Steel-Bottle_1600111111111.html", bottle.URL)
	assert.Equal(t, opt.Some(9.5), bottle.Price)
	assert.Equal(t, opt.Some(7.1), bottle.PriceMin)
	assert.Equal(t, "USD", bottle.Currency)
	assert.Equal(t, opt.Some(50.0), bottle.MOQ)
	assert.Equal(t, "piece", bottle.MOQUnit)
	assert.Equal(t, opt.Some(1500), bottle.SoldQuantity)
	assert.Equal(t, opt.Some(40), bottle.ProductReview.Count)
	assert.Equal(t, opt.Some(4.7), bottle.ProductReview.Avg)
	assert.Equal(t, "Acme Metal", bottle.Supplier.Name)
	assert.Equal(t, "https://acme.en.alibaba.com", bottle.Supplier.ProfileURL)
	assert.Equal(t, opt.Some(true), bottle.Supplier.Verified)
	assert.Equal(t, opt.Some(7), bottle.Supplier.Years)
	assert.Equal(t, opt.Some(210), bottle.Supplier.Review.Count)
	assert.Equal(t, opt.Some(4.9), bottle.Supplier.Review.Avg)

	board := ext.Structured[1]
	assert.Equal(t, "1600222222222", board.ProductID)
	assert.Equal(t, "Bamboo Board", board.Title)
	assert.Equal(t, "https://www.alibaba.com/product-detail/Bamboo_1600222222222.html", board.URL)
	assert.Equal(t, opt.Some(12.5), board.Price)
	assert.Equal(t, opt.Some(2.0), board.MOQ)
	assert.Equal(t, "set", board.MOQUnit)
	assert.Equal(t, opt.Some(30), board.SoldQuantity)
	assert.Equal(t, opt.Some(false), board.Supplier.Verified)
	assert.False(t, board.ProductReview.IsSet())
	assert.False(t, board.Supplier.Review.IsSet())
}

func TestExtract_Attribute(t *testing.T) {
	ext, err := newTestParser().Extract(searchPage)
	require.NoError(t, err)
	require.Len(t, ext.Attribute, 1)

	a := ext.Attribute[0]
	assert.Equal(t, "https://www.alibaba.com/product-detail/Steel-Bottle_1600111111111.html", a.URL)
	assert.Equal(t, opt.Some(9.9), a.Price)
	assert.Equal(t, opt.Some(6.8), a.PriceMin)
	assert.Equal(t, "USD", a.Currency)
	assert.Equal(t, opt.Some(100.0), a.MOQ)
	assert.Equal(t, opt.Some(1200), a.SoldQuantity)
	assert.Equal(t, opt.Some(4.6), a.ProductReview.Avg)
	assert.Equal(t, opt.Some(36), a.ProductReview.Count)
	assert.False(t, a.Supplier.Review.IsSet(), "card review is a product review")
	assert.Empty(t, a.Title)
}

func TestExtract_Cards(t *testing.T) {
	ext, err := newTestParser().Extract(searchPage)
	require.NoError(t, err)
	require.Len(t, ext.Visible, 3)

	c := ext.Visible[0]
	assert.Equal(t, "1600111111111", c.ProductID)
	assert.Equal(t, "Steel Water Bottle", c.Title)
	assert.Equal(t, opt.Some(9.9), c.Price)
	assert.Equal(t, opt.Some(100.0), c.MOQ)
	assert.Equal(t, "piece", c.MOQUnit)
	assert.Equal(t, opt.Some(1200), c.SoldQuantity)
	assert.Equal(t, []string{"CE", "RoHS"}, c.Certifications)
	assert.Len(t, c.CertIcons, 2)
	assert.Equal(t, "Est. delivery by Nov 02", c.DeliveryEstimate)
	assert.Equal(t, "https://s.alicdn.com/@sc04/kf/bottle.jpg", c.ImageURL)
	assert.Equal(t, opt.Some(true), c.Features.EasyReturn)
	assert.Equal(t, opt.Some(true), c.Features.AddToCart)
	assert.Equal(t, opt.Some(true), c.Features.ChatNow)
	assert.Equal(t, opt.Some(false), c.Features.AddToCompare)
	assert.Equal(t, "Acme Metal Co., Ltd.", c.Supplier.Name)
	assert.Equal(t, "https://www.alibaba.com/company/acme", c.Supplier.ProfileURL)
	assert.Equal(t, opt.Some(true), c.Supplier.Verified)
	assert.Equal(t, opt.Some(6), c.Supplier.Years)
	assert.Equal(t, "CN", c.Supplier.CountryCode)
	assert.Equal(t, opt.Some(2), c.Supplier.GoldLevel)
	assert.False(t, c.ProductReview.IsSet(), "visible text carries no review")

	board := ext.Visible[1]
	assert.Equal(t, "Bamboo Cutting Board", board.Title)
	assert.Equal(t, "https://www.alibaba.com/product-detail/Bamboo_1600222222222.html", board.URL)
	assert.Equal(t, opt.Some(15.0), board.Price)
	assert.Equal(t, opt.Some(12.34), board.PriceMin)
	assert.Equal(t, "EUR", board.Currency)
	assert.Equal(t, opt.Some(false), board.Supplier.Verified)
	assert.Equal(t, opt.Some(0), board.Supplier.GoldLevel)

	container := ext.Visible[2]
	assert.Equal(t, "1600333333333", container.ProductID)
	assert.Empty(t, container.URL)
	assert.Equal(t, opt.Some(1500.0), container.MOQ)
	assert.Equal(t, opt.Some(2000), container.SoldQuantity)
}

func TestExtract_Global(t *testing.T) {
	ext, err := newTestParser().Extract(searchPage)
	require.NoError(t, err)

	assert.Equal(t, []float64{15}, ext.Global.MOQ)
	assert.Equal(t, []int{1200, 2000}, ext.Global.Sold)
}

func TestExtract_EmptyPage(t *testing.T) {
	ext, err := newTestParser().Extract("<html><body><p>No results</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, ext.Partials())
	assert.Empty(t, ext.Global.MOQ)
	assert.Empty(t, ext.Global.Sold)
}

func TestDecodeOfferList(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		offers  int
		wantErr bool
	}{
		{
			name:   "strict json",
			script: `window.__page__data._offer_list = {"offerResultData":{"offers":[{"title":"a"}]}};`,
			offers: 1,
		},
		{
			name:   "trailing commas",
			script: `window.__page__data._offer_list = {"offerResultData":{"offers":[{"title":"a",},{"title":"b"},]}};`,
			offers: 2,
		},
		{
			name:   "undefined values",
			script: `window.__page__data._offer_list = {"offerResultData":{"offers":[{"title":"a","x": undefined}]}};`,
			offers: 1,
		},
		{
			name:    "no assignment",
			script:  `var _offer_list_name = "x";`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers, err := decodeOfferList(tt.script)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, offers, tt.offers)
		})
	}
}

func TestExtractCards_SoldCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want opt.Value[int]
	}{
		{"plain", "1200 sold", opt.Some(1200)},
		{"thousands separator", "1,234 sold", opt.Some(1234)},
		{"decimal magnitude", "1.5k sold", opt.Some(1500)},
		{"upper case magnitude", "2K sold", opt.Some(2000)},
		{"no count", "New arrival", opt.None[int]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := `<div class="m-gallery-product-item-v2">
  <a class="search-card-e-detail-wrapper" href="//www.alibaba.com/product-detail/Cup_1600444444444.html"></a>
  <div data-aplus-auto-card-mod="area=soldQuantity">` + tt.text + `</div>
</div>`
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
			require.NoError(t, err)

			cards := newTestParser().extractCards(doc)
			require.Len(t, cards, 1)
			assert.Equal(t, tt.want, cards[0].SoldQuantity)
		})
	}
}

func TestParseOffer_SupplierReview(t *testing.T) {
	offerWith := func(count any, score string) map[string]any {
		return map[string]any{
			"title": "Cup",
			"iuiInfo": map[string]any{"dataSource": map[string]any{"companyInfo": map[string]any{
				"reviewCount": count,
				"reviewScore": score,
			}}},
		}
	}

	tests := []struct {
		name      string
		offer     map[string]any
		wantCount opt.Value[int]
		wantAvg   opt.Value[float64]
	}{
		{"present", offerWith(float64(12), "4.5"), opt.Some(12), opt.Some(4.5)},
		{"zeros are absent", offerWith(float64(0), "0"), opt.None[int](), opt.None[float64]()},
		{"score out of range", offerWith(float64(3), "7"), opt.Some(3), opt.None[float64]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, ok := newTestParser().parseOffer(tt.offer)
			require.True(t, ok)
			assert.Equal(t, tt.wantCount, part.Supplier.Review.Count)
			assert.Equal(t, tt.wantAvg, part.Supplier.Review.Avg)
		})
	}
}
