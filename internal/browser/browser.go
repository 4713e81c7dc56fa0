// Package browser fetches search pages with a headless Chromium when the
// scraping backend is not available.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/sourcing-triads/internal/ratelimit"
)

const searchBase = "https://www.alibaba.com/trade/search"

var ErrBlocked = errors.New("search page blocked by captcha")

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
	ProxyServer    string
	ExtraHeaders   map[string]string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        45 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "en-US",
		TimezoneID:     "America/New_York",
		ExtraHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
	}
}

type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    *Options
	limiter ratelimit.Limiter
	logger  *slog.Logger
}

func New(opts *Options, limiter ratelimit.Limiter, logger *slog.Logger) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(opts.UserAgent),
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            playwright.String(opts.Locale),
		TimezoneId:        playwright.String(opts.TimezoneID),
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: opts.ExtraHeaders,
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Browser{
		pw:      pw,
		browser: browser,
		context: bctx,
		opts:    opts,
		limiter: limiter,
		logger:  logger.With("component", "browser"),
	}, nil
}

// SearchURL builds the public search results URL for query.
func SearchURL(query string) string {
	return searchBase + "?" + url.Values{"SearchText": {query}}.Encode()
}

// FetchSearchPage renders the search results for query and returns the
// page HTML once the network is idle.
func (b *Browser) FetchSearchPage(ctx context.Context, query string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}

	page, err := b.context.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create new page: %w", err)
	}
	defer page.Close()
	page.SetDefaultTimeout(float64(b.opts.Timeout.Milliseconds()))

	target := SearchURL(query)
	b.logger.Info("opening search page", "url", target)
	if _, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return "", fmt.Errorf("failed to open %s: %w", target, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	if err := DetectBlock(page.URL(), content); err != nil {
		return "", err
	}

	b.logger.Info("search page rendered", "query", query, "bytes", len(content))
	return content, nil
}

func (b *Browser) Close() error {
	var errs []error
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

var blockMarkers = []string{
	"#nocaptcha",
	".nc_wrapper",
	"#baxia-dialog-content",
	"[id^='nc_1_']",
}

// DetectBlock reports ErrBlocked when the page is a captcha or punish
// interstitial instead of search results.
func DetectBlock(pageURL, html string) error {
	if strings.Contains(pageURL, "/punish") || strings.Contains(pageURL, "_____tmd_____") {
		return ErrBlocked
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}

	title := strings.ToLower(doc.Find("title").First().Text())
	if strings.Contains(title, "captcha") || strings.Contains(title, "verify") {
		return ErrBlocked
	}
	for _, sel := range blockMarkers {
		if doc.Find(sel).Length() > 0 {
			return ErrBlocked
		}
	}
	return nil
}
