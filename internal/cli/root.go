// Package cli implements the sourcing command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/maltedev/sourcing-triads/internal/backend"
	"github.com/maltedev/sourcing-triads/internal/browser"
	"github.com/maltedev/sourcing-triads/internal/config"
	"github.com/maltedev/sourcing-triads/internal/logging"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/ratelimit"
	"github.com/maltedev/sourcing-triads/internal/report"
	"github.com/maltedev/sourcing-triads/internal/scraper"
	"github.com/maltedev/sourcing-triads/internal/storage"
	"github.com/spf13/cobra"
)

const (
	FetcherBackend = "backend"
	FetcherBrowser = "browser"
)

var ErrUnknownFetcher = errors.New("unknown fetcher")

type options struct {
	output          string
	format          string
	showSample      int
	minReviews      int
	allowUnverified bool
	noFilter        bool
	multiplier      float64
	fetcher         string
}

// FetcherFactory builds the page fetcher named by --fetcher. The returned
// close func releases it.
type FetcherFactory func(name string, cfg *config.Config, logger *slog.Logger) (scraper.Fetcher, func() error, error)

// NewRootCommand builds the command tree. A nil factory uses the backend
// and browser fetchers.
func NewRootCommand(newFetcher FetcherFactory) *cobra.Command {
	if newFetcher == nil {
		newFetcher = defaultFetcher
	}
	opts := &options{}

	root := &cobra.Command{
		Use:   "sourcing",
		Short: "Find the cheapest, best quality and best value Alibaba listings.",
		Long: `sourcing fetches an Alibaba search results page, reconciles every
listing from the embedded data, card attributes and visible text, and picks
three mutually exclusive listings: cheapest, best quality and best value.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default alibaba_products_<timestamp>.<format>)")
	flags.StringVarP(&opts.format, "format", "f", string(storage.FormatJSON), "output format: json or csv")
	flags.IntVarP(&opts.showSample, "show-sample", "s", 3, "number of sample listings to print")
	flags.IntVarP(&opts.minReviews, "min-reviews", "r", 1, "minimum product reviews (0 disables)")
	flags.BoolVar(&opts.allowUnverified, "allow-unverified", false, "keep listings from unverified suppliers")
	flags.BoolVar(&opts.noFilter, "no-filter", false, "skip filtering entirely")
	flags.Float64Var(&opts.multiplier, "multiplier", 3.0, "landed cost multiplier")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Alibaba and rank the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, newFetcher, strings.Join(args, " "))
		},
	}
	search.Flags().StringVar(&opts.fetcher, "fetcher", FetcherBackend, "page source: backend or browser")

	parse := &cobra.Command{
		Use:   "parse <file>",
		Short: "Rank the listings of a saved search page or raw backend response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts, args[0])
		},
	}

	root.AddCommand(search, parse)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(nil).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runSearch(cmd *cobra.Command, opts *options, newFetcher FetcherFactory, query string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	fetcher, closeFetcher, err := newFetcher(opts.fetcher, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFetcher(); err != nil {
			logger.Warn("failed to close fetcher", "error", err)
		}
	}()

	svc := scraper.NewService(fetcher, serviceOptions(cfg), logger)
	listings, err := svc.Search(cmd.Context(), query)
	if err != nil {
		return err
	}
	return finish(cmd, opts, cfg, listings)
}

func runParse(cmd *cobra.Command, opts *options, path string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	html := string(data)
	if strings.HasPrefix(strings.TrimSpace(html), "{") {
		if html, err = backend.ContentFromResponse(data); err != nil {
			return fmt.Errorf("failed to read backend response: %w", err)
		}
	}

	svc := scraper.NewService(nil, serviceOptions(cfg), logger)
	listings, err := svc.ProcessHTML(cmd.Context(), html)
	if err != nil {
		return err
	}
	return finish(cmd, opts, cfg, listings)
}

// finish filters and ranks listings, prints the report and saves the
// ranked set.
func finish(cmd *cobra.Command, opts *options, cfg *config.Config, listings []models.Listing) error {
	format, err := storage.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	minReviews := opts.minReviews
	if !cmd.Flags().Changed("min-reviews") {
		minReviews = cfg.Sourcing.MinReviews
	}
	multiplier := opts.multiplier
	if !cmd.Flags().Changed("multiplier") {
		multiplier = cfg.Sourcing.Multiplier
	}

	ev := scraper.Evaluate(listings, scraper.EvalOptions{
		MinReviews:      minReviews,
		RequireVerified: cfg.Sourcing.RequireVerified && !opts.allowUnverified,
		NoFilter:        opts.noFilter,
		Multiplier:      multiplier,
		FXRate:          cfg.Sourcing.FXRate,
	})

	fmt.Fprintf(out, "Listings found: %d\n", len(ev.All))
	switch {
	case opts.noFilter:
		fmt.Fprintln(out, "Filters disabled, ranking all listings")
	case ev.FilterFallback:
		fmt.Fprintln(out, "No listing passed the filters, ranking all listings")
	default:
		fmt.Fprintf(out, "Listings passing filters: %d\n", len(ev.Selected))
	}

	sample := ev.Selected[:min(max(opts.showSample, 0), len(ev.Selected))]
	report.Print(out, ev.Summary, &ev.Triad, sample)

	path := opts.output
	if path == "" {
		path = storage.DefaultFilename(format, time.Now())
	}
	if err := storage.Save(path, ev.Selected, format); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to: %s\n", path)
	return nil
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format), nil
}

func serviceOptions(cfg *config.Config) scraper.Options {
	return scraper.Options{
		MaxProducts: cfg.Sourcing.MaxProducts,
		Workers:     cfg.Sourcing.Workers,
	}
}

func defaultFetcher(name string, cfg *config.Config, logger *slog.Logger) (scraper.Fetcher, func() error, error) {
	switch name {
	case FetcherBackend:
		client, err := NewBackendClient(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	case FetcherBrowser:
		b, err := NewBrowser(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w %q (want %s or %s)", ErrUnknownFetcher, name, FetcherBackend, FetcherBrowser)
	}
}

// NewBackendClient builds the scraping-backend client from configuration.
func NewBackendClient(cfg *config.Config, logger *slog.Logger) (*backend.Client, error) {
	if err := cfg.ValidateBackend(); err != nil {
		return nil, err
	}
	limiter := ratelimit.NewAdaptive(cfg.Backend.RateLimit, 2*cfg.Backend.RateLimit)
	return backend.NewClient(backend.Config{
		URL:        cfg.Backend.URL,
		Username:   cfg.Backend.Username,
		Password:   cfg.Backend.Password,
		Timeout:    cfg.Backend.Timeout,
		MaxRetries: cfg.Backend.MaxRetries,
		RetryDelay: cfg.Backend.RateLimit,
	}, limiter, logger), nil
}

// NewBrowser starts the playwright fetcher from configuration.
func NewBrowser(cfg *config.Config, logger *slog.Logger) (*browser.Browser, error) {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	opts.Timeout = cfg.Browser.Timeout
	limiter := ratelimit.NewInterval(cfg.Backend.RateLimit, 2*cfg.Backend.RateLimit)
	return browser.New(opts, limiter, logger)
}
