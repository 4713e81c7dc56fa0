// Package scraper turns a search query or a saved page into reconciled
// listings.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/parser"
	"github.com/maltedev/sourcing-triads/internal/reconcile"
	"github.com/maltedev/sourcing-triads/internal/urlutil"
)

const (
	DefaultMaxProducts = 50
	DefaultWorkers     = 4
)

var (
	ErrEmptyPage  = errors.New("empty search page")
	ErrNoListings = errors.New("no listings found on page")
	ErrEmptyQuery = errors.New("search query is required")
	ErrNoFetcher  = errors.New("no page fetcher configured")
)

// Fetcher returns the rendered HTML of a search results page.
type Fetcher interface {
	FetchSearchPage(ctx context.Context, query string) (string, error)
}

type Options struct {
	MaxProducts int
	Workers     int
	BaseURL     string
}

type Service struct {
	fetcher Fetcher
	parser  *parser.AlibabaParser
	opts    Options
	logger  *slog.Logger
}

func NewService(fetcher Fetcher, opts Options, logger *slog.Logger) *Service {
	if opts.MaxProducts <= 0 {
		opts.MaxProducts = DefaultMaxProducts
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.BaseURL == "" {
		opts.BaseURL = urlutil.DefaultBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher: fetcher,
		parser:  parser.NewAlibabaParser(opts.BaseURL, logger),
		opts:    opts,
		logger:  logger.With("component", "scraper"),
	}
}

// Search fetches the results page for query and processes it.
func (s *Service) Search(ctx context.Context, query string) ([]models.Listing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if s.fetcher == nil {
		return nil, ErrNoFetcher
	}

	s.logger.Info("starting search", "query", query)
	html, err := s.fetcher.FetchSearchPage(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search page: %w", err)
	}

	listings, err := s.ProcessHTML(ctx, html)
	if err != nil {
		return nil, err
	}
	s.logger.Info("search complete", "query", query, "listings", len(listings))
	return listings, nil
}

// ProcessHTML extracts every source from html, joins partials that
// describe the same listing and reconciles each group. At most MaxProducts
// listings are returned, in document order.
func (s *Service) ProcessHTML(ctx context.Context, html string) ([]models.Listing, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyPage
	}

	ext, err := s.parser.Extract(html)
	if err != nil {
		return nil, err
	}

	groups := reconcile.GroupPartials(ext.Partials())
	reconcile.DistributeGlobal(groups, ext.Global)

	listings, err := reconcile.ReconcileAll(ctx, groups, s.opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile listings: %w", err)
	}
	if len(listings) == 0 {
		return nil, ErrNoListings
	}

	if len(listings) > s.opts.MaxProducts {
		s.logger.Debug("capping listings", "found", len(listings), "max", s.opts.MaxProducts)
		listings = listings[:s.opts.MaxProducts]
	}

	for i := range listings {
		if problems := listings[i].Validate(); len(problems) > 0 {
			s.logger.Debug("listing has issues", "title", listings[i].Title, "problems", problems)
		}
	}
	return listings, nil
}
