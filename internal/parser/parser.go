package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/sourcing-triads/internal/models"
)

// Extraction holds the output of every extraction pass over one search
// results page, kept apart by source.
type Extraction struct {
	Structured []models.Partial
	Attribute  []models.Partial
	Visible    []models.Partial
	Global     models.GlobalHints
}

// Partials returns all per-listing partials in descending source priority.
func (e *Extraction) Partials() []models.Partial {
	out := make([]models.Partial, 0, len(e.Structured)+len(e.Attribute)+len(e.Visible))
	out = append(out, e.Structured...)
	out = append(out, e.Attribute...)
	out = append(out, e.Visible...)
	return out
}

type AlibabaParser struct {
	baseURL string
	logger  *slog.Logger
}

func NewAlibabaParser(baseURL string, logger *slog.Logger) *AlibabaParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlibabaParser{
		baseURL: baseURL,
		logger:  logger.With("component", "parser"),
	}
}

// Extract runs all passes over a rendered search results page.
func (p *AlibabaParser) Extract(html string) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	ext := &Extraction{
		Structured: p.extractStructured(doc),
		Attribute:  p.extractAttributes(doc),
		Visible:    append(p.extractCards(doc), p.extractContainers(doc)...),
		Global:     p.extractGlobal(doc),
	}

	p.logger.Info("extraction complete",
		"structured", len(ext.Structured),
		"attribute", len(ext.Attribute),
		"visible", len(ext.Visible),
		"global_moq", len(ext.Global.MOQ),
		"global_sold", len(ext.Global.Sold))

	return ext, nil
}
