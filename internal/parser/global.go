package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/numparse"
	"golang.org/x/net/html"
)

var (
	globalMOQPattern  = regexp.MustCompile(`(?i)(?:Pedido\s*m[ií]n:|MOQ:|Minimum\s*Order:|Pedido\s*m[ií]nimo:)\s*([\d.,]+)`)
	globalSoldPattern = regexp.MustCompile(`(?i)([\d.,]+)\s*(?:vendidos|sold|orders|pedidos|units\s*sold)`)
)

// extractGlobal scans the whole document text for MOQ and sold patterns.
// Matches carry no position, so they are only hints.
func (p *AlibabaParser) extractGlobal(doc *goquery.Document) models.GlobalHints {
	text := documentText(doc)

	var hints models.GlobalHints
	for _, m := range globalMOQPattern.FindAllStringSubmatch(text, -1) {
		if n, ok := numparse.ParseMagnitude(m[1]).Get(); ok {
			hints.MOQ = append(hints.MOQ, float64(n))
		}
	}
	for _, m := range globalSoldPattern.FindAllStringSubmatch(text, -1) {
		if n, ok := numparse.ParseMagnitude(m[1]).Get(); ok {
			hints.Sold = append(hints.Sold, n)
		}
	}
	return hints
}

// documentText joins every visible text node with a space, so numbers in
// adjacent elements never run together.
func documentText(doc *goquery.Document) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "template", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
