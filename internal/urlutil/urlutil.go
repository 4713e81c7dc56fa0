package urlutil

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultBase is the origin root-relative listing links are resolved against.
const DefaultBase = "https://www.alibaba.com"

var (
	idPattern     = regexp.MustCompile(`\d{8,}`)
	detailPattern = regexp.MustCompile(`\d{10,}`)
)

// Canonical resolves protocol-relative ("//host/p") and root-relative
// ("/p") links against DefaultBase. Absolute links are returned trimmed.
func Canonical(href string) string {
	return CanonicalWith(DefaultBase, href)
}

func CanonicalWith(base, href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		b, err := url.Parse(base)
		if err != nil {
			return strings.TrimRight(base, "/") + href
		}
		ref, err := url.Parse(href)
		if err != nil {
			return strings.TrimRight(base, "/") + href
		}
		return b.ResolveReference(ref).String()
	default:
		return href
	}
}

// GuessID returns the first run of eight or more digits in s.
func GuessID(s string) string {
	return idPattern.FindString(s)
}

// ProductDetailURL rewrites a listing link into the stable product-detail
// form when it carries a long numeric id.
func ProductDetailURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	id := detailPattern.FindString(s)
	if id == "" {
		return s
	}
	return DefaultBase + "/product-detail/Product_" + id + ".html?s=p"
}
