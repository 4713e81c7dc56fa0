package reconcile

import (
	"github.com/maltedev/sourcing-triads/internal/models"
	"github.com/maltedev/sourcing-triads/internal/opt"
	"github.com/maltedev/sourcing-triads/internal/urlutil"
)

// Group is every partial known to describe one listing.
type Group struct {
	Key      string
	Partials []models.Partial
}

// GroupPartials joins partials that share a canonical URL or a product id.
// A partial joins its URL's group first, then its id's group, otherwise it
// starts a new one. Groups keep first-seen order.
func GroupPartials(partials []models.Partial) []Group {
	var groups []Group
	byURL := make(map[string]int)
	byID := make(map[string]int)

	for _, p := range partials {
		url := urlutil.Canonical(p.URL)
		id := p.ProductID
		if id == "" {
			id = urlutil.GuessID(url)
		}

		idx := -1
		if i, ok := byURL[url]; ok && url != "" {
			idx = i
		} else if i, ok := byID[id]; ok && id != "" {
			idx = i
		}

		if idx < 0 {
			groups = append(groups, Group{Key: keyFor(url, id)})
			idx = len(groups) - 1
		}
		groups[idx].Partials = append(groups[idx].Partials, p)

		if url != "" {
			if _, ok := byURL[url]; !ok {
				byURL[url] = idx
			}
		}
		if id != "" {
			if _, ok := byID[id]; !ok {
				byID[id] = idx
			}
		}
	}

	return groups
}

func keyFor(url, id string) string {
	switch {
	case url != "":
		return url
	case id != "":
		return "id:" + id
	default:
		return ""
	}
}

// DistributeGlobal hands document-wide hints, in order, to titled groups
// that would otherwise end up without MOQ or sold quantity. Each hint is used at
// most once. This is a best-effort pass: nothing ties a hint to a listing.
func DistributeGlobal(groups []Group, hints models.GlobalHints) {
	moq, sold := 0, 0
	for i := range groups {
		merged, ok := Reconcile(groups[i].Partials)
		if !ok {
			continue
		}

		var part models.Partial
		part.Source = models.SourceGlobal
		added := false

		if !hasNonZero(merged.MOQ) && moq < len(hints.MOQ) {
			part.MOQ = opt.Some(hints.MOQ[moq])
			moq++
			added = true
		}
		if !hasNonZero(merged.SoldQuantity) && sold < len(hints.Sold) {
			part.SoldQuantity = opt.Some(hints.Sold[sold])
			sold++
			added = true
		}

		if added {
			groups[i].Partials = append(groups[i].Partials, part)
		}
	}
}

func hasNonZero[T int | float64](v opt.Value[T]) bool {
	n, ok := v.Get()
	return ok && n != 0
}
