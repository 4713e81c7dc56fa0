package models

import "fmt"

// Source identifies which extraction pass produced a Partial. Lower values
// are more reliable and win during reconciliation.
type Source int

const (
	SourceStructured Source = iota
	SourceAttribute
	SourceVisible
	SourceGlobal
)

func (s Source) String() string {
	switch s {
	case SourceStructured:
		return "structured"
	case SourceAttribute:
		return "attribute"
	case SourceVisible:
		return "visible"
	case SourceGlobal:
		return "global"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Partial is what a single extraction pass knows about one listing.
type Partial struct {
	Source Source
	Listing
}

func NewPartial(source Source) Partial {
	return Partial{Source: source}
}

// GlobalHints are document-wide values that cannot be tied to a particular
// listing. They are handed out to listings in order of appearance.
type GlobalHints struct {
	MOQ  []float64
	Sold []int
}
