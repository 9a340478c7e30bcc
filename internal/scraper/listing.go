package scraper

import (
	"github.com/shopspring/decimal"
)

// Platform identifies the marketplace a listing was scraped from.
type Platform string

const (
	PlatformAmazon  Platform = "amazon"
	PlatformEbay    Platform = "ebay"
	PlatformGeneric Platform = "generic"
)

// RawListing is one scraped product listing, immutable once produced.
// Price and Rating are nil when the marketplace page did not expose them;
// downstream scoring treats that as a data-completeness signal, not an error.
type RawListing struct {
	Title          string
	Price          *decimal.Decimal
	Rating         *float64
	ReviewCount    int
	SourcePlatform Platform
	ProductURL     string
	ImageURL       string
}
