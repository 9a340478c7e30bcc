package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/shopspring/decimal"
)

var (
	priceRe  = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
	ratingRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:out of|/)\s*5`)
	digitsRe = regexp.MustCompile(`[\d,]+`)
)

// parseListing extracts one listing from a result card. A card without a
// title is noise (ad slots, separators) and is dropped; price, rating and
// review count are optional and stay nil/zero when absent so the verdict
// layer can penalize the gap instead of guessing.
func parseListing(e *colly.HTMLElement, spec platformSpec) (RawListing, bool) {
	title := strings.TrimSpace(e.ChildText(spec.title))
	if title == "" {
		return RawListing{}, false
	}

	listing := RawListing{
		Title:          title,
		Price:          parsePrice(e.ChildText(spec.price)),
		Rating:         parseRating(e.ChildText(spec.rating)),
		ReviewCount:    parseCount(e.ChildText(spec.reviews)),
		SourcePlatform: spec.platform,
		ProductURL:     e.Request.AbsoluteURL(e.ChildAttr(spec.link, "href")),
		ImageURL:       e.ChildAttr(spec.image, "src"),
	}
	return listing, true
}

// parsePrice reads the first monetary amount out of text like "$19.99" or
// "USD 1,299.00". Ranges ("$10.99 to $15.99") resolve to the low end.
func parsePrice(text string) *decimal.Decimal {
	m := priceRe.FindString(text)
	if m == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m, ",", ""))
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

// parseRating reads "4.3 out of 5 stars" or "4.3/5" style text.
func parseRating(text string) *float64 {
	m := ratingRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	r, err := strconv.ParseFloat(m[1], 64)
	if err != nil || r < 0 || r > 5 {
		return nil
	}
	return &r
}

// parseCount reads review counts like "1,234" or "(567)".
func parseCount(text string) int {
	m := digitsRe.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
