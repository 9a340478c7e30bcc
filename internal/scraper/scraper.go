// Package scraper collects product listings from marketplace search pages.
// It is the input boundary of the analysis pipeline: it either returns
// listings or an error, and an empty slice is the explicit "no data" signal.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"dropscout/internal/config"
	"dropscout/internal/metrics"
)

// platformSpec binds a marketplace to its search URL shape and the CSS
// selectors of a result card. Selectors drift with marketplace redesigns;
// keeping them per-platform makes that churn local.
type platformSpec struct {
	platform     Platform
	searchURL    func(base, keyword string) string
	itemSelector string
	title        string
	price        string
	rating       string
	reviews      string
	link         string
	image        string
}

type Scraper struct {
	cfg     config.ScraperConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
	specs   []platformSpec

	// transport override for tests.
	transport http.RoundTripper
}

func New(cfg config.ScraperConfig, logger *zap.Logger, m *metrics.Metrics) (*Scraper, error) {
	if cfg.Parallelism <= 0 {
		return nil, fmt.Errorf("scraper parallelism must be positive, got %d", cfg.Parallelism)
	}
	specs := make([]platformSpec, 0, len(cfg.Platforms))
	for _, name := range cfg.Platforms {
		spec, err := specFor(cfg, Platform(strings.ToLower(strings.TrimSpace(name))))
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no scraper platforms configured")
	}
	return &Scraper{cfg: cfg, logger: logger, metrics: m, specs: specs}, nil
}

func specFor(cfg config.ScraperConfig, p Platform) (platformSpec, error) {
	switch p {
	case PlatformAmazon:
		return platformSpec{
			platform: PlatformAmazon,
			searchURL: func(base, keyword string) string {
				return base + "/s?k=" + url.QueryEscape(keyword)
			},
			itemSelector: "div.s-result-item[data-component-type='s-search-result']",
			title:        "h2 a span",
			price:        "span.a-price span.a-offscreen",
			rating:       "span.a-icon-alt",
			reviews:      "span.a-size-base.s-underline-text",
			link:         "h2 a",
			image:        "img.s-image",
		}, nil
	case PlatformEbay:
		return platformSpec{
			platform: PlatformEbay,
			searchURL: func(base, keyword string) string {
				return base + "/sch/i.html?_nkw=" + url.QueryEscape(keyword)
			},
			itemSelector: "li.s-item",
			title:        "div.s-item__title",
			price:        "span.s-item__price",
			rating:       "div.x-star-rating span.clipped",
			reviews:      "span.s-item__reviews-count span",
			link:         "a.s-item__link",
			image:        "img.s-item__image-img",
		}, nil
	case PlatformGeneric:
		if strings.TrimSpace(cfg.GenericBase) == "" {
			return platformSpec{}, fmt.Errorf("generic platform requires scraper.generic_base")
		}
		return platformSpec{
			platform: PlatformGeneric,
			searchURL: func(base, keyword string) string {
				return base + "/search?q=" + url.QueryEscape(keyword)
			},
			itemSelector: "div.product-card",
			title:        ".product-title",
			price:        ".product-price",
			rating:       ".product-rating",
			reviews:      ".product-reviews",
			link:         "a.product-link",
			image:        "img.product-image",
		}, nil
	default:
		return platformSpec{}, fmt.Errorf("unknown scraper platform %q", p)
	}
}

// WithTransport swaps the HTTP round tripper used by every collector this
// scraper builds. Test hook (httpmock).
func (s *Scraper) WithTransport(rt http.RoundTripper) {
	s.transport = rt
}

// Search scrapes every configured platform for keyword and returns the
// merged listings. A platform that yields nothing contributes nothing; the
// call fails only when every platform request failed.
func (s *Scraper) Search(ctx context.Context, keyword string) ([]RawListing, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("empty search keyword")
	}

	var (
		all     []RawListing
		lastErr error
		anyOK   bool
	)
	for _, spec := range s.specs {
		listings, err := s.searchPlatform(ctx, spec, keyword)
		if err != nil {
			lastErr = err
			if s.metrics != nil {
				s.metrics.ScrapeErrors.WithLabelValues(string(spec.platform)).Inc()
			}
			if s.logger != nil {
				s.logger.Warn("platform search failed",
					zap.String("platform", string(spec.platform)),
					zap.String("keyword", keyword),
					zap.Error(err),
				)
			}
			continue
		}
		anyOK = true
		all = append(all, listings...)
		if s.cfg.MaxListings > 0 && len(all) >= s.cfg.MaxListings {
			all = all[:s.cfg.MaxListings]
			break
		}
	}
	if !anyOK && lastErr != nil {
		return nil, lastErr
	}
	if s.metrics != nil {
		s.metrics.ListingsScraped.Add(float64(len(all)))
	}
	return all, nil
}

func (s *Scraper) searchPlatform(ctx context.Context, spec platformSpec, keyword string) ([]RawListing, error) {
	base := s.baseFor(spec.platform)
	if base == "" {
		return nil, fmt.Errorf("no base url configured for platform %s", spec.platform)
	}

	c := colly.NewCollector(colly.UserAgent(s.cfg.UserAgent))
	c.SetRequestTimeout(s.cfg.Timeout)
	if s.transport != nil {
		c.WithTransport(s.transport)
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: s.cfg.Parallelism,
		Delay:       s.cfg.Delay,
		RandomDelay: s.cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limit: %w", err)
	}

	var (
		mu        sync.Mutex
		listings  []RawListing
		scrapeErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		if s.metrics != nil {
			s.metrics.ScrapeRequests.WithLabelValues(string(spec.platform)).Inc()
		}
	})

	c.OnHTML(spec.itemSelector, func(e *colly.HTMLElement) {
		listing, ok := parseListing(e, spec)
		if !ok {
			return
		}
		mu.Lock()
		listings = append(listings, listing)
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		scrapeErr = err
		mu.Unlock()
	})

	if err := c.Visit(spec.searchURL(base, keyword)); err != nil {
		return nil, err
	}
	c.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(listings) == 0 && scrapeErr != nil {
		return nil, scrapeErr
	}
	return listings, nil
}

func (s *Scraper) baseFor(p Platform) string {
	switch p {
	case PlatformAmazon:
		return strings.TrimRight(s.cfg.AmazonBase, "/")
	case PlatformEbay:
		return strings.TrimRight(s.cfg.EbayBase, "/")
	case PlatformGeneric:
		return strings.TrimRight(s.cfg.GenericBase, "/")
	default:
		return ""
	}
}
