package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"dropscout/internal/cache"
	"dropscout/internal/metrics"
	"dropscout/internal/models"
	"dropscout/internal/repository"
	"dropscout/internal/scraper"
	"dropscout/internal/verdict"
)

var (
	// ErrNoListings is returned when a scrape succeeded but produced nothing
	// to analyze; callers should treat it as "no data", not as a pipeline
	// failure.
	ErrNoListings = errors.New("no listings found for keyword")
	// ErrVerdictNotFound is returned when a verdict id does not exist.
	ErrVerdictNotFound = errors.New("verdict not found")
)

// Searcher is the scrape dependency of the analysis pipeline, satisfied by
// scraper.Scraper and by test stubs.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]scraper.RawListing, error)
}

// AnalysisReport is the outcome of one keyword analysis: the persisted
// verdicts plus run metadata. Cached reports are returned verbatim with
// FromCache set.
type AnalysisReport struct {
	Keyword    string           `json:"keyword"`
	AnalyzedAt time.Time        `json:"analyzed_at"`
	Verdicts   []models.Verdict `json:"verdicts"`
	FromCache  bool             `json:"from_cache"`
}

// AnalysisService runs the scrape -> score -> persist pipeline for one
// keyword and keeps a TTL cache in front of it.
type AnalysisService struct {
	Repo    repository.Repository
	Scraper Searcher
	Engine  *verdict.Engine
	Cache   *cache.KeywordCache[AnalysisReport]
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	// ReuseWindow bounds how old a persisted verdict batch may be and still
	// be served instead of rescraping. Defaults to one hour; should match
	// the in-memory cache TTL.
	ReuseWindow time.Duration

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// Analyze produces verdicts for every scraped listing under keyword. A fresh
// run supersedes the keyword's previous active verdicts in the same pass, so
// at most one generation is active per keyword. force bypasses the cache.
func (s *AnalysisService) Analyze(ctx context.Context, keyword string, force bool) (AnalysisReport, error) {
	keyword = cache.Normalize(keyword)
	if keyword == "" {
		return AnalysisReport{}, fmt.Errorf("empty keyword")
	}

	if !force {
		if s.Cache != nil {
			if report, ok := s.Cache.Get(keyword); ok {
				if s.Metrics != nil {
					s.Metrics.VerdictCacheHits.Inc()
				}
				report.FromCache = true
				return report, nil
			}
		}
		// The in-memory cache is empty after a restart; a verdict batch
		// persisted within the reuse window is still current.
		if report, ok := s.storedReport(ctx, keyword); ok {
			if s.Metrics != nil {
				s.Metrics.VerdictCacheHits.Inc()
			}
			if s.Cache != nil {
				s.Cache.Put(keyword, report)
			}
			report.FromCache = true
			return report, nil
		}
	}
	if s.Metrics != nil {
		s.Metrics.VerdictCacheMiss.Inc()
	}

	started := s.now()
	raw, err := s.Scraper.Search(ctx, keyword)
	if err != nil {
		return AnalysisReport{}, fmt.Errorf("scrape %q: %w", keyword, err)
	}
	if len(raw) == 0 {
		return AnalysisReport{}, fmt.Errorf("%w: %q", ErrNoListings, keyword)
	}

	analyzedAt := s.now()
	listings := make([]models.Listing, 0, len(raw))
	results := make([]*verdict.Result, 0, len(raw))
	for _, r := range raw {
		res := s.Engine.Evaluate(r)
		if res == nil {
			continue
		}
		listings = append(listings, models.Listing{
			Keyword:        keyword,
			Title:          strings.TrimSpace(r.Title),
			Price:          r.Price,
			Rating:         r.Rating,
			ReviewCount:    r.ReviewCount,
			SourcePlatform: string(r.SourcePlatform),
			ProductURL:     r.ProductURL,
			ImageURL:       r.ImageURL,
			ScrapedAt:      analyzedAt,
		})
		results = append(results, res)
	}
	if len(listings) == 0 {
		return AnalysisReport{}, fmt.Errorf("%w: %q", ErrNoListings, keyword)
	}

	// One transaction, so a failed insert cannot leave the keyword's prior
	// generation superseded with nothing active in its place.
	var verdicts []models.Verdict
	err = s.Repo.InTx(ctx, func(repo repository.Repository) error {
		if err := repo.InsertListings(ctx, listings); err != nil {
			return fmt.Errorf("persist listings: %w", err)
		}
		verdicts = make([]models.Verdict, 0, len(results))
		for i, res := range results {
			verdicts = append(verdicts, buildVerdictRow(listings[i], res, keyword, analyzedAt))
		}
		if _, err := repo.SupersedeActiveVerdicts(ctx, keyword, analyzedAt); err != nil {
			return fmt.Errorf("supersede verdicts: %w", err)
		}
		if err := repo.InsertVerdicts(ctx, verdicts); err != nil {
			return fmt.Errorf("persist verdicts: %w", err)
		}
		return nil
	})
	if err != nil {
		return AnalysisReport{}, err
	}

	s.record(results)

	report := AnalysisReport{
		Keyword:    keyword,
		AnalyzedAt: analyzedAt,
		Verdicts:   verdicts,
	}
	if s.Cache != nil {
		s.Cache.Put(keyword, report)
	}
	if s.Metrics != nil {
		s.Metrics.AnalysisDuration.Observe(s.now().Sub(started).Seconds())
	}
	if s.Logger != nil {
		s.Logger.Info("keyword analyzed",
			zap.String("keyword", keyword),
			zap.Int("listings", len(listings)),
			zap.Int("verdicts", len(verdicts)),
		)
	}
	return report, nil
}

// storedReport rebuilds a report from the keyword's active verdicts when
// they were analyzed within the reuse window. A lookup failure falls through
// to a fresh scrape rather than failing the request.
func (s *AnalysisService) storedReport(ctx context.Context, keyword string) (AnalysisReport, bool) {
	since := s.now().Add(-s.reuseWindow())
	stored, err := s.Repo.ListActiveVerdictsByKeyword(ctx, keyword, since)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("load stored verdicts", zap.String("keyword", keyword), zap.Error(err))
		}
		return AnalysisReport{}, false
	}
	if len(stored) == 0 {
		return AnalysisReport{}, false
	}
	analyzedAt := stored[0].AnalyzedAt
	for _, v := range stored[1:] {
		if v.AnalyzedAt.After(analyzedAt) {
			analyzedAt = v.AnalyzedAt
		}
	}
	return AnalysisReport{
		Keyword:    keyword,
		AnalyzedAt: analyzedAt,
		Verdicts:   stored,
	}, true
}

func (s *AnalysisService) reuseWindow() time.Duration {
	if s.ReuseWindow > 0 {
		return s.ReuseWindow
	}
	return time.Hour
}

// Verdicts is the read path over persisted verdicts.
func (s *AnalysisService) Verdicts(ctx context.Context, params repository.ListVerdictsParams) ([]models.Verdict, int64, error) {
	items, err := s.Repo.ListVerdicts(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountVerdicts(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *AnalysisService) Verdict(ctx context.Context, id uint64) (*models.Verdict, error) {
	return s.Repo.GetVerdictByID(ctx, id)
}

// DismissVerdict marks a verdict as reviewed-and-rejected without deleting
// the row; dismissed verdicts drop out of the money-saved total.
func (s *AnalysisService) DismissVerdict(ctx context.Context, id uint64) error {
	err := s.Repo.UpdateVerdictStatus(ctx, id, models.VerdictStatusDismissed)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %d", ErrVerdictNotFound, id)
	}
	return err
}

func (s *AnalysisService) Stats(ctx context.Context) (repository.StatsSummary, error) {
	return s.Repo.StatsSummary(ctx)
}

// RefreshStale re-analyzes keywords whose active verdicts have aged past
// maxAge. Used by the keyword refresh job; per-keyword failures are logged
// and skipped so one bad keyword cannot stall the batch.
func (s *AnalysisService) RefreshStale(ctx context.Context, maxAge time.Duration, limit int) int {
	staleBefore := s.now().Add(-maxAge)
	keywords, err := s.Repo.ListRefreshKeywords(ctx, staleBefore, limit)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("list stale keywords", zap.Error(err))
		}
		return 0
	}
	refreshed := 0
	for _, kw := range keywords {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Analyze(ctx, kw, true); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("refresh keyword", zap.String("keyword", kw), zap.Error(err))
			}
			continue
		}
		refreshed++
	}
	return refreshed
}

func (s *AnalysisService) record(results []*verdict.Result) {
	if s.Metrics == nil {
		return
	}
	for _, res := range results {
		s.Metrics.VerdictsComputed.WithLabelValues(res.Classification).Inc()
		if res.Classification == verdict.ClassificationSkip {
			saved, _ := res.MoneySaved.Float64()
			s.Metrics.MoneySavedDollars.Add(saved)
		}
	}
}

func (s *AnalysisService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func buildVerdictRow(listing models.Listing, res *verdict.Result, keyword string, analyzedAt time.Time) models.Verdict {
	complaintsRaw, _ := json.Marshal(emptyIfNil(res.CommonComplaints))
	failuresRaw, _ := json.Marshal(emptyIfNil(res.FailureReasons))
	return models.Verdict{
		ListingID:             listing.ID,
		Keyword:               keyword,
		Status:                models.VerdictStatusActive,
		Classification:        res.Classification,
		RiskLevel:             string(res.RiskLevel),
		DemandLevel:           res.DemandLevel,
		SaturationScore:       res.SaturationScore,
		EmotionalTriggerScore: res.EmotionalTriggerScore,
		ConfidenceScore:       res.ConfidenceScore,
		ProfitWorstCase:       res.ProfitWorstCase,
		ProfitAverageCase:     res.ProfitAverageCase,
		ProfitBestCase:        res.ProfitBestCase,
		EstimatedCost:         res.EstimatedCost,
		EstimatedShipping:     res.EstimatedShipping,
		MoneySaved:            res.MoneySaved,
		CommonComplaints:      datatypes.JSON(complaintsRaw),
		FailureReasons:        datatypes.JSON(failuresRaw),
		BestAudience:          res.BestAudience,
		AvoidAudience:         res.AvoidAudience,
		RiskReason:            res.RiskReason,
		AnalyzedAt:            analyzedAt,
	}
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
