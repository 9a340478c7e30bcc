package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"dropscout/internal/models"
	"dropscout/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
type stubRepo struct {
	listings      []models.Listing
	verdicts      []*models.Verdict
	liveTests     map[uint64]*models.LiveTest
	nextListingID uint64
	nextVerdictID uint64
	nextTestID    uint64
	txCalls       int
}

func newStubRepo() *stubRepo {
	return &stubRepo{liveTests: map[uint64]*models.LiveTest{}}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(repo repository.Repository) error) error {
	s.txCalls++
	return fn(s)
}

func (s *stubRepo) InsertListings(ctx context.Context, items []models.Listing) error {
	for i := range items {
		s.nextListingID++
		items[i].ID = s.nextListingID
		s.listings = append(s.listings, items[i])
	}
	return nil
}

func (s *stubRepo) InsertVerdicts(ctx context.Context, items []models.Verdict) error {
	for i := range items {
		s.nextVerdictID++
		items[i].ID = s.nextVerdictID
		v := items[i]
		s.verdicts = append(s.verdicts, &v)
	}
	return nil
}

func (s *stubRepo) GetVerdictByID(ctx context.Context, id uint64) (*models.Verdict, error) {
	for _, v := range s.verdicts {
		if v.ID == id {
			out := *v
			for _, l := range s.listings {
				if l.ID == v.ListingID {
					out.Listing = l
				}
			}
			return &out, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListVerdicts(ctx context.Context, params repository.ListVerdictsParams) ([]models.Verdict, error) {
	var out []models.Verdict
	for _, v := range s.verdicts {
		if params.Keyword != nil && v.Keyword != *params.Keyword {
			continue
		}
		if params.Status != nil && v.Status != *params.Status {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *stubRepo) CountVerdicts(ctx context.Context, params repository.ListVerdictsParams) (int64, error) {
	items, _ := s.ListVerdicts(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) ListActiveVerdictsByKeyword(ctx context.Context, keyword string, since time.Time) ([]models.Verdict, error) {
	var out []models.Verdict
	for _, v := range s.verdicts {
		if v.Keyword != keyword || v.Status != models.VerdictStatusActive {
			continue
		}
		if !since.IsZero() && v.AnalyzedAt.Before(since) {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *stubRepo) SupersedeActiveVerdicts(ctx context.Context, keyword string, before time.Time) (int64, error) {
	var n int64
	for _, v := range s.verdicts {
		if v.Keyword == keyword && v.Status == models.VerdictStatusActive && v.AnalyzedAt.Before(before) {
			v.Status = models.VerdictStatusSuperseded
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) UpdateVerdictStatus(ctx context.Context, id uint64, status string) error {
	for _, v := range s.verdicts {
		if v.ID == id {
			v.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubRepo) ListRefreshKeywords(ctx context.Context, staleBefore time.Time, limit int) ([]string, error) {
	newest := map[string]time.Time{}
	for _, v := range s.verdicts {
		if v.Status != models.VerdictStatusActive {
			continue
		}
		if v.AnalyzedAt.After(newest[v.Keyword]) {
			newest[v.Keyword] = v.AnalyzedAt
		}
	}
	var out []string
	for kw, at := range newest {
		if at.Before(staleBefore) {
			out = append(out, kw)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubRepo) InsertLiveTest(ctx context.Context, item *models.LiveTest) error {
	s.nextTestID++
	item.ID = s.nextTestID
	copied := *item
	s.liveTests[item.ID] = &copied
	return nil
}

func (s *stubRepo) GetLiveTestByID(ctx context.Context, id uint64) (*models.LiveTest, error) {
	item, ok := s.liveTests[id]
	if !ok {
		return nil, nil
	}
	out := *item
	return &out, nil
}

func (s *stubRepo) ListLiveTests(ctx context.Context, params repository.ListLiveTestsParams) ([]models.LiveTest, error) {
	var out []models.LiveTest
	for id := uint64(1); id <= s.nextTestID; id++ {
		item, ok := s.liveTests[id]
		if !ok {
			continue
		}
		if params.Status != nil && item.Status != *params.Status {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (s *stubRepo) CountLiveTests(ctx context.Context, params repository.ListLiveTestsParams) (int64, error) {
	items, _ := s.ListLiveTests(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) ListActiveLiveTests(ctx context.Context) ([]models.LiveTest, error) {
	status := models.TestStatusActive
	return s.ListLiveTests(ctx, repository.ListLiveTestsParams{Status: &status})
}

func (s *stubRepo) AddLiveTestSpend(ctx context.Context, id uint64, amount decimal.Decimal) (*models.LiveTest, error) {
	item, ok := s.liveTests[id]
	if !ok {
		return nil, nil
	}
	item.MoneySpent = item.MoneySpent.Add(amount)
	out := *item
	return &out, nil
}

func (s *stubRepo) AddLiveTestSales(ctx context.Context, id uint64, count int) (*models.LiveTest, error) {
	item, ok := s.liveTests[id]
	if !ok {
		return nil, nil
	}
	item.SalesCount += count
	out := *item
	return &out, nil
}

func (s *stubRepo) UpdateLiveTestStatus(ctx context.Context, id uint64, status string) error {
	item, ok := s.liveTests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Status = status
	return nil
}

func (s *stubRepo) StatsSummary(ctx context.Context) (repository.StatsSummary, error) {
	out := repository.StatsSummary{MoneySavedDollars: decimal.Zero}
	for _, v := range s.verdicts {
		out.VerdictsTotal++
		switch v.Classification {
		case models.ClassificationTest:
			out.VerdictsTest++
		case models.ClassificationSkip:
			out.VerdictsSkip++
			if v.Status != models.VerdictStatusDismissed {
				out.MoneySavedDollars = out.MoneySavedDollars.Add(v.MoneySaved)
			}
		}
	}
	for _, t := range s.liveTests {
		switch t.Status {
		case models.TestStatusActive:
			out.TestsActive++
		case models.TestStatusPaused:
			out.TestsPaused++
		case models.TestStatusScaled:
			out.TestsScaled++
		case models.TestStatusKilled:
			out.TestsKilled++
		}
	}
	return out, nil
}
