package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dropscout/internal/livetest"
	"dropscout/internal/metrics"
	"dropscout/internal/models"
	"dropscout/internal/repository"
)

var (
	// ErrVerdictNotTestable rejects starting a paid trial from a skip verdict.
	ErrVerdictNotTestable = errors.New("verdict is not classified as test")
	// ErrTestClosed rejects mutations of a killed test. Killed is terminal.
	ErrTestClosed = errors.New("live test is killed and read-only")
	// ErrInvalidAction rejects unknown monitor actions.
	ErrInvalidAction = errors.New("unknown live test action")
)

// TestWithRecommendation pairs a stored test with its recommendation, which
// is recomputed on every read and never persisted.
type TestWithRecommendation struct {
	models.LiveTest
	Recommendation livetest.Recommendation `json:"recommendation"`
}

// TestDeskService manages the lifecycle of paid product trials.
type TestDeskService struct {
	Repo    repository.Repository
	Monitor *livetest.Monitor
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	Now func() time.Time
}

// StartTest opens a live test from a test-classified verdict. Returns
// (nil, nil) when the verdict does not exist.
func (s *TestDeskService) StartTest(ctx context.Context, verdictID uint64, startDate time.Time) (*models.LiveTest, error) {
	v, err := s.Repo.GetVerdictByID(ctx, verdictID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	if v.Classification != models.ClassificationTest {
		return nil, fmt.Errorf("%w: verdict %d is %q", ErrVerdictNotTestable, verdictID, v.Classification)
	}
	if startDate.IsZero() {
		startDate = s.now()
	}
	item := &models.LiveTest{
		VerdictID:    v.ID,
		ProductTitle: v.Listing.Title,
		Status:       models.TestStatusActive,
		StartDate:    startDate,
		MoneySpent:   decimal.Zero,
	}
	if err := s.Repo.InsertLiveTest(ctx, item); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("live test started",
			zap.Uint64("test_id", item.ID),
			zap.Uint64("verdict_id", v.ID),
			zap.String("title", item.ProductTitle),
		)
	}
	return item, nil
}

// RecordSpend adds ad spend to a test. Spend only ever grows.
func (s *TestDeskService) RecordSpend(ctx context.Context, id uint64, amount decimal.Decimal) (*TestWithRecommendation, error) {
	if err := s.mutable(ctx, id); err != nil {
		return nil, err
	}
	item, err := s.Repo.AddLiveTestSpend(ctx, id, amount)
	if err != nil || item == nil {
		return nil, err
	}
	return s.withRecommendation(item), nil
}

// RecordSales adds completed sales to a test's counter.
func (s *TestDeskService) RecordSales(ctx context.Context, id uint64, count int) (*TestWithRecommendation, error) {
	if err := s.mutable(ctx, id); err != nil {
		return nil, err
	}
	item, err := s.Repo.AddLiveTestSales(ctx, id, count)
	if err != nil || item == nil {
		return nil, err
	}
	return s.withRecommendation(item), nil
}

// ApplyAction transitions a test's status per a monitor action. The action
// is usually the current recommendation but any valid action is accepted;
// the operator can overrule the monitor.
func (s *TestDeskService) ApplyAction(ctx context.Context, id uint64, action livetest.Action) (*models.LiveTest, error) {
	target, err := statusForAction(action)
	if err != nil {
		return nil, err
	}
	item, err := s.Repo.GetLiveTestByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	if item.Status == models.TestStatusKilled {
		return nil, fmt.Errorf("%w: test %d", ErrTestClosed, id)
	}
	if item.Status != target {
		if err := s.Repo.UpdateLiveTestStatus(ctx, id, target); err != nil {
			return nil, err
		}
		item.Status = target
	}
	if s.Metrics != nil {
		s.Metrics.LiveTestActions.WithLabelValues(string(action)).Inc()
	}
	if s.Logger != nil {
		s.Logger.Info("live test action applied",
			zap.Uint64("test_id", id),
			zap.String("action", string(action)),
			zap.String("status", item.Status),
		)
	}
	return item, nil
}

// Test returns one test with its current recommendation, (nil, nil) when
// missing.
func (s *TestDeskService) Test(ctx context.Context, id uint64) (*TestWithRecommendation, error) {
	item, err := s.Repo.GetLiveTestByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	return s.withRecommendation(item), nil
}

func (s *TestDeskService) Tests(ctx context.Context, params repository.ListLiveTestsParams) ([]TestWithRecommendation, int64, error) {
	items, err := s.Repo.ListLiveTests(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountLiveTests(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	out := make([]TestWithRecommendation, 0, len(items))
	for _, item := range items {
		out = append(out, TestWithRecommendation{
			LiveTest:       item,
			Recommendation: s.Monitor.EvaluateOne(item, now),
		})
	}
	return out, total, nil
}

// Sweep re-evaluates every active test and logs the tests that need operator
// attention. It recommends, it never auto-applies; killing a trial stays a
// human decision. Returns the number of non-continue recommendations.
func (s *TestDeskService) Sweep(ctx context.Context) int {
	items, err := s.Repo.ListActiveLiveTests(ctx)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("list active live tests", zap.Error(err))
		}
		return 0
	}
	flagged := 0
	for _, rec := range s.Monitor.Evaluate(items, s.now()) {
		if rec.Action == livetest.ActionContinue {
			continue
		}
		flagged++
		if s.Logger != nil {
			s.Logger.Info("live test needs attention",
				zap.Uint64("test_id", rec.TestID),
				zap.String("recommendation", string(rec.Action)),
				zap.String("reason", rec.Reason),
				zap.Int("days_live", rec.DaysLive),
			)
		}
	}
	return flagged
}

func (s *TestDeskService) mutable(ctx context.Context, id uint64) error {
	item, err := s.Repo.GetLiveTestByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}
	if item.Status == models.TestStatusKilled {
		return fmt.Errorf("%w: test %d", ErrTestClosed, id)
	}
	return nil
}

func (s *TestDeskService) withRecommendation(item *models.LiveTest) *TestWithRecommendation {
	return &TestWithRecommendation{
		LiveTest:       *item,
		Recommendation: s.Monitor.EvaluateOne(*item, s.now()),
	}
}

func (s *TestDeskService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func statusForAction(action livetest.Action) (string, error) {
	switch action {
	case livetest.ActionContinue:
		return models.TestStatusActive, nil
	case livetest.ActionPause:
		return models.TestStatusPaused, nil
	case livetest.ActionScale:
		return models.TestStatusScaled, nil
	case livetest.ActionKill:
		return models.TestStatusKilled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
}
